// go-em410x
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-em410x.
//
// go-em410x is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-em410x is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-em410x; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
adapter:
  port: /dev/ttyACM0
  write_retries: 5
panel:
  backend: CDEV
  button: "17"
  leds: ["22", " 23", "", "27"]
  hold_threshold: 750ms
store:
  dir: /var/lib/em410x/
standalone:
  debounce: 250ms
api:
  enabled: true
`

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "em410x.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Adapter.Port)
	assert.Equal(t, 115200, cfg.Adapter.BaudRate, "missing keys keep their defaults")
	assert.Equal(t, 5, cfg.Adapter.WriteRetries)
	assert.Equal(t, PanelCdev, cfg.Panel.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.Panel.HoldThreshold)
	assert.Equal(t, "/var/lib/em410x", cfg.Store.Dir)
	assert.Equal(t, "emdump", cfg.Store.Name)
	assert.Equal(t, 250*time.Millisecond, cfg.Standalone.Debounce)
	assert.Equal(t, 64, cfg.Standalone.SamplesPerBit)
	assert.True(t, cfg.Standalone.ExternalClock)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "127.0.0.1:8410", cfg.API.Address)

	button, leds, err := cfg.Panel.LineOffsets()
	require.NoError(t, err)
	assert.Equal(t, 17, button)
	assert.Equal(t, [4]int{22, 23, -1, 27}, leds)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Parse([]byte("adapter:\n  prot: /dev/ttyUSB0\n"))
	require.Error(t, err, "unknown keys are rejected")

	_, err = Parse([]byte("panel:\n  hold_threshold: soon\n"))
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := Default()
		cfg.Adapter.Port = "/dev/ttyUSB0"
		return cfg
	}

	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr string
	}{
		{name: "defaults with port", mutate: func(*Config) {}},
		{name: "auto-detected port", mutate: func(c *Config) { c.Adapter.Port = "" }},
		{name: "negative retries", mutate: func(c *Config) { c.Adapter.WriteRetries = -1 }, wantErr: "retries"},
		{name: "zero baud", mutate: func(c *Config) { c.Adapter.BaudRate = 0 }, wantErr: "baud_rate"},
		{name: "odd clock", mutate: func(c *Config) { c.Standalone.SamplesPerBit = 65 }, wantErr: "samples_per_bit"},
		{name: "unknown backend", mutate: func(c *Config) { c.Panel.Backend = "spi" }, wantErr: "panel.backend"},
		{name: "periph without button", mutate: func(c *Config) { c.Panel.Backend = PanelPeriph }, wantErr: "panel.button"},
		{
			name: "cdev with pin name",
			mutate: func(c *Config) {
				c.Panel.Backend = PanelCdev
				c.Panel.Button = "GPIO17"
			},
			wantErr: "line offset",
		},
		{name: "too many leds", mutate: func(c *Config) { c.Panel.LEDs = []string{"a", "b", "c", "d", "e"} }, wantErr: "at most 4"},
		{name: "store name with separator", mutate: func(c *Config) { c.Store.Name = "../emdump" }, wantErr: "store.name"},
		{
			name: "api without address",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Address = ""
			},
			wantErr: "api.address",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.Error(t, Validate(nil))
}

func TestPinNames(t *testing.T) {
	t.Parallel()
	p := PanelConfig{LEDs: []string{"GPIO5", "GPIO6"}}
	assert.Equal(t, [4]string{"GPIO5", "GPIO6", "", ""}, p.PinNames())
}
