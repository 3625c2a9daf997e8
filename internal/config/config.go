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

// Package config loads the YAML configuration of the em410x daemon.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/panel"
	"github.com/ZaparooProject/go-em410x/store"
)

// Panel backends.
const (
	PanelNone   = "none"
	PanelPeriph = "periph"
	PanelCdev   = "cdev"
)

type Config struct {
	Adapter    AdapterConfig    `yaml:"adapter"`
	Panel      PanelConfig      `yaml:"panel"`
	Store      StoreConfig      `yaml:"store"`
	Standalone StandaloneConfig `yaml:"standalone"`
	API        APIConfig        `yaml:"api"`
}

// ---- ADAPTER ----

// AdapterConfig selects the serial adapter. An empty port is detected by
// probing the USB serial ports.
type AdapterConfig struct {
	Port         string        `yaml:"port"`
	BaudRate     int           `yaml:"baud_rate"`
	AckTimeout   time.Duration `yaml:"ack_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	HelloRetries int           `yaml:"hello_retries"`
	// WriteRetries is the number of attempts for a T55x7 write.
	WriteRetries int `yaml:"write_retries"`
}

// ---- PANEL ----

// PanelConfig names the button and LED pins. The periph backend takes pin
// names such as "GPIO17", the cdev backend line offsets such as "17".
type PanelConfig struct {
	Backend       string        `yaml:"backend"`
	Chip          string        `yaml:"chip"`
	Button        string        `yaml:"button"`
	LEDs          []string      `yaml:"leds"`
	HoldThreshold time.Duration `yaml:"hold_threshold"`
	Debounce      time.Duration `yaml:"debounce"`
}

// ---- STORE ----

type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Name    string `yaml:"name"`
}

// ---- STANDALONE ----

type StandaloneConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	SamplesPerBit int           `yaml:"samples_per_bit"`
	Invert        bool          `yaml:"invert"`
	ExternalClock bool          `yaml:"external_clock"`
}

// ---- API ----

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Adapter: AdapterConfig{
			BaudRate:     115200,
			AckTimeout:   100 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
			HelloRetries: 3,
			WriteRetries: 3,
		},
		Panel: PanelConfig{
			Backend:       PanelNone,
			Chip:          "gpiochip0",
			HoldThreshold: panel.DefaultHoldThreshold,
			Debounce:      10 * time.Millisecond,
		},
		Store: StoreConfig{
			Enabled: true,
			Dir:     ".",
			Name:    store.DefaultName,
		},
		Standalone: StandaloneConfig{
			Debounce:      500 * time.Millisecond,
			SamplesPerBit: em410x.Clock,
			ExternalClock: true,
		},
		API: APIConfig{
			Address: "127.0.0.1:8410",
		},
	}
}

// Load reads path on top of Default. It does not validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
