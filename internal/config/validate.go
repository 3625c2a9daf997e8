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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const maxLEDs = 4

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var errs []error

	// ---- adapter ----
	if cfg.Adapter.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("adapter.baud_rate must be positive, got %d", cfg.Adapter.BaudRate))
	}
	if cfg.Adapter.AckTimeout <= 0 || cfg.Adapter.WriteTimeout <= 0 {
		errs = append(errs, errors.New("adapter timeouts must be positive"))
	}
	if cfg.Adapter.HelloRetries < 0 || cfg.Adapter.WriteRetries < 0 {
		errs = append(errs, errors.New("adapter retries must not be negative"))
	}

	// ---- panel ----
	switch strings.ToLower(cfg.Panel.Backend) {
	case "", PanelNone:
	case PanelPeriph:
		if cfg.Panel.Button == "" {
			errs = append(errs, errors.New("panel.button is required for the periph backend"))
		}
	case PanelCdev:
		if _, _, err := cfg.Panel.LineOffsets(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("panel.backend %q is not one of none, periph, cdev", cfg.Panel.Backend))
	}
	if len(cfg.Panel.LEDs) > maxLEDs {
		errs = append(errs, fmt.Errorf("panel.leds holds at most %d pins, got %d", maxLEDs, len(cfg.Panel.LEDs)))
	}
	if cfg.Panel.HoldThreshold < 0 || cfg.Panel.Debounce < 0 {
		errs = append(errs, errors.New("panel durations must not be negative"))
	}

	// ---- store ----
	if cfg.Store.Enabled && strings.ContainsAny(cfg.Store.Name, `/\`) {
		errs = append(errs, fmt.Errorf("store.name %q must not contain a path separator", cfg.Store.Name))
	}

	// ---- standalone ----
	spb := cfg.Standalone.SamplesPerBit
	if spb <= 0 || spb%2 != 0 {
		errs = append(errs, fmt.Errorf("standalone.samples_per_bit must be even and positive, got %d", spb))
	}
	if cfg.Standalone.Debounce < 0 {
		errs = append(errs, errors.New("standalone.debounce must not be negative"))
	}

	// ---- api ----
	if cfg.API.Enabled && cfg.API.Address == "" {
		errs = append(errs, errors.New("api.address is required when the api is enabled"))
	}

	return errors.Join(errs...)
}

// LineOffsets parses the button and LED pins as character device line
// offsets. Missing LEDs are -1.
func (p PanelConfig) LineOffsets() (button int, leds [maxLEDs]int, err error) {
	leds = [maxLEDs]int{-1, -1, -1, -1}
	button, err = strconv.Atoi(strings.TrimSpace(p.Button))
	if err != nil || button < 0 {
		return -1, leds, fmt.Errorf("panel.button %q is not a line offset", p.Button)
	}
	for i, s := range p.LEDs {
		if i >= maxLEDs {
			break
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		off, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || off < 0 {
			return -1, leds, fmt.Errorf("panel.leds[%d] %q is not a line offset", i, s)
		}
		leds[i] = off
	}
	return button, leds, nil
}

// PinNames returns the LED pins padded to four entries.
func (p PanelConfig) PinNames() [maxLEDs]string {
	var names [maxLEDs]string
	copy(names[:], p.LEDs)
	return names
}
