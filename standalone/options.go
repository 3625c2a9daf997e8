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

package standalone

import (
	"errors"
	"fmt"
	"time"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/panel"
	"github.com/ZaparooProject/go-em410x/store"
)

// Config holds the timings and replay settings of the machine.
type Config struct {
	// Debounce is the pause after a read, giving a pending click time to
	// settle before the automatic switch to simulate.
	Debounce time.Duration
	// IdleInterval paces the loop while a mode has nothing to do.
	IdleInterval time.Duration
	// SamplesPerBit is the expansion clock, even and positive.
	SamplesPerBit int
	// Simulate is passed to every replay.
	Simulate em410x.SimulateOptions
}

// DefaultConfig returns the 125 kHz settings.
func DefaultConfig() *Config {
	return &Config{
		Debounce:      500 * time.Millisecond,
		IdleInterval:  20 * time.Millisecond,
		SamplesPerBit: em410x.Clock,
		Simulate:      em410x.DefaultSimulateOptions(),
	}
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.SamplesPerBit <= 0 || c.SamplesPerBit%2 != 0 {
		return fmt.Errorf("%w: samples per bit must be even and positive, got %d",
			em410x.ErrInvalidParameter, c.SamplesPerBit)
	}
	if c.Debounce < 0 || c.IdleInterval < 0 {
		return fmt.Errorf("%w: negative duration", em410x.ErrInvalidParameter)
	}
	return nil
}

// Option configures a Machine.
type Option func(*Machine) error

// WithConfig replaces the whole config.
func WithConfig(config *Config) Option {
	return func(m *Machine) error {
		if config == nil {
			return errors.New("config cannot be nil")
		}
		m.config = config
		return nil
	}
}

// WithButton sets the operator button.
func WithButton(button panel.Button) Option {
	return func(m *Machine) error {
		m.button = button
		return nil
	}
}

// WithIndicator sets the LEDs.
func WithIndicator(indicator panel.Indicator) Option {
	return func(m *Machine) error {
		m.indicator = indicator
		return nil
	}
}

// WithStore enables persistence of captured identifiers.
func WithStore(s store.Store) Option {
	return func(m *Machine) error {
		m.store = s
		return nil
	}
}

// WithDebounce sets the post-read pause.
func WithDebounce(d time.Duration) Option {
	return func(m *Machine) error {
		m.config.Debounce = d
		return nil
	}
}

// WithSamplesPerBit sets the expansion clock.
func WithSamplesPerBit(n int) Option {
	return func(m *Machine) error {
		m.config.SamplesPerBit = n
		return nil
	}
}

// WithTransitionHandler registers fn to be called after every mode change.
func WithTransitionHandler(fn func(Transition)) Option {
	return func(m *Machine) error {
		m.onTransition = fn
		return nil
	}
}
