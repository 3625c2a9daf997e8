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

package em410x

import (
	"context"
	"fmt"
)

// Frontend is the low-frequency antenna hardware: it captures tags, drives
// the antenna with a sample buffer and writes T55x7 cards. Implementations
// must return promptly once ctx is cancelled.
type Frontend interface {
	// Capture blocks until an EM410x tag is read or ctx is done. A zero
	// capture with a nil error means the watch ended without data.
	Capture(ctx context.Context) (RawCapture, error)

	// Simulate replays samples until ctx is done or the adapter stops on its
	// own (button, new field activity).
	Simulate(ctx context.Context, samples []Bit, opts SimulateOptions) error

	// WriteT55xx programs a T55x7 card to emulate the identifier given as
	// high and low 32-bit halves, at the given clock.
	WriteT55xx(ctx context.Context, clock int, hi, lo uint32) error

	// Close releases the frontend
	Close() error

	// Type returns the frontend type
	Type() FrontendType
}

// SimulateOptions are passed to Frontend.Simulate.
type SimulateOptions struct {
	// Invert drives the antenna with inverted samples.
	Invert bool
	// ExternalClock synchronises the replay to the reader's field.
	ExternalClock bool
}

// DefaultSimulateOptions are the options the standalone mode replays with.
func DefaultSimulateOptions() SimulateOptions {
	return SimulateOptions{Invert: false, ExternalClock: true}
}

// FrontendType names a frontend implementation.
type FrontendType string

const (
	// FrontendUART is a serial attached LF adapter.
	FrontendUART FrontendType = "uart"
	// FrontendMock is a mock frontend for testing
	FrontendMock FrontendType = "mock"
)

// FrontendWithRetry retries transient failures of the one-shot operations of
// a Frontend. Capture and Simulate are long running and are passed through.
type FrontendWithRetry struct {
	frontend Frontend
	config   *RetryConfig
}

// NewFrontendWithRetry wraps frontend. A nil config uses DefaultRetryConfig.
func NewFrontendWithRetry(frontend Frontend, config *RetryConfig) *FrontendWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &FrontendWithRetry{
		frontend: frontend,
		config:   config,
	}
}

func (f *FrontendWithRetry) Capture(ctx context.Context) (RawCapture, error) {
	raw, err := f.frontend.Capture(ctx)
	if err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}
	return raw, nil
}

func (f *FrontendWithRetry) Simulate(ctx context.Context, samples []Bit, opts SimulateOptions) error {
	if err := f.frontend.Simulate(ctx, samples, opts); err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	return nil
}

func (f *FrontendWithRetry) WriteT55xx(ctx context.Context, clock int, hi, lo uint32) error {
	return RetryWithConfig(ctx, f.config, func() error {
		if err := f.frontend.WriteT55xx(ctx, clock, hi, lo); err != nil {
			return &TransportError{
				Op:        "WriteT55xx",
				Err:       err,
				Type:      GetErrorType(err),
				Retryable: IsRetryable(err),
			}
		}
		return nil
	})
}

func (f *FrontendWithRetry) Close() error {
	if err := f.frontend.Close(); err != nil {
		return fmt.Errorf("failed to close underlying frontend: %w", err)
	}
	return nil
}

func (f *FrontendWithRetry) Type() FrontendType {
	return f.frontend.Type()
}

// SetRetryConfig replaces the retry configuration.
func (f *FrontendWithRetry) SetRetryConfig(config *RetryConfig) {
	f.config = config
}
