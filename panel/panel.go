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

// Package panel provides the operator controls of the standalone mode: one
// push button and four indicator LEDs.
package panel

import (
	"context"
	"errors"
	"time"
)

// Event is the outcome of polling the button.
type Event int

const (
	// EventNone means the button is not pressed.
	EventNone Event = iota
	// EventClick is a press released before the hold threshold.
	EventClick
	// EventHold is a press that lasted at least the hold threshold. The
	// button may still be down.
	EventHold
)

func (e Event) String() string {
	switch e {
	case EventClick:
		return "click"
	case EventHold:
		return "hold"
	default:
		return "none"
	}
}

// Button reports operator presses.
type Button interface {
	// Poll returns EventNone at once if the button is up. Otherwise it
	// blocks until the press can be classified.
	Poll(ctx context.Context) Event
	// AwaitRelease blocks until the button is up or ctx is done.
	AwaitRelease(ctx context.Context) error
}

// LED identifies one of the four indicator LEDs.
type LED int

const (
	LEDA LED = iota
	LEDB
	LEDC
	LEDD
	ledCount
)

func (l LED) String() string {
	if l < LEDA || l >= ledCount {
		return "LED?"
	}
	return "LED" + string(rune('A'+int(l)))
}

// Indicator drives the LEDs.
type Indicator interface {
	// Set switches one LED.
	Set(led LED, on bool)
	// Show switches every LED off except led.
	Show(led LED)
	// Off switches every LED off.
	Off()
}

// ErrUnknownLED is returned by backends for LEDs they have no pin for.
var ErrUnknownLED = errors.New("unknown LED")

// Defaults for Classifier.
const (
	DefaultHoldThreshold  = 600 * time.Millisecond
	DefaultSampleInterval = 5 * time.Millisecond
	DefaultMinPress       = 20 * time.Millisecond
)

// LevelReader reports whether the button is currently pressed.
type LevelReader func() (bool, error)

// Classifier turns a sampled button level into click and hold events.
type Classifier struct {
	read           LevelReader
	now            func() time.Time
	HoldThreshold  time.Duration
	SampleInterval time.Duration
	// MinPress filters contact bounce: shorter presses are ignored.
	MinPress time.Duration
}

// NewClassifier creates a Classifier with the default timings.
func NewClassifier(read LevelReader) *Classifier {
	return &Classifier{
		read:           read,
		now:            time.Now,
		HoldThreshold:  DefaultHoldThreshold,
		SampleInterval: DefaultSampleInterval,
		MinPress:       DefaultMinPress,
	}
}

// Pressed reports the current level without blocking. Read errors count as
// released.
func (c *Classifier) Pressed() bool {
	down, err := c.read()
	return err == nil && down
}

// Poll implements Button.
func (c *Classifier) Poll(ctx context.Context) Event {
	if !c.Pressed() {
		return EventNone
	}

	start := c.now()
	for {
		held := c.now().Sub(start)
		if held >= c.HoldThreshold {
			return EventHold
		}
		if !c.Pressed() {
			if held < c.MinPress {
				return EventNone
			}
			return EventClick
		}
		if !sleep(ctx, c.SampleInterval) {
			return EventNone
		}
	}
}

// AwaitRelease implements Button.
func (c *Classifier) AwaitRelease(ctx context.Context) error {
	for c.Pressed() {
		if !sleep(ctx, c.SampleInterval) {
			return ctx.Err()
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Nop is a panel without hardware: the button is never pressed and the LEDs
// are discarded.
type Nop struct{}

func (Nop) Poll(context.Context) Event { return EventNone }

func (Nop) AwaitRelease(context.Context) error { return nil }

func (Nop) Set(LED, bool) {}

func (Nop) Show(LED) {}

func (Nop) Off() {}
