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

package testing

import (
	"context"
	"sync"

	"github.com/ZaparooProject/go-em410x/panel"
)

// ScriptedButton plays back a fixed sequence of events, then stays released.
type ScriptedButton struct {
	events   []panel.Event
	mu       sync.Mutex
	polls    int
	releases int
	down     bool
}

// NewScriptedButton creates a button that returns events from Poll in order.
func NewScriptedButton(events ...panel.Event) *ScriptedButton {
	return &ScriptedButton{events: events}
}

// Push appends events to the script.
func (b *ScriptedButton) Push(events ...panel.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
}

// SetDown sets the level reported by Pressed.
func (b *ScriptedButton) SetDown(down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.down = down
}

func (b *ScriptedButton) Poll(context.Context) panel.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	if len(b.events) == 0 {
		return panel.EventNone
	}
	ev := b.events[0]
	b.events = b.events[1:]
	return ev
}

func (b *ScriptedButton) AwaitRelease(ctx context.Context) error {
	b.mu.Lock()
	b.releases++
	b.down = false
	b.mu.Unlock()
	return ctx.Err()
}

func (b *ScriptedButton) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.down
}

// Releases returns how often AwaitRelease was called.
func (b *ScriptedButton) Releases() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.releases
}

// Remaining returns how many scripted events were not polled yet.
func (b *ScriptedButton) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// LEDRecorder is an Indicator that remembers LED states.
type LEDRecorder struct {
	history []string
	mu      sync.Mutex
	state   [4]bool
}

func (r *LEDRecorder) Set(led panel.LED, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if led < panel.LEDA || led > panel.LEDD {
		return
	}
	r.state[led] = on
	r.record()
}

func (r *LEDRecorder) Show(led panel.LED) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = [4]bool{}
	if led >= panel.LEDA && led <= panel.LEDD {
		r.state[led] = true
	}
	r.record()
}

func (r *LEDRecorder) Off() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = [4]bool{}
	r.record()
}

// record appends the lit LEDs, e.g. "AD", or "-" when all are off.
func (r *LEDRecorder) record() {
	lit := ""
	for i, on := range r.state {
		if on {
			lit += string(rune('A' + i))
		}
	}
	if lit == "" {
		lit = "-"
	}
	r.history = append(r.history, lit)
}

// State returns the current LED levels.
func (r *LEDRecorder) State() [4]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// History returns every recorded state in order.
func (r *LEDRecorder) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
