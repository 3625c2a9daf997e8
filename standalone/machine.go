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
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/panel"
	"github.com/ZaparooProject/go-em410x/store"
)

// buttonWatchInterval is how often a running capture or replay checks for a
// button press.
const buttonWatchInterval = 10 * time.Millisecond

// LevelSource is implemented by buttons that can report their level without
// blocking. The machine uses it to interrupt captures and replays on a press.
type LevelSource interface {
	Pressed() bool
}

// Machine is the read / simulate / write control loop.
type Machine struct {
	frontend     em410x.Frontend
	button       panel.Button
	indicator    panel.Indicator
	store        store.Store
	config       *Config
	session      *Session
	onTransition func(Transition)
	status       Status
	mu           sync.Mutex
}

type action func(m *Machine, ctx context.Context)

// modeActions run on every loop iteration while in the mode.
var modeActions = map[Mode]action{
	ModeRead:     (*Machine).read,
	ModeSimulate: (*Machine).simulate,
	ModeWrite:    (*Machine).idle,
}

// holdActions run once the button is released after a hold.
var holdActions = map[Mode]action{
	ModeWrite: (*Machine).writeCard,
}

// NewMachine creates a machine in read mode.
func NewMachine(frontend em410x.Frontend, opts ...Option) (*Machine, error) {
	if frontend == nil {
		return nil, errors.New("frontend cannot be nil")
	}

	m := &Machine{
		frontend:  frontend,
		button:    panel.Nop{},
		indicator: panel.Nop{},
		config:    DefaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	m.session = NewSession(m.config.SamplesPerBit)
	m.status.Mode = ModeRead
	return m, nil
}

// Run drives the loop until ctx is done and returns ctx.Err().
func (m *Machine) Run(ctx context.Context) error {
	log.WithField("frontend", m.frontend.Type()).Info("LF EM410x read/sim/write started")
	m.indicate()
	defer m.indicator.Off()

	for {
		select {
		case <-ctx.Done():
			log.Info("LF EM410x read/sim/write stopped")
			return ctx.Err()
		default:
		}
		m.Step(ctx)
	}
}

// Step runs one loop iteration: poll the button, handle its event, then run
// the current mode's action.
func (m *Machine) Step(ctx context.Context) {
	m.dispatch(ctx, m.button.Poll(ctx))
	if ctx.Err() != nil {
		return
	}
	modeActions[m.session.Mode](m, ctx)
}

// Mode returns the current mode. It is safe to call while Run is active.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.Mode
}

// dispatch handles a button event. A click cycles the mode in every mode; a
// hold blanks the LEDs until release and then runs the mode's hold action.
func (m *Machine) dispatch(ctx context.Context, ev panel.Event) {
	switch ev {
	case panel.EventClick:
		log.Debug("button click")
		m.transition(TransitionClick, m.session.Mode.Next())
	case panel.EventHold:
		log.Debug("button hold")
		m.indicator.Off()
		if err := m.button.AwaitRelease(ctx); err != nil {
			return
		}
		if hold, ok := holdActions[m.session.Mode]; ok {
			hold(m, ctx)
		}
		m.indicate()
	case panel.EventNone:
	}
}

func (m *Machine) transition(name TransitionName, to Mode) {
	t := Transition{Name: name, From: m.session.Mode, To: to}
	m.session.Mode = to

	m.mu.Lock()
	m.status.Mode = to
	m.status.LastTransition = t
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"transition": t.Name,
		"from":       t.From,
		"to":         t.To,
	}).Info("mode changed")
	m.indicate()

	if m.onTransition != nil {
		m.onTransition(t)
	}
}

func (m *Machine) indicate() {
	m.indicator.Show(m.session.Mode.LED())
}

func (m *Machine) read(ctx context.Context) {
	m.indicator.Set(panel.LEDD, true)
	watchCtx, cancel := m.interruptible(ctx)
	raw, err := m.frontend.Capture(watchCtx)
	cancel()
	m.indicator.Set(panel.LEDD, false)

	if ctx.Err() != nil {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("capture failed")
		m.countFailure()
	}

	if raw != 0 {
		m.session.Raw = raw
		m.mu.Lock()
		m.status.Raw = raw
		m.status.Captures++
		m.mu.Unlock()
		id := m.session.Identifier()
		log.WithField("id", id).Info("read stopped")
		m.persist(id)
	} else {
		log.Info("read stopped without data")
	}

	if !sleep(ctx, m.config.Debounce) {
		return
	}
	m.transition(TransitionCaptured, ModeSimulate)
}

func (m *Machine) persist(id em410x.ID) {
	if m.store == nil {
		return
	}
	if err := m.store.Append(id); err != nil {
		log.WithError(err).WithField("id", id).Warn("failed to persist identifier, dropped")
	}
}

func (m *Machine) simulate(ctx context.Context) {
	if !m.session.HasIdentifier() {
		m.transition(TransitionNoData, ModeRead)
		return
	}

	samples := m.session.Prepare(m.config.SamplesPerBit)
	log.WithField("id", m.session.Identifier()).Debug("simulating")

	simCtx, cancel := m.interruptible(ctx)
	err := m.frontend.Simulate(simCtx, samples, m.config.Simulate)
	cancel()

	m.mu.Lock()
	m.status.Simulations++
	m.mu.Unlock()

	if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("simulation failed")
		m.countFailure()
		sleep(ctx, m.config.IdleInterval)
	}
}

func (m *Machine) idle(ctx context.Context) {
	sleep(ctx, m.config.IdleInterval)
}

func (m *Machine) writeCard(ctx context.Context) {
	hi, lo := m.session.Raw.Split()
	log.WithField("id", m.session.Identifier()).Info("writing T55x7")

	if err := m.frontend.WriteT55xx(ctx, em410x.Clock, hi, lo); err != nil {
		log.WithError(err).Warn("T55x7 write failed")
		m.countFailure()
		return
	}

	m.mu.Lock()
	m.status.Writes++
	m.mu.Unlock()
}

func (m *Machine) countFailure() {
	m.mu.Lock()
	m.status.Failures++
	m.mu.Unlock()
}

// interruptible derives a context that is also cancelled when the button
// goes down, so long running frontend operations yield to the operator.
func (m *Machine) interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	child, cancel := context.WithCancel(ctx)
	levels, ok := m.button.(LevelSource)
	if !ok {
		return child, cancel
	}

	go func() {
		ticker := time.NewTicker(buttonWatchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-child.Done():
				return
			case <-ticker.C:
				if levels.Pressed() {
					cancel()
					return
				}
			}
		}
	}()
	return child, cancel
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
