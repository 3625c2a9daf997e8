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
	"sync"
)

// CaptureResult is one queued answer of MockFrontend.Capture.
type CaptureResult struct {
	Err error
	Raw RawCapture
}

// SimulateCall records one MockFrontend.Simulate invocation.
type SimulateCall struct {
	Samples []Bit
	Options SimulateOptions
}

// WriteCall records one MockFrontend.WriteT55xx invocation.
type WriteCall struct {
	Clock int
	Hi    uint32
	Lo    uint32
}

// MockFrontend is a Frontend for tests. Capture answers from a queue and
// blocks until the context is done once the queue is empty. Simulate records
// the buffer and returns immediately unless BlockSimulate is set.
type MockFrontend struct {
	CaptureFunc   func(ctx context.Context) (RawCapture, error)
	captures      []CaptureResult
	simulateCalls []SimulateCall
	writeCalls    []WriteCall
	writeErr      error
	simulateErr   error
	captureCalls  int
	mu            sync.Mutex
	blockSimulate bool
	closed        bool
}

// NewMockFrontend creates a mock answering Capture with the given results in
// order.
func NewMockFrontend(captures ...CaptureResult) *MockFrontend {
	return &MockFrontend{captures: captures}
}

// QueueCapture appends a result to the capture queue.
func (m *MockFrontend) QueueCapture(raw RawCapture, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = append(m.captures, CaptureResult{Raw: raw, Err: err})
}

// SetWriteError makes WriteT55xx fail with err.
func (m *MockFrontend) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// SetSimulateError makes Simulate fail with err.
func (m *MockFrontend) SetSimulateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simulateErr = err
}

// SetBlockSimulate makes Simulate run until its context is done.
func (m *MockFrontend) SetBlockSimulate(block bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockSimulate = block
}

func (m *MockFrontend) Capture(ctx context.Context) (RawCapture, error) {
	m.mu.Lock()
	m.captureCalls++
	fn := m.CaptureFunc
	if fn == nil && len(m.captures) > 0 {
		next := m.captures[0]
		m.captures = m.captures[1:]
		m.mu.Unlock()
		return next.Raw, next.Err
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func (m *MockFrontend) Simulate(ctx context.Context, samples []Bit, opts SimulateOptions) error {
	m.mu.Lock()
	m.simulateCalls = append(m.simulateCalls, SimulateCall{
		Samples: append([]Bit(nil), samples...),
		Options: opts,
	})
	block := m.blockSimulate
	err := m.simulateErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (m *MockFrontend) WriteT55xx(_ context.Context, clock int, hi, lo uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls = append(m.writeCalls, WriteCall{Clock: clock, Hi: hi, Lo: lo})
	return m.writeErr
}

func (m *MockFrontend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (*MockFrontend) Type() FrontendType {
	return FrontendMock
}

// CaptureCalls returns how often Capture was called.
func (m *MockFrontend) CaptureCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captureCalls
}

// SimulateCalls returns a copy of the recorded Simulate calls.
func (m *MockFrontend) SimulateCalls() []SimulateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SimulateCall(nil), m.simulateCalls...)
}

// WriteCalls returns a copy of the recorded WriteT55xx calls.
func (m *MockFrontend) WriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WriteCall(nil), m.writeCalls...)
}

// IsClosed reports whether Close was called.
func (m *MockFrontend) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
