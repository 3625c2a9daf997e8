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

package uart

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/internal/frame"
	testutil "github.com/ZaparooProject/go-em410x/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adapterFunc answers a host command with a response payload. Returning
// ok=false leaves the command running without a response.
type adapterFunc func(cmd byte, payload []byte) (resp []byte, ok bool)

// fakeAdapter emulates the adapter firmware on the other end of the port.
type fakeAdapter struct {
	handler  adapterFunc
	out      []byte
	commands []byte
	mu       sync.Mutex
	closed   bool
}

func newFakeAdapter(handler adapterFunc) *fakeAdapter {
	return &fakeAdapter{handler: handler}
}

func (f *fakeAdapter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, errors.New("port closed")
	}
	if len(p) < 8 {
		return 0, errors.New("short host frame")
	}
	data := p[5 : 5+int(p[3])]
	cmd, payload := data[1], append([]byte(nil), data[2:]...)
	f.commands = append(f.commands, cmd)

	f.out = append(f.out, frame.AckFrame...)
	if resp, ok := f.handler(cmd, payload); ok {
		f.out = append(f.out, testutil.BuildAdapterFrame(cmd, resp)...)
	}
	return len(p), nil
}

func (f *fakeAdapter) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.out) == 0 {
		f.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	}
	n := copy(p, f.out)
	f.out = f.out[n:]
	f.mu.Unlock()
	return n, nil
}

func (*fakeAdapter) SetReadTimeout(time.Duration) error { return nil }

func (f *fakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeAdapter) sent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.commands...)
}

func newTestTransport(t *testing.T, handler adapterFunc) (*Transport, *fakeAdapter) {
	t.Helper()
	adapter := newFakeAdapter(handler)
	tr, err := newTransport(adapter, "/dev/ttyTEST", DefaultConfig())
	require.NoError(t, err)
	return tr, adapter
}

func TestTransportType(t *testing.T) {
	t.Parallel()
	tr := &Transport{portName: "/dev/ttyUSB0"}
	assert.Equal(t, em410x.FrontendUART, tr.Type())
	assert.NoError(t, tr.Close(), "closing an unopened transport is a no-op")
}

func TestHello(t *testing.T) {
	t.Parallel()

	attempts := 0
	tr, adapter := newTestTransport(t, func(cmd byte, _ []byte) ([]byte, bool) {
		require.Equal(t, byte(frame.CmdHello), cmd)
		attempts++
		if attempts == 1 {
			return []byte{frame.StatusBusy}, true
		}
		return []byte{frame.StatusOK}, true
	})

	err := tr.hello(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{frame.CmdHello, frame.CmdHello}, adapter.sent())
}

func TestCapture(t *testing.T) {
	t.Parallel()

	t.Run("TagRead", func(t *testing.T) {
		t.Parallel()
		want := em410x.CaptureOf(0x0123456789)
		tr, _ := newTestTransport(t, func(byte, []byte) ([]byte, bool) {
			return testutil.BuildCaptureResponse(want), true
		})

		raw, err := tr.Capture(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, raw)
		assert.Equal(t, em410x.ID(0x0123456789), em410x.Reorder(raw))
	})

	t.Run("NoTag", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTransport(t, func(byte, []byte) ([]byte, bool) {
			return []byte{frame.StatusNoTag}, true
		})

		raw, err := tr.Capture(context.Background())
		require.NoError(t, err)
		assert.Zero(t, raw)
	})

	t.Run("CancelSendsAbort", func(t *testing.T) {
		t.Parallel()
		tr, adapter := newTestTransport(t, func(cmd byte, _ []byte) ([]byte, bool) {
			if cmd == frame.CmdAbort {
				return []byte{frame.StatusAborted}, true
			}
			return nil, false
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := tr.Capture(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, []byte{frame.CmdCapture, frame.CmdAbort}, adapter.sent())
	})

	t.Run("AlreadyCancelled", func(t *testing.T) {
		t.Parallel()
		tr, adapter := newTestTransport(t, func(byte, []byte) ([]byte, bool) {
			return []byte{frame.StatusOK}, true
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := tr.Capture(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, adapter.sent())
	})
}

func TestSimulate(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	uploaded := make([]byte, 0, 512)
	var simulatePayload []byte

	tr, adapter := newTestTransport(t, func(cmd byte, payload []byte) ([]byte, bool) {
		mu.Lock()
		defer mu.Unlock()
		switch cmd {
		case frame.CmdUploadSamples:
			off := int(binary.BigEndian.Uint16(payload))
			assert.Equal(t, len(uploaded), off)
			uploaded = append(uploaded, payload[2:]...)
		case frame.CmdSimulate:
			simulatePayload = payload
		}
		return []byte{frame.StatusOK}, true
	})

	samples := em410x.Expand(em410x.Encode(0x0123456789), em410x.Clock)
	err := tr.Simulate(context.Background(), samples, em410x.DefaultSimulateOptions())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, em410x.PackSamples(samples), uploaded)
	assert.Equal(t, []byte{frame.CmdUploadSamples, frame.CmdUploadSamples, frame.CmdSimulate}, adapter.sent())
	require.Len(t, simulatePayload, 3)
	assert.Equal(t, uint16(em410x.SampleBufferLen), binary.BigEndian.Uint16(simulatePayload))
	assert.Equal(t, byte(frame.FlagExternalClock), simulatePayload[2])
}

func TestWriteT55xx(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		var got []byte
		tr, _ := newTestTransport(t, func(_ byte, payload []byte) ([]byte, bool) {
			got = payload
			return []byte{frame.StatusOK}, true
		})

		require.NoError(t, tr.WriteT55xx(context.Background(), em410x.Clock, 0x01, 0x23456789))
		assert.Equal(t, []byte{64, 0, 0, 0, 0x01, 0x23, 0x45, 0x67, 0x89}, got)
	})

	t.Run("CardRejected", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTransport(t, func(byte, []byte) ([]byte, bool) {
			return []byte{frame.StatusFailed}, true
		})

		err := tr.WriteT55xx(context.Background(), em410x.Clock, 0, 1)
		require.ErrorIs(t, err, em410x.ErrWriteFailed)
		assert.True(t, em410x.IsRetryable(err))
	})

	t.Run("InvalidClock", func(t *testing.T) {
		t.Parallel()
		tr, adapter := newTestTransport(t, func(byte, []byte) ([]byte, bool) {
			return []byte{frame.StatusOK}, true
		})

		err := tr.WriteT55xx(context.Background(), 0, 0, 1)
		require.ErrorIs(t, err, em410x.ErrInvalidParameter)
		assert.Empty(t, adapter.sent())
	})
}

func TestMissingAck(t *testing.T) {
	t.Parallel()

	adapter := &silentPort{}
	tr, err := newTransport(adapter, "/dev/ttyTEST", DefaultConfig())
	require.NoError(t, err)

	_, err = tr.exchange(context.Background(), frame.CmdHello, nil, time.Second)
	require.ErrorIs(t, err, em410x.ErrTransportTimeout)
	assert.True(t, em410x.IsRetryable(err))
}

// silentPort accepts writes and never answers.
type silentPort struct{}

func (*silentPort) Read([]byte) (int, error) {
	time.Sleep(5 * time.Millisecond)
	return 0, nil
}
func (*silentPort) Write(p []byte) (int, error)        { return len(p), nil }
func (*silentPort) SetReadTimeout(time.Duration) error { return nil }
func (*silentPort) Close() error                       { return nil }

// noisyPort returns bytes that never contain a start code, then optionally a
// frame once the noise is spent.
type noisyPort struct {
	tail  []byte
	noise int
}

func (p *noisyPort) Read(b []byte) (int, error) {
	if p.noise > 0 {
		n := min(len(b), p.noise)
		for i := range b[:n] {
			b[i] = 0x42
		}
		p.noise -= n
		return n, nil
	}
	if len(p.tail) > 0 {
		n := copy(b, p.tail)
		p.tail = p.tail[n:]
		return n, nil
	}
	time.Sleep(time.Millisecond)
	return 0, nil
}
func (*noisyPort) Write(p []byte) (int, error)        { return len(p), nil }
func (*noisyPort) SetReadTimeout(time.Duration) error { return nil }
func (*noisyPort) Close() error                       { return nil }

func TestReadFrameDropsNoise(t *testing.T) {
	t.Parallel()

	t.Run("NoStartCode", func(t *testing.T) {
		t.Parallel()
		tr, err := newTransport(&noisyPort{noise: 1 << 20}, "/dev/ttyTEST", DefaultConfig())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err = tr.readFrame(ctx, 0)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.LessOrEqual(t, len(tr.rx), 1, "noise must not accumulate")
	})

	t.Run("FrameAfterNoise", func(t *testing.T) {
		t.Parallel()
		want := em410x.CaptureOf(0x0123456789)
		port := &noisyPort{
			noise: 4096,
			tail:  testutil.BuildAdapterFrame(frame.CmdCapture, testutil.BuildCaptureResponse(want)),
		}
		tr, err := newTransport(port, "/dev/ttyTEST", DefaultConfig())
		require.NoError(t, err)

		resp, err := tr.readFrame(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, byte(frame.CmdCapture), resp.Cmd)
		assert.Equal(t, uint64(want), binary.BigEndian.Uint64(resp.Payload[1:]))
		assert.Empty(t, tr.rx)
	})
}

func TestDropNoise(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{name: "empty"},
		{name: "keeps last byte", in: []byte{0x42, 0x17, 0x00}, want: []byte{0x00}},
		{name: "trims before start code", in: []byte{0x42, 0x00, 0xFF, 0x05}, want: []byte{0x00, 0xFF, 0x05}},
		{name: "start code first", in: []byte{0x00, 0xFF, 0x05}, want: []byte{0x00, 0xFF, 0x05}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dropNoise(append([]byte(nil), tt.in...)))
		})
	}
}
