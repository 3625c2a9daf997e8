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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/internal/frame"
	"github.com/ZaparooProject/go-em410x/internal/transport"
)

const (
	// maxSampleChunk is the packed sample payload per upload frame; two more
	// bytes carry the offset.
	maxSampleChunk = 240

	pollInterval = 50 * time.Millisecond
	abortTimeout = 250 * time.Millisecond
	readBufSize  = 64
)

// port is the subset of serial.Port used by the transport.
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Config holds serial settings for the adapter.
type Config struct {
	BaudRate     int
	AckTimeout   time.Duration
	WriteTimeout time.Duration
	HelloRetries int
}

// DefaultConfig returns the settings of the reference adapter firmware.
func DefaultConfig() Config {
	return Config{
		BaudRate:     115200,
		AckTimeout:   100 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		HelloRetries: 3,
	}
}

// Transport is a Frontend backed by an LF adapter on a serial port.
type Transport struct {
	port     port
	portName string
	config   Config
	rx       []byte
	mu       sync.Mutex
}

// New opens portName and synchronises with the adapter.
func New(ctx context.Context, portName string, config Config) (*Transport, error) {
	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, em410x.NewTransportError("open", portName, err, em410x.ErrorTypePermanent)
	}

	t, err := newTransport(p, portName, config)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	if err := t.hello(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return t, nil
}

func newTransport(p port, portName string, config Config) (*Transport, error) {
	if err := p.SetReadTimeout(pollInterval); err != nil {
		return nil, em410x.NewTransportError("setReadTimeout", portName, err, em410x.ErrorTypePermanent)
	}
	return &Transport{
		port:     p,
		portName: portName,
		config:   config,
	}, nil
}

func (t *Transport) hello(ctx context.Context) error {
	_, err := transport.WithRetry(ctx, transport.RetryConfig{
		Description: "hello",
		MaxRetries:  t.config.HelloRetries,
		RetryDelay:  pollInterval,
		OnRetry: func() error {
			log.WithField("port", t.portName).Debug("adapter did not answer hello, retrying")
			t.rx = t.rx[:0]
			return nil
		},
	}, func(ctx context.Context) (struct{}, bool, error) {
		resp, err := t.exchange(ctx, frame.CmdHello, nil, t.config.AckTimeout*5)
		if err != nil {
			if em410x.IsRetryable(err) {
				return struct{}{}, true, nil
			}
			return struct{}{}, false, err
		}
		return struct{}{}, resp.Status() != frame.StatusOK, nil
	})
	if err != nil {
		return fmt.Errorf("adapter handshake on %s: %w", t.portName, err)
	}
	log.WithField("port", t.portName).Info("synced with LF adapter")
	return nil
}

// Capture asks the adapter to watch for an EM410x tag.
func (t *Transport) Capture(ctx context.Context) (em410x.RawCapture, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	resp, err := t.exchange(ctx, frame.CmdCapture, nil, 0)
	if err != nil {
		return 0, err
	}

	switch resp.Status() {
	case frame.StatusOK:
		if len(resp.Payload) < 9 {
			return 0, em410x.NewFrameCorruptedError("Capture", t.portName)
		}
		return em410x.RawCapture(binary.BigEndian.Uint64(resp.Payload[1:9])), nil
	case frame.StatusNoTag, frame.StatusAborted:
		return 0, nil
	default:
		return 0, t.statusError("Capture", resp.Status())
	}
}

// Simulate uploads samples and replays them until the adapter stops or ctx
// is done.
func (t *Transport) Simulate(ctx context.Context, samples []em410x.Bit, opts em410x.SimulateOptions) error {
	if len(samples) > 0xFFFF {
		return em410x.NewDataTooLargeError("Simulate", t.portName)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	packed := em410x.PackSamples(samples)
	for off := 0; off < len(packed); off += maxSampleChunk {
		end := off + maxSampleChunk
		if end > len(packed) {
			end = len(packed)
		}
		payload := make([]byte, 2, 2+end-off)
		binary.BigEndian.PutUint16(payload, uint16(off))
		payload = append(payload, packed[off:end]...)

		resp, err := t.exchange(ctx, frame.CmdUploadSamples, payload, t.config.AckTimeout*5)
		if err != nil {
			return err
		}
		if resp.Status() != frame.StatusOK {
			return t.statusError("UploadSamples", resp.Status())
		}
	}

	var flags byte
	if opts.Invert {
		flags |= frame.FlagInvert
	}
	if opts.ExternalClock {
		flags |= frame.FlagExternalClock
	}
	payload := make([]byte, 3)
	binary.BigEndian.PutUint16(payload, uint16(len(samples)))
	payload[2] = flags

	log.WithField("samples", len(samples)).Debug("simulation started")
	resp, err := t.exchange(ctx, frame.CmdSimulate, payload, 0)
	if err != nil {
		return err
	}
	if s := resp.Status(); s != frame.StatusOK && s != frame.StatusAborted {
		return t.statusError("Simulate", s)
	}
	return nil
}

// WriteT55xx programs a T55x7 card with the identifier halves.
func (t *Transport) WriteT55xx(ctx context.Context, clock int, hi, lo uint32) error {
	if clock <= 0 || clock > 0xFF {
		return fmt.Errorf("%w: clock %d", em410x.ErrInvalidParameter, clock)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	payload := make([]byte, 9)
	payload[0] = byte(clock)
	binary.BigEndian.PutUint32(payload[1:5], hi)
	binary.BigEndian.PutUint32(payload[5:9], lo)

	resp, err := t.exchange(ctx, frame.CmdWriteT55xx, payload, t.config.WriteTimeout)
	if err != nil {
		return err
	}
	if resp.Status() == frame.StatusFailed {
		return em410x.NewTransportError("WriteT55xx", t.portName, em410x.ErrWriteFailed, em410x.ErrorTypeTransient)
	}
	if resp.Status() != frame.StatusOK {
		return t.statusError("WriteT55xx", resp.Status())
	}
	return nil
}

// Close closes the serial port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

func (*Transport) Type() em410x.FrontendType {
	return em410x.FrontendUART
}

// exchange sends cmd, waits for the ACK and then for the matching response.
// A zero timeout waits for the response until ctx is done, in which case the
// adapter is told to abort.
func (t *Transport) exchange(ctx context.Context, cmd byte, payload []byte, timeout time.Duration) (*frame.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frm, err := frame.Build(cmd, payload)
	if err != nil {
		return nil, em410x.NewDataTooLargeError("build", t.portName)
	}

	log.Tracef("uart >> % X", frm)
	if _, err := t.port.Write(frm); err != nil {
		return nil, em410x.NewTransportError("write", t.portName, errors.Join(em410x.ErrTransportWrite, err),
			em410x.ErrorTypeTransient)
	}

	ack, err := t.readFrame(ctx, t.config.AckTimeout)
	if err != nil {
		return nil, err
	}
	if !ack.Ack {
		return nil, em410x.NewTransportError("ack", t.portName, em410x.ErrNoACK, em410x.ErrorTypeTransient)
	}

	for {
		resp, err := t.readFrame(ctx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				t.abort()
			}
			return nil, err
		}
		if resp.Ack || resp.Nack {
			continue
		}
		if resp.Cmd != cmd {
			log.WithField("cmd", fmt.Sprintf("0x%02X", resp.Cmd)).Debug("discarding stale response")
			continue
		}
		if resp.Status() == frame.StatusBusy {
			return nil, em410x.NewTransportError("response", t.portName, em410x.ErrDeviceBusy, em410x.ErrorTypeTransient)
		}
		return resp, nil
	}
}

// abort stops a long running adapter operation. Errors are ignored: the next
// command resynchronises on its own response.
func (t *Transport) abort() {
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()

	frm, _ := frame.Build(frame.CmdAbort, nil)
	if _, err := t.port.Write(frm); err != nil {
		return
	}
	for {
		resp, err := t.readFrame(ctx, abortTimeout)
		if err != nil || (!resp.Ack && resp.Cmd == frame.CmdAbort) {
			return
		}
	}
}

// readFrame reads until one frame is parsed. A zero timeout waits until ctx
// is done.
func (t *Transport) readFrame(ctx context.Context, timeout time.Duration) (*frame.Response, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	buf := make([]byte, readBufSize)
	for {
		resp, n, err := frame.Parse(t.rx)
		if n > 0 {
			t.rx = append(t.rx[:0], t.rx[n:]...)
		}
		switch {
		case err == nil:
			log.Tracef("uart << cmd=0x%02X ack=%v payload=% X", resp.Cmd, resp.Ack, resp.Payload)
			return resp, nil
		case errors.Is(err, frame.ErrDataChecksum):
			return nil, em410x.NewTransportError("read", t.portName, em410x.ErrChecksumMismatch,
				em410x.ErrorTypeTransient)
		case !errors.Is(err, frame.ErrIncomplete):
			return nil, em410x.NewFrameCorruptedError("read", t.portName)
		}
		t.rx = dropNoise(t.rx)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, em410x.NewTimeoutError("read", t.portName)
		}

		read, err := t.port.Read(buf)
		if err != nil {
			return nil, em410x.NewTransportError("read", t.portName, errors.Join(em410x.ErrTransportRead, err),
				em410x.ErrorTypeTransient)
		}
		t.rx = append(t.rx, buf[:read]...)
	}
}

// dropNoise discards bytes that cannot belong to a frame: everything before
// the start code, or all but the last byte when no start code was seen yet.
func dropNoise(rx []byte) []byte {
	start := bytes.Index(rx, []byte{frame.StartCode1, frame.StartCode2})
	switch {
	case start > 0:
		return append(rx[:0], rx[start:]...)
	case start < 0 && len(rx) > 1:
		return append(rx[:0], rx[len(rx)-1])
	}
	return rx
}

func (t *Transport) statusError(op string, status byte) error {
	switch status {
	case frame.StatusBusy:
		return em410x.NewTransportError(op, t.portName, em410x.ErrDeviceBusy, em410x.ErrorTypeTransient)
	case frame.StatusNoTag:
		return em410x.NewTransportError(op, t.portName, em410x.ErrNoTag, em410x.ErrorTypePermanent)
	default:
		return em410x.NewTransportError(op, t.portName,
			fmt.Errorf("%w: adapter status 0x%02X", em410x.ErrCommunicationFailed, status),
			em410x.ErrorTypeTransient)
	}
}
