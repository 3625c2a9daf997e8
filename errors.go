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
	"errors"
	"fmt"
)

// Transport level errors. These are usually transient and worth retrying.
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrTransportRead       = errors.New("transport read failed")
	ErrTransportWrite      = errors.New("transport write failed")
	ErrCommunicationFailed = errors.New("communication with adapter failed")
	ErrNoACK               = errors.New("adapter did not acknowledge")
	ErrFrameCorrupted      = errors.New("frame corrupted")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrDeviceBusy          = errors.New("adapter busy")
)

// Permanent errors.
var (
	ErrDeviceNotFound   = errors.New("adapter not found")
	ErrNoTag            = errors.New("no tag in field")
	ErrWriteFailed      = errors.New("T55x7 write failed")
	ErrDataTooLarge     = errors.New("data too large")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidHeader    = errors.New("invalid EM410x header")
	ErrInvalidStopBit   = errors.New("invalid EM410x stop bit")
)

// ErrorType classifies errors for retry decisions.
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away on retry.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on retry.
	ErrorTypeTransient
	// ErrorTypeTimeout errors are timeouts, usually retryable.
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError wraps an error raised while talking to the adapter.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError. Timeout and transient errors
// are marked retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewFrameCorruptedError creates a retryable frame corruption error.
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewDataTooLargeError creates a permanent error for oversized payloads.
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

var transientErrors = []error{
	ErrTransportRead,
	ErrTransportWrite,
	ErrCommunicationFailed,
	ErrNoACK,
	ErrFrameCorrupted,
	ErrChecksumMismatch,
	ErrDeviceBusy,
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	return GetErrorType(err) != ErrorTypePermanent
}

// GetErrorType returns the classification of err. Unknown errors are
// permanent.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	if errors.Is(err, ErrTransportTimeout) {
		return ErrorTypeTimeout
	}
	for _, e := range transientErrors {
		if errors.Is(err, e) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypePermanent
}

// ParityKind tells row parity from column parity.
type ParityKind int

const (
	RowParity ParityKind = iota
	ColumnParity
)

func (k ParityKind) String() string {
	if k == ColumnParity {
		return "column"
	}
	return "row"
}

// ParityError reports a parity bit that does not match its data.
type ParityError struct {
	Kind  ParityKind
	Index int
}

func (e *ParityError) Error() string {
	return fmt.Sprintf("em410x: %s parity mismatch at %d", e.Kind, e.Index)
}
