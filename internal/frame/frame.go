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

package frame

import (
	"bytes"
	"errors"
)

var (
	// ErrIncomplete means more bytes are needed before a frame can be parsed.
	ErrIncomplete = errors.New("incomplete frame")
	// ErrLengthChecksum means LEN + LCS did not sum to zero.
	ErrLengthChecksum = errors.New("length checksum mismatch")
	// ErrDataChecksum means the frame data did not sum to zero with DCS.
	ErrDataChecksum = errors.New("data checksum mismatch")
	// ErrUnexpectedTFI means the frame was not sent by the adapter.
	ErrUnexpectedTFI = errors.New("unexpected frame identifier")
	// ErrFrameTooShort means the frame carries no command byte.
	ErrFrameTooShort = errors.New("frame too short")
	// ErrPayloadTooLarge means a payload does not fit a normal frame.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Response is a frame received from the adapter.
type Response struct {
	Payload []byte
	Cmd     byte
	Ack     bool
	Nack    bool
}

// Status returns the leading status byte of the payload, or StatusFailed for
// an empty payload.
func (r *Response) Status() byte {
	if len(r.Payload) == 0 {
		return StatusFailed
	}
	return r.Payload[0]
}

// CalculateChecksum returns the byte sum of data.
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ValidateChecksum reports whether data, including its trailing checksum,
// fails to sum to zero and should therefore be NACKed.
func ValidateChecksum(data []byte) bool {
	return CalculateChecksum(data) != 0
}

// CalculateDataChecksum returns the DCS for a frame with the given TFI.
func CalculateDataChecksum(tfi byte, data []byte) byte {
	return ^(tfi + CalculateChecksum(data)) + 1
}

// CalculateLengthChecksum returns the LCS for length.
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// Build assembles a host frame for cmd carrying payload.
func Build(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, ErrPayloadTooLarge
	}
	dataLen := byte(2 + len(payload))

	frm := make([]byte, 0, headerLength+int(dataLen)+2)
	frm = append(frm, Preamble, StartCode1, StartCode2, dataLen, CalculateLengthChecksum(dataLen))
	frm = append(frm, HostToAdapter, cmd)
	frm = append(frm, payload...)
	frm = append(frm, CalculateDataChecksum(HostToAdapter, append([]byte{cmd}, payload...)), Postamble)
	return frm, nil
}

// Parse extracts the first frame from buf. It returns the frame and the
// number of bytes consumed. With ErrIncomplete nothing is consumed; with a
// checksum error the bytes up to the start code are consumed so that the
// caller can resynchronise.
func Parse(buf []byte) (*Response, int, error) {
	start := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if start < 0 {
		return nil, 0, ErrIncomplete
	}
	rest := buf[start+2:]
	if len(rest) < 2 {
		return nil, 0, ErrIncomplete
	}

	length, lcs := rest[0], rest[1]
	switch {
	case length == 0x00 && lcs == 0xFF:
		return &Response{Ack: true}, start + 4 + postambleLen(rest[2:]), nil
	case length == 0xFF && lcs == 0x00:
		return &Response{Nack: true}, start + 4 + postambleLen(rest[2:]), nil
	case length+lcs != 0:
		return nil, start + 2, ErrLengthChecksum
	case length < 2:
		return nil, start + 4, ErrFrameTooShort
	}

	need := 2 + int(length) + 1
	if len(rest) < need {
		return nil, 0, ErrIncomplete
	}

	data := rest[2 : 2+int(length)]
	dcs := rest[2+int(length)]
	consumed := start + 2 + need + postambleLen(rest[need:])

	if CalculateChecksum(data)+dcs != 0 {
		return nil, consumed, ErrDataChecksum
	}
	if data[0] != AdapterToHost {
		return nil, consumed, ErrUnexpectedTFI
	}

	return &Response{
		Cmd:     data[1],
		Payload: append([]byte(nil), data[2:]...),
	}, consumed, nil
}

func postambleLen(rest []byte) int {
	if len(rest) > 0 && rest[0] == Postamble {
		return 1
	}
	return 0
}
