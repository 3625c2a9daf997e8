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
	"encoding/binary"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/internal/frame"
)

// BuildAdapterFrame wraps an adapter response in a complete frame.
func BuildAdapterFrame(cmd byte, payload []byte) []byte {
	data := append([]byte{frame.AdapterToHost, cmd}, payload...)
	dataLen := byte(len(data))
	frm := []byte{frame.Preamble, frame.StartCode1, frame.StartCode2, dataLen, frame.CalculateLengthChecksum(dataLen)}
	frm = append(frm, data...)
	return append(frm, ^frame.CalculateChecksum(data)+1, frame.Postamble)
}

// BuildStatusResponse creates a response payload carrying only a status.
func BuildStatusResponse(status byte) []byte {
	return []byte{status}
}

// BuildCaptureResponse creates a successful capture response payload.
func BuildCaptureResponse(raw em410x.RawCapture) []byte {
	resp := make([]byte, 9)
	resp[0] = frame.StatusOK
	binary.BigEndian.PutUint64(resp[1:], uint64(raw))
	return resp
}

// BuildNoTagResponse creates a capture response for an empty field.
func BuildNoTagResponse() []byte {
	return BuildStatusResponse(frame.StatusNoTag)
}
