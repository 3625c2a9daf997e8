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

const (
	HostToAdapter = 0xD4 // Commands from host to adapter
	AdapterToHost = 0xD5 // Responses from adapter to host
)

const (
	Preamble   = 0x00 // Frame preamble byte
	StartCode1 = 0x00 // Start code byte 1
	StartCode2 = 0xFF // Start code byte 2
	Postamble  = 0x00 // Frame postamble byte
)

const (
	MaxFrameDataLength = 255 // LEN is a single byte and covers TFI + CMD + payload
	MaxPayloadLength   = MaxFrameDataLength - 2
	MinFrameLength     = 6 // preamble + startcode + len + lcs + tfi + dcs
	headerLength       = 5 // preamble + startcode + len + lcs
)

// Adapter commands.
const (
	CmdCapture       = 0x10
	CmdUploadSamples = 0x11
	CmdSimulate      = 0x12
	CmdWriteT55xx    = 0x13
	CmdAbort         = 0x14
	CmdHello         = 0x15
)

// Status bytes leading a response payload.
const (
	StatusOK      = 0x00
	StatusNoTag   = 0x01
	StatusBusy    = 0x02
	StatusFailed  = 0x03
	StatusAborted = 0x04
)

// Simulate flags.
const (
	FlagInvert        = 0x01
	FlagExternalClock = 0x02
)

var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)
