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
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// IDBits is the width of an EM410x identifier.
	IDBits = 40
	// IDBytes is the size of a stored identifier record.
	IDBytes = IDBits / 8
	// IDMask selects the meaningful bits of an ID.
	IDMask = 1<<IDBits - 1

	nibbleCount    = 16
	capturePadBits = 24
)

// RawCapture is a 64-bit scratch value as delivered by the capture front end.
// The identifier occupies the low 40 bits with its nibbles in reverse
// transmission order; the upper 24 bits are padding.
type RawCapture uint64

// Payload returns the low 40 bits of the capture. This is the value the front
// end reports, the store records and the T55x7 writer receives.
func (r RawCapture) Payload() ID {
	return ID(uint64(r) & IDMask)
}

// Split returns the high and low 32-bit halves of the capture.
func (r RawCapture) Split() (hi, lo uint32) {
	return uint32(uint64(r) >> 32), uint32(uint64(r) & 0xffffffff)
}

// ID is a 40-bit EM410x identifier. Only the low 40 bits are meaningful.
type ID uint64

// Valid reports whether the upper 24 bits of the ID are clear.
func (id ID) Valid() bool {
	return id&^IDMask == 0
}

// Split returns the high and low 32-bit halves of the value.
func (id ID) Split() (hi, lo uint32) {
	return uint32(uint64(id) >> 32), uint32(uint64(id) & 0xffffffff)
}

// Bytes returns the big-endian record layout used by the store.
func (id ID) Bytes() [IDBytes]byte {
	var b [IDBytes]byte
	for i := 0; i < IDBytes; i++ {
		b[IDBytes-1-i] = byte(uint64(id) >> (8 * i))
	}
	return b
}

// String formats the ID as ten upper-case hex digits.
func (id ID) String() string {
	return fmt.Sprintf("%010X", uint64(id&IDMask))
}

// IDFromBytes decodes a 5-byte big-endian record.
func IDFromBytes(b []byte) (ID, error) {
	if len(b) != IDBytes {
		return 0, fmt.Errorf("%w: identifier record must be %d bytes, got %d",
			ErrInvalidParameter, IDBytes, len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return ID(v), nil
}

// ParseID parses a hex identifier such as "0123456789" or "01:23:45:67:89".
func ParseID(s string) (ID, error) {
	clean := strings.NewReplacer(":", "", " ", "", "-", "").Replace(strings.TrimSpace(s))
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	if clean == "" || len(clean) > IDBytes*2 {
		return 0, fmt.Errorf("%w: identifier %q must be 1 to %d hex digits",
			ErrInvalidParameter, s, IDBytes*2)
	}
	if len(clean)%2 == 1 {
		clean = "0" + clean
	}
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: identifier %q: %w", ErrInvalidParameter, s, err)
	}
	var v uint64
	for _, c := range raw {
		v = v<<8 | uint64(c)
	}
	return ID(v), nil
}

// ReverseNibbles reverses the order of the sixteen nibbles of v. It is its own
// inverse.
func ReverseNibbles(v uint64) uint64 {
	var result uint64
	for i := 0; i < nibbleCount; i++ {
		result |= ((v >> (60 - 4*i)) & 0xf) << (4 * i)
	}
	return result
}

// Reorder converts a raw capture into an identifier in transmission order.
// The nibbles are reversed end to end and the padding, which the reversal
// moves to the bottom 24 bits, is shifted out.
func Reorder(raw RawCapture) ID {
	return ID(ReverseNibbles(uint64(raw)) >> capturePadBits)
}

// CaptureOf is the inverse of Reorder for valid identifiers: it places id in
// the capture layout with zero padding.
func CaptureOf(id ID) RawCapture {
	return RawCapture(ReverseNibbles(uint64(id&IDMask) << capturePadBits))
}
