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
	"fmt"
	"strings"
)

// EM410x frame layout.
const (
	HeaderBits   = 9
	RowCount     = 10
	RowDataBits  = 4
	rowBits      = RowDataBits + 1
	ColumnBits   = RowDataBits
	FrameBits    = HeaderBits + RowCount*rowBits + ColumnBits + 1
	payloadStart = HeaderBits
	columnStart  = payloadStart + RowCount*rowBits
	stopIndex    = FrameBits - 1
)

// Bit is a single logical bit or sample, always 0 or 1.
type Bit = uint8

// Frame is the 60-bit logical EM410x frame: nine header ones, ten groups of
// four data bits followed by their row parity, four column parity bits and a
// zero stop bit.
type Frame [FrameBits]Bit

// Encode builds the logical frame for id. Bits above the low 40 are ignored:
// only ten nibbles are ever extracted, so wider values are truncated.
func Encode(id ID) Frame {
	var f Frame
	for i := 0; i < HeaderBits; i++ {
		f[i] = 1
	}

	var column [ColumnBits]Bit
	pos := payloadStart
	for row := 0; row < RowCount; row++ {
		nibble := uint64(id) >> (4 * (RowCount - 1 - row)) & 0xf

		var parity Bit
		for j := 0; j < RowDataBits; j++ {
			b := Bit(nibble >> (RowDataBits - 1 - j) & 1)
			f[pos] = b
			pos++
			parity ^= b
			column[j] ^= b
		}
		f[pos] = parity
		pos++
	}

	copy(f[columnStart:], column[:])
	f[stopIndex] = 0
	return f
}

// Decode checks the header, every parity bit and the stop bit of f and
// returns the identifier it carries.
func Decode(f Frame) (ID, error) {
	for i := 0; i < HeaderBits; i++ {
		if f[i] != 1 {
			return 0, fmt.Errorf("%w: bit %d is %d", ErrInvalidHeader, i, f[i])
		}
	}

	var id uint64
	var column [ColumnBits]Bit
	for row := 0; row < RowCount; row++ {
		data, parity := f.Group(row)
		var sum Bit
		for j, b := range data {
			id = id<<1 | uint64(b&1)
			sum ^= b
			column[j] ^= b
		}
		if sum != parity {
			return 0, &ParityError{Kind: RowParity, Index: row}
		}
	}

	got := f.ColumnParity()
	for j := range column {
		if column[j] != got[j] {
			return 0, &ParityError{Kind: ColumnParity, Index: j}
		}
	}

	if f[stopIndex] != 0 {
		return 0, ErrInvalidStopBit
	}
	return ID(id), nil
}

// Header returns the nine preamble bits.
func (f *Frame) Header() [HeaderBits]Bit {
	var h [HeaderBits]Bit
	copy(h[:], f[:HeaderBits])
	return h
}

// Group returns the data bits (most significant first) and row parity of
// nibble group i, where group 0 carries the most significant nibble.
func (f *Frame) Group(i int) (data [RowDataBits]Bit, parity Bit) {
	if i < 0 || i >= RowCount {
		panic(fmt.Sprintf("em410x: group index %d out of range", i))
	}
	start := payloadStart + i*rowBits
	copy(data[:], f[start:start+RowDataBits])
	return data, f[start+RowDataBits]
}

// ColumnParity returns the four column parity bits in bit position order.
func (f *Frame) ColumnParity() [ColumnBits]Bit {
	var c [ColumnBits]Bit
	copy(c[:], f[columnStart:stopIndex])
	return c
}

// Stop returns the final bit of the frame.
func (f *Frame) Stop() Bit {
	return f[stopIndex]
}

// Bytes packs the frame MSB first into eight bytes. The last four bits are
// zero.
func (f *Frame) Bytes() []byte {
	out := make([]byte, (FrameBits+7)/8)
	for i, b := range f {
		if b != 0 {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// String renders the frame as header, groups, column parity and stop bit
// separated by spaces.
func (f *Frame) String() string {
	var sb strings.Builder
	for i, b := range f {
		switch {
		case i == payloadStart,
			i > payloadStart && i < columnStart && (i-payloadStart)%rowBits == 0,
			i == columnStart,
			i == stopIndex:
			sb.WriteByte(' ')
		}
		sb.WriteByte('0' + b)
	}
	return sb.String()
}
