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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func drawID(t *rapid.T) ID {
	return ID(rapid.Uint64Range(0, IDMask).Draw(t, "id"))
}

func TestReverseNibbles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   uint64
		want uint64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "lowest nibble moves to the top", in: 0x1, want: 0x1000000000000000},
		{name: "counting", in: 0x0123456789ABCDEF, want: 0xFEDCBA9876543210},
		{name: "palindrome", in: 0xA5A5A5A55A5A5A5A, want: 0xA5A5A5A55A5A5A5A},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ReverseNibbles(tt.in))
		})
	}

	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")
		if ReverseNibbles(ReverseNibbles(v)) != v {
			t.Fatalf("reversing twice changed %#x", v)
		}
	})
}

func TestReorder(t *testing.T) {
	t.Parallel()

	raw := RawCapture(0x9876543210)
	assert.Equal(t, ID(0x0123456789), Reorder(raw))
	assert.Equal(t, raw, CaptureOf(0x0123456789))
	assert.Equal(t, ID(0), Reorder(0))

	rapid.Check(t, func(t *rapid.T) {
		id := drawID(t)
		if got := Reorder(CaptureOf(id)); got != id {
			t.Fatalf("Reorder(CaptureOf(%s)) = %s", id, got)
		}
		if !Reorder(RawCapture(rapid.Uint64().Draw(t, "raw"))).Valid() {
			t.Fatalf("reordered capture exceeds %d bits", IDBits)
		}
	})
}

func TestRawCapture(t *testing.T) {
	t.Parallel()

	raw := RawCapture(0x1122334455667788)
	hi, lo := raw.Split()
	assert.Equal(t, uint32(0x11223344), hi)
	assert.Equal(t, uint32(0x55667788), lo)
	assert.Equal(t, ID(0x4455667788), raw.Payload())
}

func TestID(t *testing.T) {
	t.Parallel()

	id := ID(0x0123456789)
	assert.True(t, id.Valid())
	assert.False(t, ID(1<<IDBits).Valid())
	assert.Equal(t, "0123456789", id.String())
	assert.Equal(t, [IDBytes]byte{0x01, 0x23, 0x45, 0x67, 0x89}, id.Bytes())

	hi, lo := id.Split()
	assert.Equal(t, uint32(0x01), hi)
	assert.Equal(t, uint32(0x23456789), lo)

	back, err := IDFromBytes([]byte{0x01, 0x23, 0x45, 0x67, 0x89})
	require.NoError(t, err)
	assert.Equal(t, id, back)

	_, err = IDFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    ID
		wantErr bool
	}{
		{name: "plain", in: "0123456789", want: 0x0123456789},
		{name: "prefixed", in: "0x0123456789", want: 0x0123456789},
		{name: "colons", in: "01:23:45:67:89", want: 0x0123456789},
		{name: "spaces and dashes", in: " 01 23-45 67-89 ", want: 0x0123456789},
		{name: "short odd length", in: "abc", want: 0xABC},
		{name: "empty", in: "", wantErr: true},
		{name: "too long", in: "0123456789AB", wantErr: true},
		{name: "not hex", in: "01234567zz", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseID(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	rapid.Check(t, func(t *rapid.T) {
		id := drawID(t)
		got, err := ParseID(id.String())
		if err != nil || got != id {
			t.Fatalf("ParseID(%q) = %s, %v", id.String(), got, err)
		}
	})
}

func TestEncodeKnownIdentifier(t *testing.T) {
	t.Parallel()

	f := Encode(0x0123456789)

	for i, b := range f.Header() {
		assert.Equal(t, Bit(1), b, "header bit %d", i)
	}

	data, parity := f.Group(0)
	assert.Equal(t, [RowDataBits]Bit{0, 0, 0, 0}, data)
	assert.Equal(t, Bit(0), parity)

	data, parity = f.Group(1)
	assert.Equal(t, [RowDataBits]Bit{0, 0, 0, 1}, data)
	assert.Equal(t, Bit(1), parity)

	data, parity = f.Group(9)
	assert.Equal(t, [RowDataBits]Bit{1, 0, 0, 1}, data)
	assert.Equal(t, Bit(0), parity)

	assert.Equal(t, [ColumnBits]Bit{0, 0, 0, 1}, f.ColumnParity())
	assert.Equal(t, Bit(0), f.Stop())
	assert.Equal(t, "111111111 00000 00011 00101 00110 01001 01010 01100 01111 10001 10010 0001 0", f.String())

	samples := Expand(f, Clock)
	require.Len(t, samples, SampleBufferLen)
	assert.Equal(t, 3840, SampleBufferLen)
	for i := 0; i < Clock/2; i++ {
		assert.Equal(t, Bit(1), samples[i], "sample %d", i)
		assert.Equal(t, Bit(0), samples[Clock/2+i], "sample %d", Clock/2+i)
	}
}

func TestEncodeAllZero(t *testing.T) {
	t.Parallel()

	f := Encode(0)
	for i := 0; i < RowCount; i++ {
		data, parity := f.Group(i)
		assert.Equal(t, [RowDataBits]Bit{}, data)
		assert.Equal(t, Bit(0), parity)
	}
	assert.Equal(t, [ColumnBits]Bit{}, f.ColumnParity())
	assert.Equal(t, []byte{0xFF, 0x80, 0, 0, 0, 0, 0, 0}, f.Bytes())
}

func TestEncodeProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		id := drawID(t)
		f := Encode(id)

		for i, b := range f {
			if b > 1 {
				t.Fatalf("bit %d is %d", i, b)
			}
		}
		for i := 0; i < HeaderBits; i++ {
			if f[i] != 1 {
				t.Fatalf("header bit %d is 0", i)
			}
		}
		if f.Stop() != 0 {
			t.Fatal("stop bit is 1")
		}

		var column [ColumnBits]Bit
		var decoded uint64
		for row := 0; row < RowCount; row++ {
			data, parity := f.Group(row)
			var ones Bit
			for j, b := range data {
				ones ^= b
				column[j] ^= b
				decoded = decoded<<1 | uint64(b)
			}
			if ones != parity {
				t.Fatalf("group %d has odd parity", row)
			}
		}
		if column != f.ColumnParity() {
			t.Fatalf("column parity %v, want %v", f.ColumnParity(), column)
		}
		if ID(decoded) != id {
			t.Fatalf("payload carries %s, want %s", ID(decoded), id)
		}

		got, err := Decode(f)
		if err != nil || got != id {
			t.Fatalf("Decode(Encode(%s)) = %s, %v", id, got, err)
		}
	})
}

func TestDecodeRejectsCorruption(t *testing.T) {
	t.Parallel()

	base := Encode(0x0123456789)

	t.Run("Header", func(t *testing.T) {
		t.Parallel()
		f := base
		f[3] = 0
		_, err := Decode(f)
		require.ErrorIs(t, err, ErrInvalidHeader)
	})

	t.Run("RowParity", func(t *testing.T) {
		t.Parallel()
		f := base
		f[payloadStart+2*rowBits+RowDataBits] ^= 1
		_, err := Decode(f)
		var pe *ParityError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, RowParity, pe.Kind)
		assert.Equal(t, 2, pe.Index)
	})

	t.Run("ColumnParity", func(t *testing.T) {
		t.Parallel()
		f := base
		f[columnStart+1] ^= 1
		_, err := Decode(f)
		var pe *ParityError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, ColumnParity, pe.Kind)
		assert.Equal(t, 1, pe.Index)
		assert.Equal(t, "em410x: column parity mismatch at 1", pe.Error())
	})

	t.Run("StopBit", func(t *testing.T) {
		t.Parallel()
		f := base
		f[stopIndex] = 1
		_, err := Decode(f)
		require.ErrorIs(t, err, ErrInvalidStopBit)
	})

	t.Run("AnySingleFlip", func(t *testing.T) {
		t.Parallel()
		rapid.Check(t, func(t *rapid.T) {
			f := Encode(drawID(t))
			i := rapid.IntRange(0, FrameBits-1).Draw(t, "bit")
			f[i] ^= 1
			if _, err := Decode(f); err == nil {
				t.Fatalf("flipping bit %d went unnoticed", i)
			}
		})
	})
}

func TestGroupOutOfRange(t *testing.T) {
	t.Parallel()
	f := Encode(1)
	assert.Panics(t, func() { f.Group(RowCount) })
	assert.Panics(t, func() { f.Group(-1) })
}

func TestExpandProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		f := Encode(drawID(t))
		spb := 2 * rapid.IntRange(1, 64).Draw(t, "half")
		samples := Expand(f, spb)

		if len(samples) != FrameBits*spb {
			t.Fatalf("got %d samples, want %d", len(samples), FrameBits*spb)
		}
		half := spb / 2
		for i, b := range f {
			period := samples[i*spb : (i+1)*spb]
			for j, s := range period {
				want := b
				if j >= half {
					want = b ^ 1
				}
				if s != want {
					t.Fatalf("bit %d sample %d is %d, want %d", i, j, s, want)
				}
			}
		}
	})
}

func TestExpandInto(t *testing.T) {
	t.Parallel()

	f := Encode(0xFFFFFFFFFF)
	dst := make([]Bit, SampleBufferLen+10)
	for i := range dst {
		dst[i] = 7
	}

	n := ExpandInto(dst, f, Clock)
	assert.Equal(t, SampleBufferLen, n)
	assert.Equal(t, Expand(f, Clock), SampleBuffer(dst[:n]))
	assert.Equal(t, Bit(7), dst[n], "samples past the frame are untouched")

	assert.Panics(t, func() { ExpandInto(make([]Bit, 10), f, Clock) })
	assert.Panics(t, func() { Expand(f, 63) })
	assert.Panics(t, func() { Expand(f, 0) })
}

func TestPackSamples(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0xF0, 0x80}, PackSamples([]Bit{1, 1, 1, 1, 0, 0, 0, 0, 1}))
	assert.Empty(t, PackSamples(nil))

	packed := PackSamples(Expand(Encode(0x0123456789), Clock))
	require.Len(t, packed, SampleBufferLen/8)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}, packed[:8])
}

func TestParityKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "row", RowParity.String())
	assert.Equal(t, "column", ColumnParity.String())
}
