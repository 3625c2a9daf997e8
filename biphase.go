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

import "fmt"

const (
	// Clock is the number of samples per bit period for 125 kHz operation.
	Clock = 64
	// SampleBufferLen is the size of a sample buffer expanded at Clock.
	SampleBufferLen = FrameBits * Clock
)

// SampleBuffer holds one sample per carrier period, each 0 or 1.
type SampleBuffer []Bit

// Expand returns the biphase waveform for f: every bit becomes
// samplesPerBit/2 samples at its own level followed by samplesPerBit/2
// samples at the complementary level, so each bit period carries exactly one
// mid-period transition.
//
// samplesPerBit must be even and positive.
func Expand(f Frame, samplesPerBit int) SampleBuffer {
	checkSamplesPerBit(samplesPerBit)
	buf := make(SampleBuffer, FrameBits*samplesPerBit)
	ExpandInto(buf, f, samplesPerBit)
	return buf
}

// ExpandInto writes the waveform for f into dst and returns the number of
// samples written, always FrameBits*samplesPerBit. dst must be at least that
// long; this is a capacity precondition and a short buffer panics.
func ExpandInto(dst []Bit, f Frame, samplesPerBit int) int {
	checkSamplesPerBit(samplesPerBit)
	n := FrameBits * samplesPerBit
	if len(dst) < n {
		panic(fmt.Sprintf("em410x: sample buffer holds %d samples, need %d", len(dst), n))
	}

	half := samplesPerBit / 2
	pos := 0
	for _, b := range f {
		fill(dst[pos:pos+half], b)
		pos += half
		fill(dst[pos:pos+half], b^1)
		pos += half
	}
	return pos
}

func fill(dst []Bit, b Bit) {
	for i := range dst {
		dst[i] = b
	}
}

func checkSamplesPerBit(samplesPerBit int) {
	if samplesPerBit <= 0 || samplesPerBit%2 != 0 {
		panic(fmt.Sprintf("em410x: samples per bit must be even and positive, got %d", samplesPerBit))
	}
}

// PackSamples packs samples MSB first, eight per byte. A trailing partial
// byte is zero padded.
func PackSamples(samples []Bit) []byte {
	out := make([]byte, (len(samples)+7)/8)
	for i, s := range samples {
		if s != 0 {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}
