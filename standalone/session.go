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

package standalone

import (
	em410x "github.com/ZaparooProject/go-em410x"
)

// Session is the state owned by the control loop: the mode, the last
// capture and the sample buffer that is rewritten on every replay.
type Session struct {
	Samples     em410x.SampleBuffer
	Raw         em410x.RawCapture
	Mode        Mode
	SampleCount int
}

// NewSession starts in read mode with a buffer sized for samplesPerBit.
func NewSession(samplesPerBit int) *Session {
	return &Session{
		Mode:    ModeRead,
		Samples: make(em410x.SampleBuffer, em410x.FrameBits*samplesPerBit),
	}
}

// HasIdentifier reports whether anything was captured yet.
func (s *Session) HasIdentifier() bool {
	return s.Raw != 0
}

// Identifier returns the captured identifier in transmission order.
func (s *Session) Identifier() em410x.ID {
	return em410x.Reorder(s.Raw)
}

// Prepare encodes the captured identifier into the sample buffer and returns
// the filled part.
func (s *Session) Prepare(samplesPerBit int) em410x.SampleBuffer {
	f := em410x.Encode(s.Identifier())
	s.SampleCount = em410x.ExpandInto(s.Samples, f, samplesPerBit)
	return s.Samples[:s.SampleCount]
}
