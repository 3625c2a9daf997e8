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

package control

import (
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-em410x/standalone"
)

// Status is the reply of GET /status.
type Status struct {
	Mode           string `json:"mode"`
	ID             string `json:"id,omitempty"`
	LastTransition string `json:"lastTransition,omitempty"`
	Captures       uint64 `json:"captures"`
	Simulations    uint64 `json:"simulations"`
	Writes         uint64 `json:"writes"`
	Failures       uint64 `json:"failures"`
}

func newStatus(s standalone.Status) *Status {
	ret := &Status{
		Mode:        s.Mode.String(),
		Captures:    s.Captures,
		Simulations: s.Simulations,
		Writes:      s.Writes,
		Failures:    s.Failures,
	}
	if s.HasIdentifier() {
		ret.ID = s.Identifier().String()
	}
	if s.LastTransition.Name != "" {
		ret.LastTransition = s.LastTransition.String()
	}
	return ret
}

func (s *Status) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mode:        %s\n", s.Mode)
	id := s.ID
	if id == "" {
		id = "<none>"
	}
	fmt.Fprintf(&sb, "id:          %s\n", id)
	if s.LastTransition != "" {
		fmt.Fprintf(&sb, "transition:  %s\n", s.LastTransition)
	}
	fmt.Fprintf(&sb, "captures:    %d\n", s.Captures)
	fmt.Fprintf(&sb, "simulations: %d\n", s.Simulations)
	fmt.Fprintf(&sb, "writes:      %d\n", s.Writes)
	fmt.Fprintf(&sb, "failures:    %d", s.Failures)
	return sb.String()
}

// Dump is the JSON reply of GET /dump.
type Dump struct {
	IDs []string `json:"ids"`
}

// Frame is the JSON reply of GET /frame/{id}.
type Frame struct {
	ID      string `json:"id"`
	Bits    string `json:"bits"`
	Packed  string `json:"packed"`
	Samples int    `json:"samples"`
}
