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
	"fmt"

	"github.com/ZaparooProject/go-em410x/panel"
)

// Mode is the operating mode of the standalone machine.
type Mode int

const (
	// ModeRead watches for a tag and stores its identifier.
	ModeRead Mode = iota
	// ModeSimulate replays the stored identifier.
	ModeSimulate
	// ModeWrite copies the stored identifier to a T55x7 card on button hold.
	ModeWrite
	modeCount
)

// Next returns the mode a click switches to: Read, Simulate, Write, Read.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeSimulate:
		return "simulate"
	case ModeWrite:
		return "write"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// LED returns the indicator lit while in the mode.
func (m Mode) LED() panel.LED {
	return panel.LED(m)
}

// TransitionName identifies why the mode changed.
type TransitionName string

const (
	// TransitionClick is the operator cycling modes with a single click.
	TransitionClick TransitionName = "click"
	// TransitionCaptured follows every finished read: Read to Simulate.
	TransitionCaptured TransitionName = "captured"
	// TransitionNoData sends Simulate back to Read when nothing was captured.
	TransitionNoData TransitionName = "no-data"
)

// Transition is a mode change.
type Transition struct {
	Name TransitionName
	From Mode
	To   Mode
}

func (t Transition) String() string {
	return fmt.Sprintf("%s: %s -> %s", t.Name, t.From, t.To)
}
