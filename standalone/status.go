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

import em410x "github.com/ZaparooProject/go-em410x"

// Status is a snapshot of the machine for observers.
type Status struct {
	LastTransition Transition
	Raw            em410x.RawCapture
	Captures       uint64
	Simulations    uint64
	Writes         uint64
	Failures       uint64
	Mode           Mode
}

// HasIdentifier reports whether anything was captured yet.
func (s Status) HasIdentifier() bool {
	return s.Raw != 0
}

// Identifier returns the captured identifier in transmission order.
func (s Status) Identifier() em410x.ID {
	return em410x.Reorder(s.Raw)
}

// Status returns a snapshot that is safe to take from any goroutine.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
