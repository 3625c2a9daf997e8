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
	"context"
	"sync"

	em410x "github.com/ZaparooProject/go-em410x"
)

// VirtualTag is a simulated EM410x tag in front of the antenna.
type VirtualTag struct {
	ID      em410x.ID
	mu      sync.Mutex
	present bool
}

// NewVirtualTag creates a present tag carrying id.
func NewVirtualTag(id em410x.ID) *VirtualTag {
	return &VirtualTag{ID: id, present: true}
}

// Raw returns what a frontend captures from the tag.
func (v *VirtualTag) Raw() em410x.RawCapture {
	return em410x.CaptureOf(v.ID)
}

// Remove takes the tag out of the field.
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = false
}

// Insert puts the tag back in the field.
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = true
}

// Present reports whether the tag is in the field.
func (v *VirtualTag) Present() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.present
}

// Capture reads the tag the way an antenna would: at once when present,
// otherwise not until ctx is done.
func (v *VirtualTag) Capture(ctx context.Context) (em410x.RawCapture, error) {
	if v.Present() {
		return v.Raw(), nil
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

// NewTagFrontend returns a mock frontend whose antenna sees tag.
func NewTagFrontend(tag *VirtualTag) *em410x.MockFrontend {
	m := em410x.NewMockFrontend()
	m.CaptureFunc = tag.Capture
	return m
}

// VirtualT55xx is a writable card that records what was programmed.
type VirtualT55xx struct {
	mu      sync.Mutex
	written []em410x.RawCapture
}

// Program stores the identifier halves the way a T55x7 block write would.
func (c *VirtualT55xx) Program(hi, lo uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, em410x.RawCapture(uint64(hi)<<32|uint64(lo)))
}

// Written returns every programmed value in order.
func (c *VirtualT55xx) Written() []em410x.RawCapture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]em410x.RawCapture(nil), c.written...)
}

// Reader returns a tag that answers with the last programmed value. It is
// nil when nothing was written.
func (c *VirtualT55xx) Reader() *VirtualTag {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.written) == 0 {
		return nil
	}
	return NewVirtualTag(em410x.Reorder(c.written[len(c.written)-1]))
}
