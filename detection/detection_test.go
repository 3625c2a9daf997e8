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

package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		devicePath  string
		ignorePaths []string
		expected    bool
	}{
		{name: "empty ignore list", devicePath: "/dev/ttyUSB0", expected: false},
		{name: "empty device path", devicePath: "", ignorePaths: []string{"/dev/ttyUSB0"}, expected: false},
		{name: "exact unix path", devicePath: "/dev/ttyUSB0", ignorePaths: []string{"/dev/ttyUSB0"}, expected: true},
		{name: "windows case", devicePath: "com3", ignorePaths: []string{"COM3"}, expected: true},
		{name: "uncleaned path", devicePath: "/dev/../dev/ttyACM0", ignorePaths: []string{"/dev/ttyACM0"}, expected: true},
		{name: "different port", devicePath: "/dev/ttyUSB1", ignorePaths: []string{"", "/dev/ttyUSB0"}, expected: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsPathIgnored(tt.devicePath, tt.ignorePaths))
		})
	}
}

func TestIsBlocked(t *testing.T) {
	t.Parallel()
	assert.True(t, IsBlocked("1d50:6089", []string{"1D50:6089"}))
	assert.True(t, IsBlocked(" 0403:6001 ", []string{"0403:6001"}))
	assert.False(t, IsBlocked("", []string{""}))
	assert.False(t, IsBlocked("0403:6001", nil))
}

var testPorts = []Port{
	{Path: "/dev/ttyS0"},
	{Path: "/dev/ttyUSB0", IsUSB: true, VIDPID: "1D50:6089"},
	{Path: "/dev/ttyUSB1", IsUSB: true, VIDPID: "0403:6001"},
	{Path: "/dev/ttyACM0", IsUSB: true, VIDPID: "2E8A:000A", Product: "LF adapter"},
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	got := Candidates(testPorts, Options{Blocklist: []string{"1d50:6089"}, IgnorePaths: []string{"/dev/ttyUSB1"}})
	require.Len(t, got, 1)
	assert.Equal(t, "/dev/ttyACM0", got[0].Path)

	got = Candidates(testPorts, Options{IncludeNonUSB: true})
	assert.Len(t, got, len(testPorts))
}

func TestFindAdapter(t *testing.T) {
	t.Parallel()

	list := func() ([]Port, error) { return testPorts, nil }

	t.Run("FirstAnswering", func(t *testing.T) {
		t.Parallel()
		var probed []string
		path, err := FindAdapter(context.Background(), Options{
			List:      list,
			Blocklist: []string{"1D50:6089"},
			Probe: func(_ context.Context, path string) error {
				probed = append(probed, path)
				if path == "/dev/ttyACM0" {
					return nil
				}
				return errors.New("no answer")
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyACM0", path)
		assert.Equal(t, []string{"/dev/ttyUSB1", "/dev/ttyACM0"}, probed, "blocklisted and non-USB ports are skipped")
	})

	t.Run("NoneAnswering", func(t *testing.T) {
		t.Parallel()
		_, err := FindAdapter(context.Background(), Options{
			List:  list,
			Probe: func(context.Context, string) error { return errors.New("timeout") },
		})
		require.ErrorIs(t, err, ErrNoAdapter)
		assert.Contains(t, err.Error(), "/dev/ttyACM0: timeout")
	})

	t.Run("ListError", func(t *testing.T) {
		t.Parallel()
		_, err := FindAdapter(context.Background(), Options{
			List:  func() ([]Port, error) { return nil, errors.New("no sysfs") },
			Probe: func(context.Context, string) error { return nil },
		})
		require.Error(t, err)
	})

	t.Run("NoProbe", func(t *testing.T) {
		t.Parallel()
		_, err := FindAdapter(context.Background(), Options{List: list})
		require.Error(t, err)
	})
}
