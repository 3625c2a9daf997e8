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

package config

import (
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/go-em410x/store"
)

// Normalize applies post-validation normalization. It must be called only
// after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Panel.Backend = strings.ToLower(strings.TrimSpace(cfg.Panel.Backend))
	if cfg.Panel.Backend == "" {
		cfg.Panel.Backend = PanelNone
	}
	for i := range cfg.Panel.LEDs {
		cfg.Panel.LEDs[i] = strings.TrimSpace(cfg.Panel.LEDs[i])
	}

	if cfg.Store.Name == "" {
		cfg.Store.Name = store.DefaultName
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "."
	}
	cfg.Store.Dir = filepath.Clean(cfg.Store.Dir)
}
