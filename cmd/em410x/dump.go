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

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZaparooProject/go-em410x/store"
)

func newDumpCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [-c config.yaml] [--store-dir dir] [name]",
		Short: "print the identifiers of a store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			name := cfg.Store.Name
			if len(args) == 1 {
				name = args[0]
			}

			ids, err := store.NewFileStore(cfg.Store.Dir, name).ReadAll()
			if err != nil {
				return err
			}
			return store.Dump(cmd.OutOrStdout(), ids)
		},
	}

	addSettings(cmd, v, []setting{
		configSetting,
		{key: "store.dir", flag: "store-dir", def: "", help: "directory of the identifier store"},
	})
	return cmd
}
