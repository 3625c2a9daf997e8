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
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	em410x "github.com/ZaparooProject/go-em410x"
)

var adapterSettings = []setting{
	configSetting,
	{key: "adapter.port", flag: "port", short: "p", def: "", help: "serial port of the LF adapter; probed when empty"},
}

func newReadCommand(v *viper.Viper) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "read [-p port] [--timeout 30s]",
		Short: "read one tag and print its identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(contextOf(cmd), timeout)
			defer cancel()

			frontend, err := openFrontend(ctx, cfg.Adapter)
			if err != nil {
				return fmt.Errorf("failed to open adapter: %w", err)
			}
			defer func() { _ = frontend.Close() }()

			log.Info("waiting for tag...")
			for {
				raw, err := frontend.Capture(ctx)
				switch {
				case errors.Is(err, context.DeadlineExceeded):
					return fmt.Errorf("no tag within %s: %w", timeout, em410x.ErrNoTag)
				case err != nil:
					return err
				case raw == 0:
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", em410x.Reorder(raw))
				return nil
			}
		},
	}

	addSettings(cmd, v, adapterSettings)
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for a tag")
	return cmd
}

func newWriteCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write [-p port] id",
		Short: "program a T55x7 card to emulate an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := em410x.ParseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			ctx := contextOf(cmd)
			frontend, err := openFrontend(ctx, cfg.Adapter)
			if err != nil {
				return fmt.Errorf("failed to open adapter: %w", err)
			}
			defer func() { _ = frontend.Close() }()

			hi, lo := em410x.CaptureOf(id).Split()
			if err := frontend.WriteT55xx(ctx, em410x.Clock, hi, lo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", id)
			return nil
		},
	}

	addSettings(cmd, v, adapterSettings)
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
