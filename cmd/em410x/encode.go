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
	"fmt"

	"github.com/spf13/cobra"

	em410x "github.com/ZaparooProject/go-em410x"
)

func newEncodeCommand() *cobra.Command {
	var samples, capture bool

	cmd := &cobra.Command{
		Use:   "encode [--samples] [--capture] id",
		Short: "print the EM410x frame of an identifier",
		Long: `Print the 60-bit frame an identifier is transmitted as: header, ten
nibble groups with row parity, column parity and stop bit. With --capture
the argument is taken as a raw adapter capture and reordered first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := em410x.ParseID(args[0])
			if err != nil {
				return err
			}
			if capture {
				id = em410x.Reorder(em410x.RawCapture(id))
			}

			f := em410x.Encode(id)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:      %s\n", id)
			fmt.Fprintf(out, "frame:   %s\n", f.String())
			fmt.Fprintf(out, "packed:  %X\n", f.Bytes())
			fmt.Fprintf(out, "capture: %010X\n", uint64(em410x.CaptureOf(id)))
			if samples {
				fmt.Fprintf(out, "samples: %X\n", em410x.PackSamples(em410x.Expand(f, em410x.Clock)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&samples, "samples", "s", false, "also print the packed sample buffer")
	cmd.Flags().BoolVar(&capture, "capture", false, "treat the argument as a raw capture")
	return cmd
}
