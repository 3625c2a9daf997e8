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

/*
Package em410x implements the EM410x low-frequency (125 kHz) tag format and
the pieces of a standalone read, simulate and write mode built on it.

An EM410x tag repeatedly transmits a 40-bit identifier in a 60-bit frame:
nine header 1s, ten groups of four data bits each followed by an even row
parity bit, four even column parity bits and a 0 stop bit. The frame is
Manchester coded on the air; Expand turns it into the antenna sample buffer
a frontend replays.

Features:
  - Frame encoding and decoding with parity checks
  - Biphase sample expansion at any even clock (Clock = 64 at 125 kHz)
  - Reordering of adapter captures into transmission order
  - A Frontend interface with a retry wrapper for T55x7 writes
  - Error classification shared by all transports

Basic Usage:

	import (
	    em410x "github.com/ZaparooProject/go-em410x"
	    "github.com/ZaparooProject/go-em410x/standalone"
	    "github.com/ZaparooProject/go-em410x/transport/uart"
	)

	frontend, err := uart.New(ctx, "/dev/ttyACM0", uart.DefaultConfig())
	if err != nil {
	    log.Fatal(err)
	}
	defer frontend.Close()

	machine, err := standalone.NewMachine(frontend,
	    standalone.WithButton(button),
	    standalone.WithIndicator(leds),
	)
	if err != nil {
	    log.Fatal(err)
	}
	err = machine.Run(ctx)

Encoding an identifier by hand:

	f := em410x.Encode(0x0123456789)
	samples := em410x.Expand(f, em410x.Clock) // 3840 samples

Error Handling:

Transport errors wrap sentinel errors and carry a retry classification:

	if em410x.IsRetryable(err) {
	    // try again
	}

Thread Safety:

The codec functions are pure. A Frontend is used by one goroutine at a time.
*/
package em410x
