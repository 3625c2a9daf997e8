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

// Package detection finds the serial port of an LF adapter when none is
// configured.
package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial/enumerator"
)

// ErrNoAdapter is returned when no port answered the probe.
var ErrNoAdapter = errors.New("no LF adapter found")

// Port describes a candidate serial port.
type Port struct {
	Path         string
	VIDPID       string
	Product      string
	SerialNumber string
	IsUSB        bool
}

// Options control which ports are probed.
type Options struct {
	// Probe opens path and returns nil if an adapter answers.
	Probe func(ctx context.Context, path string) error
	// List enumerates ports; nil uses the operating system.
	List        func() ([]Port, error)
	Blocklist   []string
	IgnorePaths []string
	// IncludeNonUSB also probes built-in UARTs.
	IncludeNonUSB bool
}

// SystemPorts lists the serial ports of the host.
func SystemPorts() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]Port, 0, len(details))
	for _, d := range details {
		p := Port{
			Path:         d.Name,
			IsUSB:        d.IsUSB,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
		}
		if d.IsUSB && d.VID != "" && d.PID != "" {
			p.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// Candidates filters ports down to the ones worth probing.
func Candidates(ports []Port, opts Options) []Port {
	var out []Port
	for _, p := range ports {
		switch {
		case !p.IsUSB && !opts.IncludeNonUSB:
			continue
		case IsPathIgnored(p.Path, opts.IgnorePaths):
			log.WithField("port", p.Path).Debug("port ignored")
			continue
		case IsBlocked(p.VIDPID, opts.Blocklist):
			log.WithFields(log.Fields{"port": p.Path, "usb": p.VIDPID}).Debug("port blocklisted")
			continue
		}
		out = append(out, p)
	}
	return out
}

// FindAdapter probes the candidate ports in order and returns the first that
// answers.
func FindAdapter(ctx context.Context, opts Options) (string, error) {
	if opts.Probe == nil {
		return "", errors.New("probe function is required")
	}
	list := opts.List
	if list == nil {
		list = SystemPorts
	}
	if opts.Blocklist == nil {
		opts.Blocklist = DefaultBlocklist()
	}

	ports, err := list()
	if err != nil {
		return "", err
	}

	var errs []error
	for _, p := range Candidates(ports, opts) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		log.WithField("port", p.Path).Debug("probing for LF adapter")
		if err := opts.Probe(ctx, p.Path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Path, err))
			continue
		}
		log.WithFields(log.Fields{"port": p.Path, "product": p.Product}).Info("found LF adapter")
		return p.Path, nil
	}
	return "", errors.Join(append([]error{ErrNoAdapter}, errs...)...)
}
