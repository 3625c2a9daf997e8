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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ZaparooProject/go-em410x/internal/config"
)

// setting binds a flag to a config key. The key is also read from the
// environment as EM410X_<KEY> with dots replaced by underscores.
type setting struct {
	key   string
	flag  string
	short string
	help  string
	def   any
}

var serveSettings = []setting{
	{key: "adapter.port", flag: "port", short: "p", def: "", help: "serial port of the LF adapter; probed when empty"},
	{key: "adapter.baud_rate", flag: "baud", def: 0, help: "serial baud rate"},
	{key: "panel.backend", flag: "panel", def: "", help: "panel backend: none, periph or cdev"},
	{key: "panel.button", flag: "button", def: "", help: "button pin name (periph) or line offset (cdev)"},
	{key: "store.dir", flag: "store-dir", def: "", help: "directory of the identifier store"},
	{key: "api.address", flag: "api", short: "a", def: "", help: "listen address of the status API; enables the API"},
}

// configSetting names the YAML config file.
var configSetting = setting{key: "config", flag: "config", short: "c", def: "", help: "YAML config file"}

// addSettings defines the flags on cmd. They are bound to v only when cmd
// runs, since several commands share keys.
func addSettings(cmd *cobra.Command, v *viper.Viper, settings []setting) {
	flags := cmd.Flags()
	for _, s := range settings {
		help := fmt.Sprintf("%s (%s)", s.help, envName(s.key))
		switch def := s.def.(type) {
		case int:
			flags.IntP(s.flag, s.short, def, help)
		case bool:
			flags.BoolP(s.flag, s.short, def, help)
		default:
			flags.StringP(s.flag, s.short, fmt.Sprint(def), help)
		}
	}
	cmd.PreRunE = func(*cobra.Command, []string) error {
		return bindSettings(flags, v, settings)
	}
}

func bindSettings(flags *pflag.FlagSet, v *viper.Viper, settings []setting) error {
	for _, s := range settings {
		if err := v.BindPFlag(s.key, flags.Lookup(s.flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", s.flag, err)
		}
		if err := v.BindEnv(s.key); err != nil {
			return fmt.Errorf("bind %s: %w", envName(s.key), err)
		}
	}
	return nil
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(key))
}

// loadConfig reads the config file named by the config key, if any, and
// layers flags and environment on top.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if s := v.GetString("adapter.port"); s != "" {
		cfg.Adapter.Port = s
	}
	if n := v.GetInt("adapter.baud_rate"); n > 0 {
		cfg.Adapter.BaudRate = n
	}
	if s := v.GetString("panel.backend"); s != "" {
		cfg.Panel.Backend = s
	}
	if s := v.GetString("panel.button"); s != "" {
		cfg.Panel.Button = s
	}
	if s := v.GetString("store.dir"); s != "" {
		cfg.Store.Dir = s
	}
	if s := v.GetString("api.address"); s != "" {
		cfg.API.Address = s
		cfg.API.Enabled = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}
