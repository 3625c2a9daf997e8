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
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/control"
	"github.com/ZaparooProject/go-em410x/detection"
	"github.com/ZaparooProject/go-em410x/internal/config"
	"github.com/ZaparooProject/go-em410x/panel"
	"github.com/ZaparooProject/go-em410x/panel/cdev"
	"github.com/ZaparooProject/go-em410x/panel/periph"
	"github.com/ZaparooProject/go-em410x/standalone"
	"github.com/ZaparooProject/go-em410x/store"
	"github.com/ZaparooProject/go-em410x/transport/uart"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [-c config.yaml] [-p port] [--panel backend] [-a address]",
		Short: "run the standalone read / simulate / write mode",
		Long: `Run the standalone mode: the adapter reads a tag, replays it, and
copies it to a T55x7 card when the button is held in write mode. A click
cycles the mode. Flags override the config file; every flag can also be
given as an environment variable, shown in parenthesis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return serve(contextOf(cmd), cfg)
		},
	}

	addSettings(cmd, v, append([]setting{configSetting}, serveSettings...))
	return cmd
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type panelDevice struct {
	button    panel.Button
	indicator panel.Indicator
	closer    io.Closer
}

func openPanel(cfg config.PanelConfig) (*panelDevice, error) {
	switch cfg.Backend {
	case config.PanelPeriph:
		p, err := periph.New(periph.Pins{Button: cfg.Button, LEDs: cfg.PinNames()})
		if err != nil {
			return nil, err
		}
		p.HoldThreshold = cfg.HoldThreshold
		return &panelDevice{button: p, indicator: p, closer: p}, nil

	case config.PanelCdev:
		button, leds, err := cfg.LineOffsets()
		if err != nil {
			return nil, err
		}
		p, err := cdev.New(cdev.Config{Chip: cfg.Chip, Button: button, LEDs: leds, Debounce: cfg.Debounce})
		if err != nil {
			return nil, err
		}
		p.HoldThreshold = cfg.HoldThreshold
		return &panelDevice{button: p, indicator: p, closer: p}, nil

	default:
		log.Warn("no panel configured, mode changes only on read completion")
		return &panelDevice{button: panel.Nop{}, indicator: panel.Nop{}, closer: nopCloser{}}, nil
	}
}

func openFrontend(ctx context.Context, cfg config.AdapterConfig) (em410x.Frontend, error) {
	uartCfg := uart.Config{
		BaudRate:     cfg.BaudRate,
		AckTimeout:   cfg.AckTimeout,
		WriteTimeout: cfg.WriteTimeout,
		HelloRetries: cfg.HelloRetries,
	}

	port := cfg.Port
	if port == "" {
		var err error
		port, err = detection.FindAdapter(ctx, detection.Options{
			Probe: func(ctx context.Context, path string) error {
				t, err := uart.New(ctx, path, uartCfg)
				if err != nil {
					return err
				}
				return t.Close()
			},
		})
		if err != nil {
			return nil, err
		}
	}

	t, err := uart.New(ctx, port, uartCfg)
	if err != nil {
		return nil, err
	}

	retry := em410x.DefaultRetryConfig()
	retry.MaxAttempts = cfg.WriteRetries
	return em410x.NewFrontendWithRetry(t, retry), nil
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	frontend, err := openFrontend(ctx, cfg.Adapter)
	if err != nil {
		return fmt.Errorf("failed to open adapter: %w", err)
	}
	defer func() {
		if err := frontend.Close(); err != nil {
			log.WithError(err).Warn("failed to close adapter")
		}
	}()

	pd, err := openPanel(cfg.Panel)
	if err != nil {
		return fmt.Errorf("failed to open panel: %w", err)
	}
	defer func() {
		if err := pd.closer.Close(); err != nil {
			log.WithError(err).Warn("failed to close panel")
		}
	}()

	opts := []standalone.Option{
		standalone.WithConfig(&standalone.Config{
			Debounce:      cfg.Standalone.Debounce,
			IdleInterval:  standalone.DefaultConfig().IdleInterval,
			SamplesPerBit: cfg.Standalone.SamplesPerBit,
			Simulate: em410x.SimulateOptions{
				Invert:        cfg.Standalone.Invert,
				ExternalClock: cfg.Standalone.ExternalClock,
			},
		}),
		standalone.WithButton(pd.button),
		standalone.WithIndicator(pd.indicator),
	}

	var dumper control.Dumper
	if cfg.Store.Enabled {
		fs := store.NewFileStore(cfg.Store.Dir, cfg.Store.Name)
		log.WithField("path", fs.Path()).Info("persisting captured identifiers")
		opts = append(opts, standalone.WithStore(fs))
		dumper = fs
	}

	machine, err := standalone.NewMachine(frontend, opts...)
	if err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := machine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("standalone mode stopped with error: %v", err)
		}
	}()

	var api control.APIServer
	if cfg.API.Enabled {
		api = control.NewAPIServer(cfg.API.Address, machine, dumper)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.Serve(); err != nil {
				log.Errorf("API server closed with error: %v", err)
			} else {
				log.Info("API server stopped")
			}
		}()
	}

	return waitForShutdown(func() {
		if api != nil {
			if err := api.Stop(); err != nil {
				log.WithError(err).Warn("failed to stop API server")
			}
		}
		cancel()
		wg.Wait()
	})
}

// waitForShutdown blocks until the first SIGINT or SIGTERM has run stop to
// completion. A third signal exits at once.
func waitForShutdown(stop func()) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	sigCount := 0

	for {
		select {
		case sig := <-sigs:
			log.WithField("signal", sig).Info("signal received")
			sigCount++

			switch sigCount {
			case 1:
				go func() {
					log.Info("shutting down, hit Ctrl-C twice to force exit...")
					stop()
					log.Info("em410x stopped")
					close(done)
				}()
			case 2:
				log.Warn("shutdown in progress, hit Ctrl-C again to force exit")
			default:
				log.Warn("forcing exit")
				os.Exit(1)
			}

		case <-done:
			return nil
		}
	}
}
