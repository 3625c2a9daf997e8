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

// Package cdev drives the panel through the Linux GPIO character device.
// The kernel debounces the button, so the classifier needs no bounce filter.
package cdev

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"

	"github.com/ZaparooProject/go-em410x/panel"
)

const consumer = "em410x"

// Config selects the chip and line offsets. LED offsets below zero are
// skipped.
type Config struct {
	Chip     string
	Button   int
	LEDs     [4]int
	Debounce time.Duration
}

// DefaultConfig returns a config for gpiochip0 with no LEDs.
func DefaultConfig() Config {
	return Config{
		Chip:     "gpiochip0",
		Button:   -1,
		LEDs:     [4]int{-1, -1, -1, -1},
		Debounce: 10 * time.Millisecond,
	}
}

// Panel is a Button and Indicator backed by GPIO character device lines.
type Panel struct {
	*panel.Classifier
	button *gpiocdev.Line
	leds   [4]*gpiocdev.Line
	mu     sync.Mutex
}

// New requests the configured lines.
func New(cfg Config) (*Panel, error) {
	if cfg.Button < 0 {
		return nil, errors.New("button line offset is required")
	}

	button, err := gpiocdev.RequestLine(cfg.Chip, cfg.Button,
		gpiocdev.AsInput,
		gpiocdev.AsActiveLow,
		gpiocdev.WithPullUp,
		gpiocdev.WithDebounce(cfg.Debounce),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request button line %s:%d: %w", cfg.Chip, cfg.Button, err)
	}

	p := &Panel{button: button}
	for i, offset := range cfg.LEDs {
		if offset < 0 {
			continue
		}
		line, err := gpiocdev.RequestLine(cfg.Chip, offset,
			gpiocdev.AsOutput(0),
			gpiocdev.WithConsumer(consumer))
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to request %s line %s:%d: %w", panel.LED(i), cfg.Chip, offset, err)
		}
		p.leds[i] = line
	}

	c := panel.NewClassifier(func() (bool, error) {
		v, err := p.button.Value()
		return v == 1, err
	})
	c.MinPress = 0
	p.Classifier = c
	return p, nil
}

// Set implements panel.Indicator.
func (p *Panel) Set(led panel.LED, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(led, on)
}

// Show implements panel.Indicator.
func (p *Panel) Show(led panel.LED) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.leds {
		p.set(panel.LED(i), panel.LED(i) == led)
	}
}

// Off implements panel.Indicator.
func (p *Panel) Off() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.leds {
		p.set(panel.LED(i), false)
	}
}

func (p *Panel) set(led panel.LED, on bool) {
	if led < 0 || int(led) >= len(p.leds) || p.leds[led] == nil {
		return
	}
	v := 0
	if on {
		v = 1
	}
	if err := p.leds[led].SetValue(v); err != nil {
		log.WithError(err).WithField("led", led).Warn("failed to drive LED")
	}
}

// Close switches the LEDs off and releases the lines.
func (p *Panel) Close() error {
	p.Off()
	var errs []error
	for i, l := range p.leds {
		if l == nil {
			continue
		}
		errs = append(errs, l.Close())
		p.leds[i] = nil
	}
	if p.button != nil {
		errs = append(errs, p.button.Close())
		p.button = nil
	}
	return errors.Join(errs...)
}

var _ interface {
	panel.Button
	panel.Indicator
} = (*Panel)(nil)
