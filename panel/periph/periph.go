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

// Package periph drives the panel through periph.io GPIO pins.
package periph

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-em410x/panel"
)

// Pins names the GPIO pins of the panel, e.g. "GPIO17". The button is
// active low with the internal pull-up enabled. Empty LED names are skipped.
type Pins struct {
	Button string
	LEDs   [4]string
}

// Panel is a Button and Indicator backed by periph.io pins.
type Panel struct {
	*panel.Classifier
	button gpio.PinIO
	leds   [4]gpio.PinIO
	mu     sync.Mutex
}

// New initialises the periph host drivers and claims the pins.
func New(pins Pins) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	button := gpioreg.ByName(pins.Button)
	if button == nil {
		return nil, fmt.Errorf("button pin %q not found", pins.Button)
	}
	if err := button.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure button pin %s: %w", pins.Button, err)
	}

	p := &Panel{button: button}
	for i, name := range pins.LEDs {
		if name == "" {
			continue
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("%s pin %q not found", panel.LED(i), name)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("failed to configure %s pin %s: %w", panel.LED(i), name, err)
		}
		p.leds[i] = pin
	}

	p.Classifier = panel.NewClassifier(func() (bool, error) {
		return p.button.Read() == gpio.Low, nil
	})
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
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := p.leds[led].Out(level); err != nil {
		log.WithError(err).WithField("led", led).Warn("failed to drive LED")
	}
}

// Close switches the LEDs off and releases the pins.
func (p *Panel) Close() error {
	p.Off()
	for _, pin := range append([]gpio.PinIO{p.button}, p.leds[:]...) {
		if pin == nil {
			continue
		}
		if err := pin.Halt(); err != nil {
			return fmt.Errorf("failed to halt %s: %w", pin, err)
		}
	}
	return nil
}

var _ interface {
	panel.Button
	panel.Indicator
} = (*Panel)(nil)
