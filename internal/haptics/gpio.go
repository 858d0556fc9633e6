// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package haptics

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// Pulse lengths for the vibration motor. Error is a double buzz.
var pulseDurations = map[cue.Kind][]time.Duration{
	cue.ImpactLight: {40 * time.Millisecond},
	cue.ImpactHeavy: {120 * time.Millisecond},
	cue.Error:       {60 * time.Millisecond, 60 * time.Millisecond, 60 * time.Millisecond},
}

// Motor drives a vibration motor through a GPIO pin. Trigger never blocks;
// the pin is released from a timer goroutine. A trigger that arrives while
// a pulse is still running is dropped.
type Motor struct {
	pin gpio.PinOut
	log *slog.Logger

	// after schedules f once d has elapsed
	after func(d time.Duration, f func())

	mu     sync.Mutex
	busy   bool
	closed bool
}

// OpenMotor initialises the periph host and looks up the named pin
// (e.g. "GPIO18").
func OpenMotor(name string) (*Motor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return NewMotor(p)
}

// NewMotor drives the motor on p. The pin is set low.
func NewMotor(p gpio.PinOut) (*Motor, error) {
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio %s: %w", p, err)
	}
	return &Motor{
		pin:   p,
		log:   log.With("component", "haptics", "pin", p.String()),
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}, nil
}

func (m *Motor) Trigger(k cue.Kind) {
	steps, ok := pulseDurations[k]
	if !ok {
		m.log.Warn("unknown haptic kind", "kind", k)
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.busy {
		m.mu.Unlock()
		m.log.Debug("motor busy, trigger dropped", "kind", k)
		return
	}
	m.busy = true
	m.mu.Unlock()

	m.run(steps, gpio.High)
}

// run sets the pin to level for steps[0], then flips it for the rest.
// A pattern still running when the motor is closed stops where it is.
func (m *Motor) run(steps []time.Duration, level gpio.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if len(steps) == 0 {
		m.setLocked(gpio.Low)
		m.busy = false
		return
	}
	m.setLocked(level)
	m.after(steps[0], func() { m.run(steps[1:], !level) })
}

// setLocked writes the pin; m.mu must be held.
func (m *Motor) setLocked(l gpio.Level) {
	if err := m.pin.Out(l); err != nil {
		m.log.Error("gpio write failed", "error", err)
	}
}

// Prepare is a no-op; the motor has no warm-up.
func (m *Motor) Prepare(cue.Kind) {}

// Close leaves the pin low. Later triggers and pending pulse steps do
// nothing.
func (m *Motor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.busy = false
	return m.pin.Out(gpio.Low)
}
