// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion turns device orientation into the "phone is flat" signal
// that gates haptic cues.
package motion

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription identifies a change callback registered with OnChange.
type Subscription string

// FlatSignal reports whether the device is held flat and notifies changes.
type FlatSignal interface {
	IsFlat() bool
	// OnChange registers fn, called with the new value on every change.
	OnChange(fn func(flat bool)) Subscription
	Cancel(sub Subscription)
}

type listener struct {
	id Subscription
	fn func(bool)
}

// Gate is a settable FlatSignal.
type Gate struct {
	mu        sync.Mutex
	flat      bool
	listeners []listener
}

// NewGate returns a gate with the given initial value.
func NewGate(flat bool) *Gate {
	return &Gate{flat: flat}
}

// IsFlat returns the current value.
func (g *Gate) IsFlat() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.flat
}

// Set updates the value and notifies listeners if it changed. Listeners
// run on the caller's goroutine after the lock is released.
func (g *Gate) Set(flat bool) {
	g.mu.Lock()
	if g.flat == flat {
		g.mu.Unlock()
		return
	}
	g.flat = flat
	ls := append([]listener(nil), g.listeners...)
	g.mu.Unlock()

	for _, l := range ls {
		l.fn(flat)
	}
}

// OnChange registers fn for future changes.
func (g *Gate) OnChange(fn func(flat bool)) Subscription {
	id := Subscription(uuid.NewString())
	g.mu.Lock()
	g.listeners = append(g.listeners, listener{id: id, fn: fn})
	g.mu.Unlock()
	return id
}

// Cancel removes a listener. Unknown subscriptions are ignored.
func (g *Gate) Cancel(sub Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, l := range g.listeners {
		if l.id == sub {
			g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
			return
		}
	}
}

// Listeners returns the number of registered callbacks.
func (g *Gate) Listeners() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.listeners)
}
