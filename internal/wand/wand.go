// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package wand tracks which target, if any, the device is pointed at.
//
// The Wand consumes heading samples from a heading.Provider and reports
// focus transitions to a Delegate. It holds no locks: callers must deliver
// samples, Start and Stop from a single goroutine (see runloop).
package wand

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/heading"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// State is the lifecycle state of a Wand.
type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
)

// Delegate receives focus lifecycle events. Callbacks run on the caller's
// goroutine, synchronously, while the wand is processing a sample.
type Delegate interface {
	WandDidStart(w *Wand)
	GainedFocus(w *Wand, t Target, initial bool)
	LostFocus(w *Wand, t Target)
	CrossedThreshold(w *Wand, t Target)
	LongFocus(w *Wand, t Target)
}

// SampleObserver is an optional Delegate extension. DidEvaluate runs after
// every sample the wand evaluates, once the focus callbacks for that
// sample have returned. It is not called if a callback stopped the wand.
type SampleObserver interface {
	DidEvaluate(w *Wand, h heading.Heading)
}

// Config holds wand tuning.
type Config struct {
	// LongFocusAfter is how long focus must be held, measured on sample
	// timestamps, before LongFocus fires. Zero disables it.
	LongFocusAfter time.Duration
}

// DefaultConfig returns a config with long focus disabled.
func DefaultConfig() Config {
	return Config{}
}

// Wand is the orientation tracking state machine.
type Wand struct {
	cfg      Config
	delegate Delegate
	log      *slog.Logger

	state    State
	provider heading.Provider
	sub      heading.Subscription
	targets  []Target

	current   int // index into targets, -1 when unfocused
	evaluated bool

	// per focus session
	focusedSince    time.Time
	insideThreshold bool
	thresholdArmed  bool
	longFired       bool
}

// New creates an idle wand reporting to d.
func New(cfg Config, d Delegate) *Wand {
	if d == nil {
		d = nopDelegate{}
	}
	return &Wand{
		cfg:      cfg,
		delegate: d,
		log:      log.With("component", "wand"),
		state:    StateIdle,
		current:  -1,
	}
}

// State returns the lifecycle state.
func (w *Wand) State() State { return w.state }

// Tracking reports whether the wand has been started and not stopped.
func (w *Wand) Tracking() bool { return w.state == StateTracking }

// Targets returns a copy of the tracked targets.
func (w *Wand) Targets() []Target {
	return append([]Target(nil), w.targets...)
}

// Current returns the focused target.
func (w *Wand) Current() (Target, bool) {
	if w.current < 0 {
		return Target{}, false
	}
	return w.targets[w.current], true
}

// Start begins tracking targets against headings from p. The provider's
// current heading, if any, is evaluated before Start returns.
func (w *Wand) Start(targets []Target, p heading.Provider) error {
	if w.state == StateTracking {
		return ErrAlreadyStarted
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: no targets", ErrInvalidTarget)
	}
	for i, t := range targets {
		if t.window <= 0 {
			return fmt.Errorf("%w: target %d has zero window", ErrInvalidTarget, i)
		}
	}

	w.state = StateTracking
	w.targets = append([]Target(nil), targets...)
	w.current = -1
	w.evaluated = false
	w.provider = p
	w.sub = p.Subscribe(w.onHeading)

	w.log.Debug("started", "targets", len(w.targets))
	w.delegate.WandDidStart(w)
	if w.state != StateTracking {
		return nil
	}

	if h, ok := p.Current(); ok {
		w.evaluate(h)
	}
	return nil
}

// Stop ends tracking. If a target holds focus, LostFocus is reported
// before Stop returns. Stopping an idle wand does nothing.
func (w *Wand) Stop() {
	if w.state != StateTracking {
		return
	}

	w.provider.Unsubscribe(w.sub)
	w.provider = nil
	w.sub = ""

	focused, wasFocused := w.Current()
	w.state = StateIdle
	w.current = -1
	w.targets = nil
	w.resetSession()

	if wasFocused {
		w.delegate.LostFocus(w, focused)
	}
	w.log.Debug("stopped")
}

// Update evaluates a heading sample. Samples normally arrive through the
// provider subscription; Update is for hosts that drive the wand directly.
func (w *Wand) Update(h heading.Heading) error {
	if w.state != StateTracking {
		return ErrNotStarted
	}
	w.evaluate(h)
	return nil
}

// AngleFromCurrentTarget returns the signed offset of a heading value from
// the focused target's bearing, or false when nothing is focused.
func (w *Wand) AngleFromCurrentTarget(value float64) (float64, bool) {
	t, ok := w.Current()
	if !ok {
		return 0, false
	}
	return t.Offset(value), true
}

func (w *Wand) onHeading(h heading.Heading) {
	if w.state != StateTracking {
		return
	}
	w.evaluate(h)
}

func (w *Wand) evaluate(h heading.Heading) {
	w.evaluateFocus(h)
	if w.state != StateTracking {
		return
	}
	if o, ok := w.delegate.(SampleObserver); ok {
		o.DidEvaluate(w, h)
	}
}

func (w *Wand) evaluateFocus(h heading.Heading) {
	initial := !w.evaluated
	w.evaluated = true

	if w.current >= 0 {
		t := w.targets[w.current]
		if !t.IsWithin(h.Value) {
			w.current = -1
			w.resetSession()
			w.log.Debug("lost focus", "target", t, "heading", h.Value)
			w.delegate.LostFocus(w, t)
			if w.state != StateTracking {
				return
			}
		} else {
			w.checkThreshold(t, h)
			if w.state != StateTracking {
				return
			}
			w.checkLongFocus(t, h)
			return
		}
	}

	for i, t := range w.targets {
		if !t.IsWithin(h.Value) {
			continue
		}
		w.current = i
		w.focusedSince = h.Time
		w.insideThreshold = t.IsWithinThreshold(h.Value)
		w.thresholdArmed = true
		w.longFired = false
		w.log.Debug("gained focus", "target", t, "heading", h.Value, "initial", initial)
		w.delegate.GainedFocus(w, t, initial)
		return
	}
}

func (w *Wand) checkThreshold(t Target, h heading.Heading) {
	inside := t.IsWithinThreshold(h.Value)
	crossed := inside && !w.insideThreshold && w.thresholdArmed
	w.insideThreshold = inside
	if !crossed {
		return
	}
	w.thresholdArmed = false
	w.log.Debug("crossed threshold", "target", t, "heading", h.Value)
	w.delegate.CrossedThreshold(w, t)
}

func (w *Wand) checkLongFocus(t Target, h heading.Heading) {
	if w.longFired || w.cfg.LongFocusAfter <= 0 {
		return
	}
	if h.Time.Sub(w.focusedSince) < w.cfg.LongFocusAfter {
		return
	}
	w.longFired = true
	w.log.Debug("long focus", "target", t)
	w.delegate.LongFocus(w, t)
}

func (w *Wand) resetSession() {
	w.focusedSince = time.Time{}
	w.insideThreshold = false
	w.thresholdArmed = false
	w.longFired = false
}

type nopDelegate struct{}

func (nopDelegate) WandDidStart(*Wand) {}
func (nopDelegate) GainedFocus(*Wand, Target, bool) {}
func (nopDelegate) LostFocus(*Wand, Target) {}
func (nopDelegate) CrossedThreshold(*Wand, Target) {}
func (nopDelegate) LongFocus(*Wand, Target) {}
