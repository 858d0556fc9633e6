// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package beacon runs one guidance session: it points a wand at the
// bearing from the user to a fixed location and lets the cue policy
// render the result.
package beacon

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
	"github.com/relabs-tech/haptic_beacon/internal/log"
	"github.com/relabs-tech/haptic_beacon/internal/wand"
)

// ErrNotStarted is returned by UpdateUser before Start.
var ErrNotStarted = errors.New("beacon: not started")

// Beacon owns a wand and its cue policy. Like them, it is not safe for
// concurrent use; drive it from a single goroutine.
type Beacon struct {
	cfg      Config
	location geo.Point
	deps     cue.Deps

	policy *cue.Policy
	wand   *wand.Wand
	log    *slog.Logger

	session string
	active  bool
	user    geo.Point
	target  wand.Target
	started time.Time
}

// Status is a point-in-time view of the session.
type Status struct {
	Session  string           `json:"session,omitempty"`
	Active   bool             `json:"active"`
	Location geo.Point        `json:"location"`
	User     *geo.Point       `json:"user,omitempty"`
	Bearing  *float64         `json:"bearing,omitempty"`
	Distance *float64         `json:"distance_m,omitempty"`
	Window   float64          `json:"window"`
	Heading  *heading.Heading `json:"heading,omitempty"`
	Focused  bool             `json:"focused"`
	Offset   *float64         `json:"offset,omitempty"`
	Volume   float64          `json:"volume"`
	Flat     bool             `json:"flat"`
	Playing  bool             `json:"playing"`
	Since    *time.Time       `json:"since,omitempty"`
}

// New builds a beacon at location. deps are handed to the cue policy.
func New(cfg Config, location geo.Point, deps cue.Deps) (*Beacon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := location.Validate(); err != nil {
		return nil, fmt.Errorf("beacon location: %w", err)
	}
	sound := cue.Sound{Asset: cfg.Asset, Location: location, Localized: true}
	p, err := cue.NewPolicy(cfg.Cue, sound, deps)
	if err != nil {
		return nil, err
	}
	return &Beacon{
		cfg:      cfg,
		location: location,
		deps:     deps,
		policy:   p,
		wand:     wand.New(cfg.Wand, p),
		log:      log.With("component", "beacon"),
	}, nil
}

// Observe forwards policy events to fn.
func (b *Beacon) Observe(fn cue.Observer) { b.policy.Observe(fn) }

// Location returns the beacon position.
func (b *Beacon) Location() geo.Point { return b.location }

// Active reports whether a session is running.
func (b *Beacon) Active() bool { return b.active }

// Session returns the current session id, or "" when idle.
func (b *Beacon) Session() string { return b.session }

// Target returns the tracked target.
func (b *Beacon) Target() (wand.Target, bool) { return b.target, b.active }

// Start opens a session for a user at the given position.
func (b *Beacon) Start(user geo.Point) error {
	if b.active {
		return wand.ErrAlreadyStarted
	}
	t, err := b.targetFor(user)
	if err != nil {
		return err
	}

	b.policy.Start()
	if err := b.wand.Start([]wand.Target{t}, b.deps.Headings); err != nil {
		b.policy.Stop()
		return fmt.Errorf("start wand: %w", err)
	}

	b.active = true
	b.session = uuid.NewString()
	b.user = user
	b.target = t
	b.started = b.deps.Clock.Now()
	b.log.Info("session started", "session", b.session, "user", user, "target", t)
	return nil
}

// Stop ends the session. No cue is emitted after Stop returns.
func (b *Beacon) Stop() {
	if !b.active {
		return
	}
	b.wand.Stop()
	b.policy.Stop()
	b.log.Info("session stopped", "session", b.session, "duration", b.deps.Clock.Now().Sub(b.started))
	b.active = false
	b.session = ""
	b.target = wand.Target{}
}

// UpdateUser records a new user position. If the bearing to the beacon
// moved by more than the retarget threshold, the wand is restarted on the
// new bearing and true is returned. Audio keeps playing across a
// retarget.
func (b *Beacon) UpdateUser(user geo.Point) (bool, error) {
	if !b.active {
		return false, ErrNotStarted
	}
	t, err := b.targetFor(user)
	if err != nil {
		return false, err
	}
	b.user = user
	if angle.Distance(t.Bearing(), b.target.Bearing()) <= b.cfg.RetargetDegrees {
		return false, nil
	}

	b.wand.Stop()
	if err := b.wand.Start([]wand.Target{t}, b.deps.Headings); err != nil {
		return false, fmt.Errorf("restart wand: %w", err)
	}
	b.log.Info("retargeted", "session", b.session, "from", b.target, "to", t)
	b.target = t
	return true, nil
}

// Status returns a snapshot of the session.
func (b *Beacon) Status() Status {
	s := Status{
		Active:   b.active,
		Location: b.location,
		Window:   b.cfg.Window(),
		Flat:     b.deps.Flat.IsFlat(),
		Playing:  b.policy.Playing(),
	}
	if h, ok := b.deps.Headings.Current(); ok {
		s.Heading = &h
		s.Volume = b.policy.Level(h)
		if off, ok := b.wand.AngleFromCurrentTarget(h.Value); ok {
			s.Offset = &off
		}
	}
	if !b.active {
		return s
	}

	user := b.user
	bearing := b.target.Bearing()
	dist := math.Round(geo.Distance(user, b.location)*10) / 10
	s.Session = b.session
	s.User = &user
	s.Bearing = &bearing
	s.Distance = &dist

	focus := b.policy.Focus()
	s.Focused = focus.Focused
	if focus.Focused {
		since := focus.Since
		s.Since = &since
	}
	return s
}

func (b *Beacon) targetFor(user geo.Point) (wand.Target, error) {
	if err := user.Validate(); err != nil {
		return wand.Target{}, fmt.Errorf("user position: %w", err)
	}
	return b.cfg.target(geo.Bearing(user, b.location))
}
