// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package haptics provides cue.HapticSink implementations: a vibration
// motor on a GPIO pin, an MQTT publisher for remote wearables, and a few
// helpers for logging, fan-out and tests.
package haptics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// Multi fans every request out to each sink in order.
type Multi []cue.HapticSink

func (m Multi) Trigger(k cue.Kind) {
	for _, s := range m {
		s.Trigger(k)
	}
}

func (m Multi) Prepare(k cue.Kind) {
	for _, s := range m {
		s.Prepare(k)
	}
}

// Log writes each trigger to the structured log.
type Log struct {
	l *slog.Logger
}

// NewLog returns a sink that logs at debug level.
func NewLog() *Log {
	return &Log{l: log.With("component", "haptics")}
}

func (s *Log) Trigger(k cue.Kind) { s.l.Debug("haptic trigger", "kind", k) }
func (s *Log) Prepare(cue.Kind)   {}

// Recorder keeps every request. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	now      func() time.Time
	requests []cue.Request
	prepared []cue.Kind
}

// NewRecorder stamps requests with now, or time.Now when nil.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

func (r *Recorder) Trigger(k cue.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, cue.Request{Kind: k, Time: r.now()})
}

func (r *Recorder) Prepare(k cue.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared = append(r.prepared, k)
}

// Requests returns a copy of the triggered requests.
func (r *Recorder) Requests() []cue.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cue.Request(nil), r.requests...)
}

// Kinds returns the triggered kinds in order.
func (r *Recorder) Kinds() []cue.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cue.Kind, len(r.requests))
	for i, req := range r.requests {
		out[i] = req.Kind
	}
	return out
}

// Count returns how many requests of kind k were triggered.
func (r *Recorder) Count(k cue.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, req := range r.requests {
		if req.Kind == k {
			n++
		}
	}
	return n
}

// Prepared returns the kinds passed to Prepare.
func (r *Recorder) Prepared() []cue.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cue.Kind(nil), r.prepared...)
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = nil
	r.prepared = nil
}
