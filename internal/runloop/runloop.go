// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package runloop serializes work from MQTT callbacks, tickers and serial
// readers onto a single goroutine, so the wand and cue policy never run
// concurrently with themselves.
package runloop

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("runloop: stopped")

// Loop runs posted functions one at a time, in posting order.
type Loop struct {
	queue   chan func()
	done    chan struct{}
	dropped atomic.Uint64
}

// New creates a loop with room for size pending functions.
func New(size int) *Loop {
	if size <= 0 {
		size = 256
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post queues fn without blocking. It returns false and drops fn if the
// queue is full or the loop has exited; a dropped heading sample is
// superseded by the next one anyway.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.queue <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many posts were rejected because the queue was full.
func (l *Loop) Dropped() uint64 { return l.dropped.Load() }

// Run executes queued functions until ctx is cancelled. Functions still
// queued at that point are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}
