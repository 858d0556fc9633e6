// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package clock provides the periodic timer capability used by the cue
// policy, backed either by real tickers or by a manually advanced clock.
package clock

import (
	"sync"
	"time"
)

// Timer identifies a scheduled periodic callback.
type Timer uint64

// Clock schedules periodic callbacks.
//
// After Cancel returns the callback is never invoked again, even if a tick
// was already due.
type Clock interface {
	Now() time.Time
	SchedulePeriodic(interval time.Duration, fn func()) Timer
	Cancel(t Timer)
}

// PostFunc hands a function to the goroutine that owns the caller's state.
// It reports false if the function was dropped.
type PostFunc func(fn func()) bool

// Real is a Clock built on time.Ticker. Ticks are delivered through post so
// they run on the same goroutine as heading samples.
type Real struct {
	post PostFunc

	mu     sync.Mutex
	nextID Timer
	timers map[Timer]chan struct{}
}

// NewReal returns a Clock delivering ticks through post. A nil post runs
// callbacks on the ticker goroutine.
func NewReal(post PostFunc) *Real {
	if post == nil {
		post = func(fn func()) bool { fn(); return true }
	}
	return &Real{
		post:   post,
		timers: make(map[Timer]chan struct{}),
	}
}

// Now returns the wall clock time.
func (r *Real) Now() time.Time { return time.Now() }

// SchedulePeriodic calls fn every interval until cancelled.
func (r *Real) SchedulePeriodic(interval time.Duration, fn func()) Timer {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	stop := make(chan struct{})
	r.timers[id] = stop
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.post(func() {
					if r.active(id) {
						fn()
					}
				})
			}
		}
	}()
	return id
}

// Cancel stops a timer. Unknown or already cancelled timers are ignored.
func (r *Real) Cancel(t Timer) {
	r.mu.Lock()
	stop, ok := r.timers[t]
	delete(r.timers, t)
	r.mu.Unlock()
	if ok {
		close(stop)
	}
}

// Active returns the number of running timers.
func (r *Real) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *Real) active(t Timer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[t]
	return ok
}
