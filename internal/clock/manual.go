// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package clock

import (
	"sort"
	"time"
)

type manualTimer struct {
	id       Timer
	interval time.Duration
	next     time.Time
	fn       func()
}

// Manual is a Clock that only moves when Advance is called. Callbacks run
// synchronously inside Advance, in due-time order.
type Manual struct {
	now    time.Time
	nextID Timer
	timers map[Timer]*manualTimer
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, timers: make(map[Timer]*manualTimer)}
}

// Now returns the current simulated time.
func (m *Manual) Now() time.Time { return m.now }

// SchedulePeriodic registers fn to fire every interval from now.
func (m *Manual) SchedulePeriodic(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		interval = time.Millisecond
	}
	m.nextID++
	id := m.nextID
	m.timers[id] = &manualTimer{id: id, interval: interval, next: m.now.Add(interval), fn: fn}
	return id
}

// Cancel removes a timer.
func (m *Manual) Cancel(t Timer) {
	delete(m.timers, t)
}

// Active returns the number of scheduled timers.
func (m *Manual) Active() int { return len(m.timers) }

// Advance moves time forward by d and fires every tick that falls due.
// A callback may cancel or schedule timers; cancelled timers stop firing
// immediately.
func (m *Manual) Advance(d time.Duration) {
	end := m.now.Add(d)
	for {
		t := m.earliest()
		if t == nil || t.next.After(end) {
			break
		}
		m.now = t.next
		t.next = t.next.Add(t.interval)
		t.fn()
	}
	m.now = end
}

func (m *Manual) earliest() *manualTimer {
	due := make([]*manualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		due = append(due, t)
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].id < due[j].id
		}
		return due[i].next.Before(due[j].next)
	})
	return due[0]
}
