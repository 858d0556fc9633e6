// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
)

// ErrInvalidHeading is returned by Publish for NaN or infinite values.
var ErrInvalidHeading = errors.New("heading: non-finite value")

type subscriber struct {
	id Subscription
	fn Handler
}

// Feed is an in-memory Provider fed by Publish.
//
// It accepts samples only from the sources it was created with. The order
// of those sources is a preference: a sample from a lower priority source
// is forwarded only while no higher priority source has produced a fresh
// sample.
type Feed struct {
	// StaleAfter bounds how long a higher priority sample shadows lower
	// priority ones. Zero means forever.
	StaleAfter time.Duration

	// Now is the feed's clock; nil means time.Now.
	Now func() time.Time

	mu    sync.Mutex
	order []Source
	last  map[Source]Heading
	subs  []subscriber
}

// NewFeed creates a feed accepting the given sources in order of
// preference. With no arguments it accepts SourceDevice only.
func NewFeed(order ...Source) *Feed {
	if len(order) == 0 {
		order = []Source{SourceDevice}
	}
	return &Feed{
		order: append([]Source(nil), order...),
		last:  make(map[Source]Heading),
	}
}

// Publish records h and forwards it to subscribers. Samples from sources
// the feed does not accept are ignored.
func (f *Feed) Publish(h Heading) error {
	if !angle.IsFinite(h.Value) {
		return fmt.Errorf("%w: %v from %s", ErrInvalidHeading, h.Value, h.Source)
	}
	h.Value = angle.Normalize(h.Value)
	if h.Time.IsZero() {
		h.Time = f.now()
	}

	f.mu.Lock()
	rank := f.rank(h.Source)
	if rank < 0 {
		f.mu.Unlock()
		return nil
	}
	f.last[h.Source] = h
	shadowed := f.shadowedLocked(rank, h.Time)
	subs := append([]subscriber(nil), f.subs...)
	f.mu.Unlock()

	if shadowed {
		return nil
	}
	for _, s := range subs {
		s.fn(h)
	}
	return nil
}

// Current returns the freshest sample of the most preferred source.
func (f *Feed) Current() (Heading, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for i, src := range f.order {
		h, ok := f.last[src]
		if !ok {
			continue
		}
		if i < len(f.order)-1 && f.StaleAfter > 0 && now.Sub(h.Time) > f.StaleAfter {
			continue
		}
		return h, true
	}
	return Heading{}, false
}

// Subscribe registers fn for future samples.
func (f *Feed) Subscribe(fn Handler) Subscription {
	id := Subscription(uuid.NewString())
	f.mu.Lock()
	f.subs = append(f.subs, subscriber{id: id, fn: fn})
	f.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (f *Feed) Unsubscribe(sub Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s.id == sub {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of registered handlers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Feed) rank(src Source) int {
	for i, s := range f.order {
		if s == src {
			return i
		}
	}
	return -1
}

// shadowedLocked reports whether a sample of the given rank taken at t is
// hidden by a fresher sample from a more preferred source.
func (f *Feed) shadowedLocked(rank int, t time.Time) bool {
	for _, src := range f.order[:rank] {
		h, ok := f.last[src]
		if !ok {
			continue
		}
		if f.StaleAfter == 0 || t.Sub(h.Time) <= f.StaleAfter {
			return true
		}
	}
	return false
}
