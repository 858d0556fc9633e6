// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cue

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/relabs-tech/haptic_beacon/internal/clock"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
	"github.com/relabs-tech/haptic_beacon/internal/log"
	"github.com/relabs-tech/haptic_beacon/internal/motion"
	"github.com/relabs-tech/haptic_beacon/internal/wand"
)

// ErrMissingDependency is returned by NewPolicy when a collaborator is nil.
var ErrMissingDependency = errors.New("cue: missing dependency")

// Deps are the collaborators the policy drives. All are required.
type Deps struct {
	Haptics  HapticSink
	Audio    AudioSink
	Clock    clock.Clock
	Flat     motion.FlatSignal
	Headings heading.Provider
}

// Policy turns wand focus events into haptic pulses and ambient audio.
// It implements wand.Delegate and, like the wand, must be driven from a
// single goroutine.
type Policy struct {
	cfg   Config
	sound Sound
	deps  Deps
	log   *slog.Logger

	observers []Observer

	started bool
	flatSub motion.Subscription

	focus FocusState

	timer      clock.Timer
	timerArmed bool
	timerGen   uint64

	player  PlayerID
	playing bool

	// audio subscribers, fed after the wand has evaluated each sample
	subs []levelSub
}

type levelSub struct {
	id heading.Subscription
	fn heading.Handler
}

var (
	_ wand.Delegate       = (*Policy)(nil)
	_ wand.SampleObserver = (*Policy)(nil)
	_ heading.Provider    = (*Policy)(nil)
)

// NewPolicy validates cfg and deps.
func NewPolicy(cfg Config, sound Sound, deps Deps) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Haptics == nil:
		return nil, fmt.Errorf("%w: haptic sink", ErrMissingDependency)
	case deps.Audio == nil:
		return nil, fmt.Errorf("%w: audio sink", ErrMissingDependency)
	case deps.Clock == nil:
		return nil, fmt.Errorf("%w: clock", ErrMissingDependency)
	case deps.Flat == nil:
		return nil, fmt.Errorf("%w: flat signal", ErrMissingDependency)
	case deps.Headings == nil:
		return nil, fmt.Errorf("%w: heading provider", ErrMissingDependency)
	}
	return &Policy{
		cfg:   cfg,
		sound: sound,
		deps:  deps,
		log:   log.With("component", "cue"),
	}, nil
}

// Config returns the policy settings.
func (p *Policy) Config() Config { return p.cfg }

// Observe registers fn for every subsequent event.
func (p *Policy) Observe(fn Observer) {
	p.observers = append(p.observers, fn)
}

// Focus returns the current focus state.
func (p *Policy) Focus() FocusState { return p.focus }

// Playing reports whether ambient audio is playing.
func (p *Policy) Playing() bool { return p.playing }

// Pulsing reports whether the pulse timer is armed.
func (p *Policy) Pulsing() bool { return p.timerArmed }

// Level is the LevelFunc handed to the audio sink.
func (p *Policy) Level(h heading.Heading) float64 {
	return Volume(p.cfg, p.focus, h.Value)
}

// Current returns the latest heading of the underlying provider.
func (p *Policy) Current() (heading.Heading, bool) {
	return p.deps.Headings.Current()
}

// Subscribe registers fn for samples the wand has already evaluated, so a
// level computed in fn always sees the focus state for that sample. The
// audio sink is handed the policy as its provider.
func (p *Policy) Subscribe(fn heading.Handler) heading.Subscription {
	id := heading.Subscription(uuid.NewString())
	p.subs = append(p.subs, levelSub{id: id, fn: fn})
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (p *Policy) Unsubscribe(sub heading.Subscription) {
	for i, s := range p.subs {
		if s.id == sub {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

// DidEvaluate forwards the sample to the audio subscribers.
func (p *Policy) DidEvaluate(_ *wand.Wand, h heading.Heading) {
	p.forward(h)
}

// Start subscribes to the flat signal. Audio starts when the wand starts
// (if flat) or when the device becomes flat.
func (p *Policy) Start() {
	if p.started {
		return
	}
	p.started = true
	p.flatSub = p.deps.Flat.OnChange(p.onFlatChanged)
}

// Stop disarms the pulse timer, drops the flat subscription and stops the
// audio. No cue is emitted after Stop returns.
func (p *Policy) Stop() {
	if !p.started {
		return
	}
	p.started = false
	p.disarm()
	p.focus = FocusState{}
	p.deps.Flat.Cancel(p.flatSub)
	p.flatSub = ""
	p.stopAudio()
}

// WandDidStart starts the ambient audio if the device is already flat.
func (p *Policy) WandDidStart(*wand.Wand) {
	if p.started && p.deps.Flat.IsFlat() {
		p.playAudio()
	}
}

// GainedFocus arms the pulse timer.
func (p *Policy) GainedFocus(_ *wand.Wand, t wand.Target, initial bool) {
	if !p.started {
		return
	}
	p.focus = FocusState{Focused: true, Target: t, Since: p.deps.Clock.Now()}
	p.notify(Event{Type: EventGainedFocus, Bearing: t.Bearing(), Initial: initial})
	p.arm()
}

// LostFocus disarms the pulse timer. The audio level is refreshed here
// too, since a wand Stop loses focus without evaluating a sample.
func (p *Policy) LostFocus(_ *wand.Wand, t wand.Target) {
	p.disarm()
	p.focus = FocusState{}
	if p.started {
		p.notify(Event{Type: EventLostFocus, Bearing: t.Bearing()})
	}
	if h, ok := p.Current(); ok {
		p.forward(h)
	}
}

// CrossedThreshold emits an Error texture right away when flat.
func (p *Policy) CrossedThreshold(_ *wand.Wand, t wand.Target) {
	if !p.started {
		return
	}
	p.notify(Event{Type: EventCrossedThreshold, Bearing: t.Bearing()})
	if !p.deps.Flat.IsFlat() {
		return
	}
	p.emit(Error)
}

// LongFocus carries no cue; observers are told about it.
func (p *Policy) LongFocus(_ *wand.Wand, t wand.Target) {
	if !p.started {
		return
	}
	p.notify(Event{Type: EventLongFocus, Bearing: t.Bearing()})
}

func (p *Policy) arm() {
	p.disarm()
	p.timerGen++
	gen := p.timerGen
	p.timer = p.deps.Clock.SchedulePeriodic(p.cfg.PulsePeriod, func() { p.tick(gen) })
	p.timerArmed = true
}

func (p *Policy) disarm() {
	if !p.timerArmed {
		return
	}
	p.deps.Clock.Cancel(p.timer)
	p.timerArmed = false
	p.timerGen++
}

func (p *Policy) tick(gen uint64) {
	if !p.started || !p.timerArmed || gen != p.timerGen || !p.focus.Focused {
		return
	}
	if !p.deps.Flat.IsFlat() {
		return
	}
	if !p.cfg.ExtendedHaptics {
		p.emit(ImpactHeavy)
		return
	}

	// offset of the latest sample at tick time
	h, ok := p.deps.Headings.Current()
	if !ok {
		return
	}
	if kind, ok := PulseFor(p.focus.Target.Offset(h.Value)); ok {
		p.emit(kind)
	}
}

func (p *Policy) emit(k Kind) {
	p.deps.Haptics.Trigger(k)
	p.deps.Haptics.Prepare(k)
	p.notify(Event{Type: EventCue, Kind: &k})
}

func (p *Policy) onFlatChanged(flat bool) {
	if !p.started {
		return
	}
	p.notify(Event{Type: EventFlatChanged})
	if flat {
		p.playAudio()
	} else {
		p.stopAudio()
	}
}

func (p *Policy) playAudio() {
	if p.playing {
		return
	}
	id := p.deps.Audio.Play(p.sound, p, p.Level)
	if id == "" {
		p.log.Warn("audio sink did not start the beacon sound", "asset", p.sound.Asset)
		return
	}
	p.player = id
	p.playing = true
	p.notify(Event{Type: EventAudioStarted, Player: id})
}

func (p *Policy) stopAudio() {
	if !p.playing {
		return
	}
	id := p.player
	p.deps.Audio.Stop(id)
	p.player = ""
	p.playing = false
	p.notify(Event{Type: EventAudioStopped, Player: id})
}

func (p *Policy) forward(h heading.Heading) {
	for _, s := range append([]levelSub(nil), p.subs...) {
		s.fn(h)
	}
}

func (p *Policy) notify(e Event) {
	e.Time = p.deps.Clock.Now()
	e.Flat = p.deps.Flat.IsFlat()
	for _, fn := range p.observers {
		fn(e)
	}
}
