// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/haptic_beacon/internal/audio"
	"github.com/relabs-tech/haptic_beacon/internal/beacon"
	"github.com/relabs-tech/haptic_beacon/internal/clock"
	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/gps"
	"github.com/relabs-tech/haptic_beacon/internal/haptics"
	"github.com/relabs-tech/haptic_beacon/internal/orientation"
	"github.com/relabs-tech/haptic_beacon/internal/runloop"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type fakePublisher struct {
	mu   sync.Mutex
	msgs map[string][][]byte
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.msgs == nil {
		p.msgs = map[string][][]byte{}
	}
	p.msgs[topic] = append(p.msgs[topic], payload.([]byte))
	return doneToken{}
}

func (p *fakePublisher) events(t *testing.T, topic string) []cue.Event {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []cue.Event
	for _, b := range p.msgs[topic] {
		var e cue.Event
		require.NoError(t, json.Unmarshal(b, &e))
		out = append(out, e)
	}
	return out
}

func (p *fakePublisher) lastStatus(t *testing.T, topic string) beacon.Status {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.msgs[topic]
	require.NotEmpty(t, msgs)
	var s beacon.Status
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1], &s))
	return s
}

type serviceFixture struct {
	cfg     *config.Config
	clock   *clock.Manual
	haptics *haptics.Recorder
	audio   *audio.Recorder
	pub     *fakePublisher
	svc     *Service
}

// beacon at the origin; the user stands 1 km south so the bearing is 0°
var southOfBeacon = gps.Fix{Latitude: -0.009, Longitude: 0, Validity: "A"}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	f := &serviceFixture{
		cfg:   cfg,
		clock: clock.NewManual(time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)),
		audio: audio.NewRecorder(),
		pub:   &fakePublisher{},
	}
	f.haptics = haptics.NewRecorder(f.clock.Now)
	f.svc, err = NewService(cfg, ServiceDeps{
		Clock:     f.clock,
		Haptics:   f.haptics,
		Audio:     f.audio,
		Publisher: f.pub,
	})
	require.NoError(t, err)
	return f
}

var flatNorth = orientation.Pose{Roll: 2, Pitch: -1, Yaw: 0}

func TestServiceStartsOnFirstFix(t *testing.T) {
	f := newServiceFixture(t)

	f.svc.HandlePose(flatNorth)
	require.True(t, f.svc.Gate().IsFlat())
	require.False(t, f.svc.Beacon().Active())

	f.svc.HandleFix(gps.Fix{Latitude: -0.009, Validity: "V"})
	require.False(t, f.svc.Beacon().Active())

	f.svc.HandleFix(southOfBeacon)
	require.True(t, f.svc.Beacon().Active())
	require.True(t, f.svc.Beacon().Status().Focused)
	require.Equal(t, 1, f.audio.Plays())

	f.clock.Advance(time.Second)
	require.Equal(t, 2, f.haptics.Count(cue.ImpactHeavy))

	types := map[cue.EventType]int{}
	for _, e := range f.pub.events(t, f.cfg.TopicEvents) {
		types[e.Type]++
	}
	require.Equal(t, 1, types[cue.EventAudioStarted])
	require.Equal(t, 1, types[cue.EventGainedFocus])
	require.Equal(t, 2, types[cue.EventCue])
}

func TestServiceLiftingSilencesPulses(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.HandlePose(flatNorth)
	f.svc.HandleFix(southOfBeacon)

	f.svc.HandlePose(orientation.Pose{Pitch: 60, Yaw: 0})
	require.False(t, f.svc.Gate().IsFlat())
	require.Equal(t, 1, f.audio.Stops())

	f.clock.Advance(2 * time.Second)
	require.Empty(t, f.haptics.Kinds())
	require.True(t, f.svc.Beacon().Status().Focused)
}

func TestServiceCommands(t *testing.T) {
	f := newServiceFixture(t)

	require.ErrorIs(t, f.svc.HandleCommand(Command{Action: "start"}), ErrNoPosition)
	require.Error(t, f.svc.HandleCommand(Command{Action: "dance"}))

	user := geo.Point{Lat: 0, Lon: -0.009}
	require.NoError(t, f.svc.HandleCommand(Command{Action: "start", User: &user}))
	tgt, ok := f.svc.Beacon().Target()
	require.True(t, ok)
	require.InDelta(t, 90, tgt.Bearing(), 1e-6)

	require.NoError(t, f.svc.HandleCommand(Command{Action: "stop"}))
	require.False(t, f.svc.Beacon().Active())
	require.False(t, f.pub.lastStatus(t, f.cfg.TopicStatus).Active)

	// stopped sessions do not restart on their own
	f.svc.HandleFix(southOfBeacon)
	require.False(t, f.svc.Beacon().Active())

	require.NoError(t, f.svc.HandleCommand(Command{Action: "start"}))
	tgt, _ = f.svc.Beacon().Target()
	require.InDelta(t, 0, tgt.Bearing(), 1e-6)
}

func TestServiceCourseHeading(t *testing.T) {
	f := newServiceFixture(t)

	// walking north, no pose yet: course becomes the heading
	walking := southOfBeacon
	walking.SpeedKnots = 3
	walking.CourseDeg = 2
	f.svc.HandleFix(walking)

	h, ok := f.svc.Feed().Current()
	require.True(t, ok)
	require.Equal(t, 2.0, h.Value)
	require.True(t, f.svc.Beacon().Status().Focused)
}

func TestServiceStatusAndClose(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.StartStatus()
	f.svc.StartStatus()
	f.svc.HandlePose(flatNorth)
	f.svc.HandleFix(southOfBeacon)

	f.clock.Advance(time.Duration(f.cfg.StatusInterval) * time.Millisecond)
	st := f.pub.lastStatus(t, f.cfg.TopicStatus)
	require.True(t, st.Active)
	require.True(t, st.Focused)
	require.NotNil(t, st.Bearing)

	f.svc.Close()
	require.Equal(t, 0, f.clock.Active())
	require.False(t, f.pub.lastStatus(t, f.cfg.TopicStatus).Active)
}

func TestDispatchCommandWaitsForLoop(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.HandleFix(southOfBeacon)
	require.True(t, f.svc.Beacon().Active())

	// queue full and nobody draining it: the command fails loudly
	loop := runloop.New(1)
	require.True(t, loop.Post(func() {}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := dispatchCommand(ctx, loop, f.svc, Command{Action: "stop"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, f.svc.Beacon().Active())

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go loop.Run(runCtx)

	require.NoError(t, dispatchCommand(context.Background(), loop, f.svc, Command{Action: "stop"}))
	require.False(t, f.svc.Beacon().Active())

	err = dispatchCommand(context.Background(), loop, f.svc, Command{Action: "dance"})
	require.ErrorContains(t, err, "dance")
}
