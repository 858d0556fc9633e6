// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package audio

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
)

var beaconSound = cue.Sound{Asset: "beacon.wav", Location: geo.Point{Lat: 47.37, Lon: 8.54}, Localized: true}

// fadeAway is loud at 0° and silent from 90° on.
func fadeAway(h heading.Heading) float64 {
	if h.Value >= 90 {
		return 0
	}
	return 1 - h.Value/90
}

func publish(t *testing.T, f *heading.Feed, v float64) {
	t.Helper()
	require.NoError(t, f.Publish(heading.Heading{Value: v, Source: heading.SourceDevice}))
}

func TestRecorderFollowsHeading(t *testing.T) {
	feed := heading.NewFeed()
	publish(t, feed, 0)

	r := NewRecorder()
	id := r.Play(beaconSound, feed, fadeAway)
	require.NotEmpty(t, id)
	require.Equal(t, 1, feed.Subscribers())

	v, ok := r.Volume(id)
	require.True(t, ok)
	require.Equal(t, 1.0, v)

	publish(t, feed, 45)
	v, _ = r.Volume(id)
	require.InDelta(t, 0.5, v, 1e-9)

	// unchanged levels are not repeated
	publish(t, feed, 45)
	require.Len(t, r.Levels(), 2)

	r.Stop(id)
	require.Equal(t, 0, feed.Subscribers())
	require.Equal(t, 0, r.Playing())
	publish(t, feed, 0)
	require.Len(t, r.Levels(), 2)

	// unknown and repeated stops are ignored
	r.Stop(id)
	r.Stop("nope")
	require.Equal(t, 1, r.Stops())
}

func TestRecorderWithoutInitialHeading(t *testing.T) {
	feed := heading.NewFeed()
	r := NewRecorder()
	id := r.Play(beaconSound, feed, fadeAway)

	_, ok := r.Volume(id)
	require.False(t, ok)
	publish(t, feed, 80)
	v, ok := r.Volume(id)
	require.True(t, ok)
	require.InDelta(t, 1.0/9, v, 1e-9)
}

func TestLogSink(t *testing.T) {
	feed := heading.NewFeed()
	s := NewLog()
	id := s.Play(beaconSound, feed, fadeAway)
	require.Equal(t, 1, s.Playing())
	publish(t, feed, 10)
	s.Stop(id)
	require.Equal(t, 0, s.Playing())
	require.Equal(t, 0, feed.Subscribers())
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type message struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, message{topic: topic, payload: payload.([]byte)})
	return doneToken{}
}

func TestRemotePublishesControlAndLevels(t *testing.T) {
	feed := heading.NewFeed()
	publish(t, feed, 0)
	pub := &fakePublisher{}
	r := NewRemote(pub, "beacon/audio", "beacon/audio/level")

	id := r.Play(beaconSound, feed, fadeAway)
	publish(t, feed, 30)
	r.Stop(id)

	require.Len(t, pub.msgs, 4)
	require.Equal(t, "beacon/audio", pub.msgs[0].topic)
	var play Control
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &play))
	require.Equal(t, "play", play.Action)
	require.Equal(t, id, play.Player)
	require.Equal(t, beaconSound.Asset, play.Sound.Asset)

	require.Equal(t, "beacon/audio/level", pub.msgs[1].topic)
	var lv Level
	require.NoError(t, json.Unmarshal(pub.msgs[2].payload, &lv))
	require.Equal(t, 0.67, lv.Volume)

	var stop Control
	require.NoError(t, json.Unmarshal(pub.msgs[3].payload, &stop))
	require.Equal(t, "stop", stop.Action)
	require.Nil(t, stop.Sound)
}
