// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package audio provides cue.AudioSink implementations. A sink owns one
// heading subscription per playing sound and re-evaluates the level on
// every sample.
package audio

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// Level is one volume update for a playing sound.
type Level struct {
	Player  cue.PlayerID    `json:"player"`
	Volume  float64         `json:"volume"`
	Heading heading.Heading `json:"heading"`
}

// player tracks one playing sound.
type player struct {
	sound cue.Sound
	src   heading.Provider
	sub   heading.Subscription
	last  float64
}

// mixer holds the bookkeeping shared by the sinks below.
type mixer struct {
	mu      sync.Mutex
	players map[cue.PlayerID]*player
	onLevel func(Level)
}

func newMixer(onLevel func(Level)) *mixer {
	return &mixer{players: make(map[cue.PlayerID]*player), onLevel: onLevel}
}

func newPlayerID() cue.PlayerID {
	return cue.PlayerID(uuid.NewString())
}

func (m *mixer) play(id cue.PlayerID, s cue.Sound, src heading.Provider, level cue.LevelFunc) cue.PlayerID {
	p := &player{sound: s, src: src, last: -1}

	m.mu.Lock()
	m.players[id] = p
	m.mu.Unlock()

	p.sub = src.Subscribe(func(h heading.Heading) {
		v := level(h)
		m.mu.Lock()
		_, live := m.players[id]
		changed := v != p.last
		p.last = v
		m.mu.Unlock()
		if live && changed {
			m.onLevel(Level{Player: id, Volume: v, Heading: h})
		}
	})
	if h, ok := src.Current(); ok {
		v := level(h)
		m.mu.Lock()
		p.last = v
		m.mu.Unlock()
		m.onLevel(Level{Player: id, Volume: v, Heading: h})
	}
	return id
}

// stop returns false for unknown ids.
func (m *mixer) stop(id cue.PlayerID) (cue.Sound, bool) {
	m.mu.Lock()
	p, ok := m.players[id]
	delete(m.players, id)
	m.mu.Unlock()
	if !ok {
		return cue.Sound{}, false
	}
	p.src.Unsubscribe(p.sub)
	return p.sound, true
}

func (m *mixer) playing() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// Log plays nothing and logs level changes at debug level.
type Log struct {
	*mixer
	l *slog.Logger
}

// NewLog returns a logging sink.
func NewLog() *Log {
	s := &Log{l: log.With("component", "audio")}
	s.mixer = newMixer(func(lv Level) {
		s.l.Debug("volume", "player", lv.Player, "volume", lv.Volume, "heading", lv.Heading.Value)
	})
	return s
}

func (s *Log) Play(snd cue.Sound, src heading.Provider, level cue.LevelFunc) cue.PlayerID {
	id := s.play(newPlayerID(), snd, src, level)
	s.l.Info("audio started", "player", id, "asset", snd.Asset)
	return id
}

func (s *Log) Stop(id cue.PlayerID) {
	if _, ok := s.stop(id); ok {
		s.l.Info("audio stopped", "player", id)
	}
}

// Playing returns the number of live players.
func (s *Log) Playing() int { return s.playing() }
