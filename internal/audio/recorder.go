// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package audio

import (
	"sync"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
)

// Recorder is an in-memory sink for tests.
type Recorder struct {
	*mixer

	mu      sync.Mutex
	plays   []cue.Sound
	stops   []cue.PlayerID
	levels  []Level
	current map[cue.PlayerID]float64
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{current: make(map[cue.PlayerID]float64)}
	r.mixer = newMixer(func(lv Level) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.levels = append(r.levels, lv)
		r.current[lv.Player] = lv.Volume
	})
	return r
}

func (r *Recorder) Play(s cue.Sound, src heading.Provider, level cue.LevelFunc) cue.PlayerID {
	r.mu.Lock()
	r.plays = append(r.plays, s)
	r.mu.Unlock()
	return r.play(newPlayerID(), s, src, level)
}

func (r *Recorder) Stop(id cue.PlayerID) {
	if _, ok := r.stop(id); !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, id)
	delete(r.current, id)
}

// Plays returns how many times Play was called.
func (r *Recorder) Plays() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plays)
}

// Stops returns how many live players were stopped.
func (r *Recorder) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stops)
}

// Playing returns the number of live players.
func (r *Recorder) Playing() int { return r.playing() }

// Volume returns the last level of a live player.
func (r *Recorder) Volume(id cue.PlayerID) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.current[id]
	return v, ok
}

// Levels returns every level update so far.
func (r *Recorder) Levels() []Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Level(nil), r.levels...)
}
