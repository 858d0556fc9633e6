// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cue

import "time"

// EventType names what happened.
type EventType string

const (
	EventGainedFocus      EventType = "gained_focus"
	EventLostFocus        EventType = "lost_focus"
	EventCrossedThreshold EventType = "crossed_threshold"
	EventLongFocus        EventType = "long_focus"
	EventCue              EventType = "cue"
	EventFlatChanged      EventType = "flat_changed"
	EventAudioStarted     EventType = "audio_started"
	EventAudioStopped     EventType = "audio_stopped"
)

// Event is published to observers for every policy transition and every
// emitted haptic cue. It is also the wire format on the status topic.
type Event struct {
	Type    EventType `json:"type"`
	Time    time.Time `json:"time"`
	Bearing float64   `json:"bearing,omitempty"`
	Initial bool      `json:"initial,omitempty"`
	Kind    *Kind     `json:"kind,omitempty"`
	Flat    bool      `json:"flat"`
	Player  PlayerID  `json:"player,omitempty"`
}

// Observer receives policy events on the policy's goroutine.
type Observer func(Event)
