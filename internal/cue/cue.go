// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cue decides when to pulse the haptic motor and how loud the
// beacon's ambient audio should be, based on wand focus events.
package cue

import (
	"fmt"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
)

// Kind is a haptic texture.
type Kind int

const (
	ImpactLight Kind = iota
	ImpactHeavy
	// Error is the distinct texture used for threshold crossings.
	Error
)

var kindNames = map[Kind]string{
	ImpactLight: "impact_light",
	ImpactHeavy: "impact_heavy",
	Error:       "error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("cue: unknown kind %q", b)
}

// Request is one haptic trigger, fire and forget.
type Request struct {
	Kind Kind      `json:"kind"`
	Time time.Time `json:"time"`
}

// HapticSink renders haptic textures.
type HapticSink interface {
	Trigger(k Kind)
	// Prepare warms the engine for the next trigger of k. Best effort.
	Prepare(k Kind)
}

// PlayerID identifies a playing sound. The empty id means nothing plays.
type PlayerID string

// Sound describes the beacon's ambient audio.
type Sound struct {
	Asset     string    `json:"asset"`
	Location  geo.Point `json:"location"`
	Localized bool      `json:"localized"`
}

// LevelFunc returns the volume in [0, 1] for a heading sample.
type LevelFunc func(h heading.Heading) float64

// AudioSink plays ambient audio whose level follows the heading.
type AudioSink interface {
	// Play starts s; the sink evaluates level on every sample from src.
	Play(s Sound, src heading.Provider, level LevelFunc) PlayerID
	Stop(id PlayerID)
}
