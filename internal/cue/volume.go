// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cue

import (
	"math"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
	"github.com/relabs-tech/haptic_beacon/internal/wand"
)

// Pulse bands for extended haptics, in degrees of |offset|.
const (
	heavyBand = 15.0
	lightBand = 50.0
)

// FocusState mirrors the wand's focus as seen by the policy.
type FocusState struct {
	Focused bool
	Target  wand.Target
	Since   time.Time
}

// Volume returns the ambient audio level for a heading value. It is zero
// while unfocused, full within SilentDistance of the bearing, and fades
// linearly to zero at the edge of the audio window.
func Volume(cfg Config, state FocusState, value float64) float64 {
	if !state.Focused {
		return 0
	}
	return VolumeAt(cfg, math.Abs(state.Target.Offset(value)))
}

// VolumeAt returns the level for an unsigned distance from the bearing.
func VolumeAt(cfg Config, distance float64) float64 {
	if distance < cfg.SilentDistance {
		return 1
	}
	fade := cfg.AudioWindow/2 - cfg.SilentDistance
	return 1 - angle.Clamp((distance-cfg.SilentDistance)/fade, 0, 1)
}

// PulseFor classifies a signed offset into the extended haptic bands:
// heavy within ±15°, light out to ±50°, nothing beyond.
func PulseFor(offset float64) (Kind, bool) {
	d := math.Abs(offset)
	switch {
	case d <= heavyBand:
		return ImpactHeavy, true
	case d <= lightBand:
		return ImpactLight, true
	default:
		return 0, false
	}
}
