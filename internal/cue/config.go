// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cue

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
)

// ErrInvalidConfig is returned by NewPolicy for unusable settings.
var ErrInvalidConfig = errors.New("cue: invalid config")

// Config is fixed when the policy is built.
type Config struct {
	AudioWindow     float64       // degrees over which audio plays around the bearing
	ExtendedHaptics bool          // directional light/heavy pulses instead of flat heavy pulses
	SilentDistance  float64       // degrees from the bearing with full volume
	PulsePeriod     time.Duration // haptic pulse interval while focused
}

// DefaultConfig returns the stock beacon settings.
func DefaultConfig() Config {
	return Config{
		AudioWindow:     60,
		ExtendedHaptics: false,
		SilentDistance:  15,
		PulsePeriod:     500 * time.Millisecond,
	}
}

// Validate checks that the volume curve is well formed.
func (c Config) Validate() error {
	if !angle.IsFinite(c.AudioWindow, c.SilentDistance) {
		return fmt.Errorf("%w: non-finite angles", ErrInvalidConfig)
	}
	if c.AudioWindow <= 0 || c.AudioWindow > 360 {
		return fmt.Errorf("%w: audio window %v outside (0, 360]", ErrInvalidConfig, c.AudioWindow)
	}
	if c.SilentDistance < 0 {
		return fmt.Errorf("%w: negative silent distance %v", ErrInvalidConfig, c.SilentDistance)
	}
	if c.AudioWindow/2 <= c.SilentDistance {
		return fmt.Errorf("%w: silent distance %v must be below half the audio window %v", ErrInvalidConfig, c.SilentDistance, c.AudioWindow)
	}
	if c.PulsePeriod <= 0 {
		return fmt.Errorf("%w: pulse period must be positive", ErrInvalidConfig)
	}
	return nil
}
