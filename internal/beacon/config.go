// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package beacon

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/wand"
)

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("beacon: invalid config")

// Config holds the per-session tunables.
type Config struct {
	Cue  cue.Config
	Wand wand.Config

	// TargetWindow is the focus arc in normal mode, ExtendedTargetWindow
	// the wider arc used with extended haptics.
	TargetWindow         float64
	ExtendedTargetWindow float64

	// ThresholdWindow is the inner arc; zero means half the target window.
	ThresholdWindow float64

	// RetargetDegrees is how far the bearing must move on a new user
	// position before the wand is restarted. Zero retargets on any change.
	RetargetDegrees float64

	Asset string
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Cue:                  cue.DefaultConfig(),
		Wand:                 wand.Config{LongFocusAfter: 5 * time.Second},
		TargetWindow:         30,
		ExtendedTargetWindow: 110,
		RetargetDegrees:      5,
		Asset:                "beacon.wav",
	}
}

// Window returns the target window for the configured haptics mode.
func (c Config) Window() float64 {
	if c.Cue.ExtendedHaptics {
		return c.ExtendedTargetWindow
	}
	return c.TargetWindow
}

// Validate checks the settings.
func (c Config) Validate() error {
	if err := c.Cue.Validate(); err != nil {
		return err
	}
	if !angle.IsFinite(c.TargetWindow, c.ExtendedTargetWindow, c.ThresholdWindow, c.RetargetDegrees) {
		return fmt.Errorf("%w: non-finite angles", ErrInvalidConfig)
	}
	w := c.Window()
	if w <= 0 || w > 360 {
		return fmt.Errorf("%w: target window %v outside (0, 360]", ErrInvalidConfig, w)
	}
	if c.ThresholdWindow < 0 || c.ThresholdWindow > w {
		return fmt.Errorf("%w: threshold window %v outside [0, %v]", ErrInvalidConfig, c.ThresholdWindow, w)
	}
	if c.RetargetDegrees < 0 {
		return fmt.Errorf("%w: negative retarget threshold", ErrInvalidConfig)
	}
	if c.Wand.LongFocusAfter < 0 {
		return fmt.Errorf("%w: negative long focus duration", ErrInvalidConfig)
	}
	return nil
}

func (c Config) target(bearing float64) (wand.Target, error) {
	var opts []wand.TargetOption
	if c.ThresholdWindow > 0 {
		opts = append(opts, wand.WithThreshold(c.ThresholdWindow))
	}
	return wand.NewTarget(bearing, c.Window(), opts...)
}
