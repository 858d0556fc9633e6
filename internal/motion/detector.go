// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
	"github.com/relabs-tech/haptic_beacon/internal/log"
	"github.com/relabs-tech/haptic_beacon/internal/orientation"
)

// ErrInvalidDetector is returned for inconsistent tilt thresholds.
var ErrInvalidDetector = errors.New("motion: invalid detector config")

// DetectorConfig holds the tilt hysteresis, in degrees from horizontal.
type DetectorConfig struct {
	// EnterTilt: the device becomes flat once tilt drops to this value.
	EnterTilt float64
	// ExitTilt: the device stops being flat once tilt exceeds this value.
	ExitTilt float64
}

// DefaultDetectorConfig returns 20°/30° hysteresis.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{EnterTilt: 20, ExitTilt: 30}
}

// Detector drives a Gate from orientation poses.
type Detector struct {
	cfg  DetectorConfig
	gate *Gate
}

// Validate checks 0 <= enter <= exit <= 90.
func (c DetectorConfig) Validate() error {
	if !angle.IsFinite(c.EnterTilt, c.ExitTilt) {
		return fmt.Errorf("%w: non-finite tilt", ErrInvalidDetector)
	}
	if c.EnterTilt < 0 || c.ExitTilt > 90 || c.EnterTilt > c.ExitTilt {
		return fmt.Errorf("%w: need 0 <= enter (%v) <= exit (%v) <= 90", ErrInvalidDetector, c.EnterTilt, c.ExitTilt)
	}
	return nil
}

// NewDetector validates cfg and returns a detector writing to gate.
func NewDetector(cfg DetectorConfig, gate *Gate) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, gate: gate}, nil
}

// Gate returns the signal the detector writes to.
func (d *Detector) Gate() *Gate { return d.gate }

// Update feeds one pose.
func (d *Detector) Update(p orientation.Pose) {
	if !angle.IsFinite(p.Roll, p.Pitch) {
		return
	}
	tilt := p.Tilt()
	if d.gate.IsFlat() {
		if tilt > d.cfg.ExitTilt {
			d.gate.Set(false)
		}
		return
	}
	if tilt <= d.cfg.EnterTilt {
		d.gate.Set(true)
	}
}

// Run polls src every interval and hands each pose to post, which should
// call Update on the owning goroutine. Read errors are logged and skipped.
func (d *Detector) Run(ctx context.Context, src orientation.Source, interval time.Duration, post func(func()) bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pose, err := src.Next()
			if err != nil {
				log.Warn("flat detector: pose read failed", "err", err)
				continue
			}
			post(func() { d.Update(pose) })
		}
	}
}
