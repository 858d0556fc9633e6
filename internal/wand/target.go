// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package wand

import (
	"fmt"
	"math"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
)

// DefaultThresholdRatio sizes the inner threshold window relative to the
// outer window when WithThreshold is not given.
const DefaultThresholdRatio = 0.5

// Target is a bearing with an acceptance window centred on it. The heading
// is within the target when it lies in [bearing-window/2, bearing+window/2].
//
// A Target also carries a narrower threshold window; entering it while
// focused is reported as a threshold crossing.
type Target struct {
	bearing   float64
	window    float64
	threshold float64
}

// TargetOption customises NewTarget.
type TargetOption func(*Target)

// WithThreshold sets the full width of the inner threshold window.
func WithThreshold(window float64) TargetOption {
	return func(t *Target) { t.threshold = window }
}

// NewTarget builds a target. The window must be positive and the threshold
// window, if set, must lie in (0, window].
func NewTarget(bearing, window float64, opts ...TargetOption) (Target, error) {
	if !angle.IsFinite(bearing, window) {
		return Target{}, fmt.Errorf("%w: bearing=%v window=%v", ErrInvalidTarget, bearing, window)
	}
	if window <= 0 {
		return Target{}, fmt.Errorf("%w: window must be positive, got %v", ErrInvalidTarget, window)
	}

	t := Target{
		bearing: angle.Normalize(bearing),
		window:  math.Min(window, 360),
	}
	t.threshold = t.window * DefaultThresholdRatio
	for _, opt := range opts {
		opt(&t)
	}

	if !angle.IsFinite(t.threshold) || t.threshold <= 0 || t.threshold > t.window {
		return Target{}, fmt.Errorf("%w: threshold %v outside (0, %v]", ErrInvalidTarget, t.threshold, t.window)
	}
	return t, nil
}

// MustTarget is NewTarget for constant arguments; it panics on error.
func MustTarget(bearing, window float64, opts ...TargetOption) Target {
	t, err := NewTarget(bearing, window, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Bearing returns the centre of the target in [0, 360).
func (t Target) Bearing() float64 { return t.bearing }

// Window returns the full width of the acceptance window.
func (t Target) Window() float64 { return t.window }

// Threshold returns the full width of the inner threshold window.
func (t Target) Threshold() float64 { return t.threshold }

// IsWithin reports whether heading lies inside the acceptance window.
// The boundary is inclusive.
func (t Target) IsWithin(heading float64) bool {
	return angle.Distance(heading, t.bearing) <= t.window/2
}

// IsWithinThreshold reports whether heading lies inside the inner window.
func (t Target) IsWithinThreshold(heading float64) bool {
	return angle.Distance(heading, t.bearing) <= t.threshold/2
}

// Offset returns the signed deviation of heading from the bearing in
// (-180, 180]; positive means the device points clockwise of the target.
func (t Target) Offset(heading float64) float64 {
	return angle.Diff(heading, t.bearing)
}

func (t Target) String() string {
	return fmt.Sprintf("target(%.1f°±%.1f°)", t.bearing, t.window/2)
}
