// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package angle implements compass arithmetic in degrees.
//
// All functions are pure. A NaN or infinite input means an upstream sensor
// produced garbage, so they panic instead of returning a value.
package angle

import (
	"fmt"
	"math"
)

// Normalize wraps a bearing into [0, 360).
func Normalize(deg float64) float64 {
	mustFinite("Normalize", deg)
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod(-1e-15, 360) + 360 rounds to 360
	if a >= 360 {
		a = 0
	}
	return a
}

// Add adds delta degrees to base and wraps the result into [0, 360).
func Add(base, delta float64) float64 {
	mustFinite("Add", base, delta)
	return Normalize(base + delta)
}

// Diff returns the signed shortest rotation from b to a, in (-180, 180].
// Positive values mean a lies clockwise of b.
func Diff(a, b float64) float64 {
	mustFinite("Diff", a, b)
	d := Normalize(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}

// Distance returns the unsigned shortest angle between a and b, in [0, 180].
func Distance(a, b float64) float64 {
	return math.Abs(Diff(a, b))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	mustFinite("Clamp", v, lo, hi)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsFinite reports whether every value is a real number.
func IsFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func mustFinite(op string, vals ...float64) {
	if !IsFinite(vals...) {
		panic(fmt.Sprintf("angle: %s: non-finite input %v", op, vals))
	}
}
