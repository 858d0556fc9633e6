// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
)

// Pose is the canonical representation of device orientation, in degrees.
// Yaw is the compass heading of the device's pointing axis.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}

// Tilt returns the angle in degrees between the device's screen normal and
// vertical. A phone lying face up on a table has tilt 0.
func (p Pose) Tilt() float64 {
	r := p.Roll * math.Pi / 180
	q := p.Pitch * math.Pi / 180
	c := angle.Clamp(math.Cos(r)*math.Cos(q), -1, 1)
	return math.Acos(c) * 180 / math.Pi
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is left at 0.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// IntegrateYaw advances a yaw estimate by a gyro z rate (degrees/second)
// held for dt seconds, wrapping into [0, 360).
func IntegrateYaw(prevYaw, rateDPS, dt float64) float64 {
	if dt <= 0 || !angle.IsFinite(rateDPS, dt) {
		return angle.Normalize(prevYaw)
	}
	// yaw grows clockwise, gyro z is counter-clockwise positive
	return angle.Add(prevYaw, -rateDPS*dt)
}
