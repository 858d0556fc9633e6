// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputePoseFromAccelFlat(t *testing.T) {
	p := ComputePoseFromAccel(0, 0, 16384)
	require.InDelta(t, 0.0, p.Roll, 1e-9)
	require.InDelta(t, 0.0, p.Pitch, 1e-9)
	require.InDelta(t, 0.0, p.Tilt(), 1e-6)
}

func TestComputePoseFromAccelOnEdge(t *testing.T) {
	p := ComputePoseFromAccel(0, 16384, 0)
	require.InDelta(t, 90.0, p.Roll, 1e-9)
	require.InDelta(t, 90.0, p.Tilt(), 1e-6)

	p = ComputePoseFromAccel(-16384, 0, 0)
	require.InDelta(t, 90.0, p.Pitch, 1e-9)
}

func TestTiltCombinesRollAndPitch(t *testing.T) {
	p := Pose{Roll: 30}
	require.InDelta(t, 30.0, p.Tilt(), 1e-6)
	p = Pose{Roll: 20, Pitch: 20}
	require.Greater(t, p.Tilt(), 20.0)
	require.Less(t, p.Tilt(), 40.0)
}

func TestIntegrateYaw(t *testing.T) {
	// counter-clockwise rotation of 10°/s for 2s from north
	require.InDelta(t, 340.0, IntegrateYaw(0, 10, 2), 1e-9)
	require.InDelta(t, 20.0, IntegrateYaw(0, -10, 2), 1e-9)
	require.InDelta(t, 5.0, IntegrateYaw(5, 10, 0), 1e-9)
	require.InDelta(t, 5.0, IntegrateYaw(5, math.NaN(), 1), 1e-9)
}

func TestMockSourceSweepsAndLifts(t *testing.T) {
	base := time.Unix(0, 0)
	now := base
	src := newMockSource(func() time.Time { return now }, 20)

	now = base.Add(2 * time.Second)
	p, err := src.Next()
	require.NoError(t, err)
	require.InDelta(t, 40.0, p.Yaw, 1e-9)
	require.Less(t, p.Tilt(), 10.0)

	now = base.Add(52 * time.Second)
	p, err = src.Next()
	require.NoError(t, err)
	require.Greater(t, p.Tilt(), 50.0)
}
