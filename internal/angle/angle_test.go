// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package angle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{720, 0},
		{-10, 350},
		{-370, 350},
		{725, 5},
	}
	for _, c := range cases {
		require.InDelta(t, c.want, Normalize(c.in), 1e-9, "Normalize(%v)", c.in)
	}
}

func TestNormalizeNeverReturns360(t *testing.T) {
	got := Normalize(-1e-15)
	require.GreaterOrEqual(t, got, 0.0)
	require.Less(t, got, 360.0)
}

func TestAddWraps(t *testing.T) {
	require.InDelta(t, 10.0, Add(350, 20), 1e-9)
	require.InDelta(t, 350.0, Add(5, -15), 1e-9)
	require.InDelta(t, 180.0, Add(90, 90), 1e-9)
}

func TestDiffIsShortestSigned(t *testing.T) {
	require.InDelta(t, 10.0, Diff(5, 355), 1e-9)
	require.InDelta(t, -10.0, Diff(355, 5), 1e-9)
	require.InDelta(t, 180.0, Diff(180, 0), 1e-9)
	require.InDelta(t, 180.0, Diff(0, 180), 1e-9)
	require.InDelta(t, -90.0, Diff(0, 90), 1e-9)
}

func TestDistanceRange(t *testing.T) {
	for a := 0.0; a < 360; a += 7.5 {
		for b := 0.0; b < 360; b += 11.25 {
			d := Distance(a, b)
			require.GreaterOrEqual(t, d, 0.0)
			require.LessOrEqual(t, d, 180.0)
			require.InDelta(t, d, Distance(b, a), 1e-9)
		}
	}
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0.0, Clamp(-1, 0, 1))
	require.Equal(t, 1.0, Clamp(2, 0, 1))
	require.Equal(t, 0.25, Clamp(0.25, 0, 1))
}

func TestNonFinitePanics(t *testing.T) {
	require.Panics(t, func() { Normalize(math.NaN()) })
	require.Panics(t, func() { Diff(0, math.Inf(1)) })
	require.Panics(t, func() { Clamp(math.NaN(), 0, 1) })
	require.False(t, IsFinite(1, math.NaN()))
	require.True(t, IsFinite(1, 2, 3))
}
