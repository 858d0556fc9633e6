// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cue

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/haptic_beacon/internal/wand"
)

func TestVolumeCurve(t *testing.T) {
	cfg := DefaultConfig()
	focus := FocusState{Focused: true, Target: wand.MustTarget(0, 30)}

	require.Equal(t, 1.0, Volume(cfg, focus, 0))
	require.Equal(t, 1.0, Volume(cfg, focus, 14.9))
	require.Equal(t, 1.0, Volume(cfg, focus, 345.1))
	require.Equal(t, 0.0, Volume(cfg, focus, 30))
	require.Equal(t, 0.0, Volume(cfg, focus, 330))
	require.Equal(t, 0.0, Volume(cfg, focus, 180))
	require.InDelta(t, 0.5, Volume(cfg, focus, 22.5), 1e-9)

	// unfocused is silent regardless of heading
	require.Equal(t, 0.0, Volume(cfg, FocusState{}, 0))
}

func TestVolumeIsNonIncreasing(t *testing.T) {
	cfg := Config{AudioWindow: 90, SilentDistance: 10, PulsePeriod: time.Second}
	require.NoError(t, cfg.Validate())

	prev := math.Inf(1)
	for d := 0.0; d <= cfg.AudioWindow/2; d += 0.25 {
		v := VolumeAt(cfg, d)
		require.LessOrEqual(t, v, prev, "distance %v", d)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
		prev = v
	}
	require.Equal(t, 1.0, VolumeAt(cfg, 0))
	require.Equal(t, 0.0, VolumeAt(cfg, cfg.AudioWindow/2))
}

func TestPulseFor(t *testing.T) {
	cases := []struct {
		offset float64
		kind   Kind
		ok     bool
	}{
		{0, ImpactHeavy, true},
		{15, ImpactHeavy, true},
		{-15, ImpactHeavy, true},
		{15.01, ImpactLight, true},
		{-32, ImpactLight, true},
		{50, ImpactLight, true},
		{-50, ImpactLight, true},
		{50.5, 0, false},
		{-120, 0, false},
	}
	for _, c := range cases {
		kind, ok := PulseFor(c.offset)
		require.Equal(t, c.ok, ok, "offset %v", c.offset)
		if c.ok {
			require.Equal(t, c.kind, kind, "offset %v", c.offset)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{AudioWindow: 0, SilentDistance: 0, PulsePeriod: time.Second},
		{AudioWindow: 400, SilentDistance: 10, PulsePeriod: time.Second},
		{AudioWindow: 30, SilentDistance: 15, PulsePeriod: time.Second},
		{AudioWindow: 60, SilentDistance: -1, PulsePeriod: time.Second},
		{AudioWindow: 60, SilentDistance: 15, PulsePeriod: 0},
		{AudioWindow: math.NaN(), SilentDistance: 15, PulsePeriod: time.Second},
	}
	for i, c := range bad {
		require.ErrorIs(t, c.Validate(), ErrInvalidConfig, "case %d", i)
	}
}

func TestKindText(t *testing.T) {
	b, err := json.Marshal(Request{Kind: Error})
	require.NoError(t, err)
	require.Contains(t, string(b), `"kind":"error"`)

	var r Request
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"impact_light"}`), &r))
	require.Equal(t, ImpactLight, r.Kind)

	require.Error(t, json.Unmarshal([]byte(`{"kind":"buzz"}`), &r))
	require.Equal(t, "kind(7)", Kind(7).String())
}
