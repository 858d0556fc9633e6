// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
	sweep float64 // degrees per second
}

// NewMockSource creates a mock orientation source for desk testing: the
// device sweeps slowly around the compass while held roughly flat, and is
// lifted up for a few seconds every minute.
func NewMockSource() Source {
	return newMockSource(time.Now, 20)
}

func newMockSource(now func() time.Time, sweep float64) *mockSource {
	return &mockSource{start: now(), now: now, sweep: sweep}
}

func (m *mockSource) Next() (Pose, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	pose := Pose{
		Roll:  4 * math.Sin(elapsed),
		Pitch: 3 * math.Cos(elapsed*0.7),
		Yaw:   math.Mod(elapsed*m.sweep, 360),
	}
	// lifted between 50s and 55s of every minute
	if s := math.Mod(elapsed, 60); s >= 50 && s < 55 {
		pose.Pitch = 60
	}
	return pose, nil
}
