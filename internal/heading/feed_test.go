// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedCurrentEmpty(t *testing.T) {
	f := NewFeed()
	_, ok := f.Current()
	require.False(t, ok)
}

func TestFeedPublishNormalizesAndForwards(t *testing.T) {
	f := NewFeed(SourceDevice)

	var got []Heading
	f.Subscribe(func(h Heading) { got = append(got, h) })

	require.NoError(t, f.Publish(Heading{Value: 370, Source: SourceDevice}))
	require.Len(t, got, 1)
	require.InDelta(t, 10.0, got[0].Value, 1e-9)
	require.False(t, got[0].Time.IsZero())

	cur, ok := f.Current()
	require.True(t, ok)
	require.InDelta(t, 10.0, cur.Value, 1e-9)
}

func TestFeedRejectsNonFinite(t *testing.T) {
	f := NewFeed()
	err := f.Publish(Heading{Value: math.NaN()})
	require.ErrorIs(t, err, ErrInvalidHeading)
	_, ok := f.Current()
	require.False(t, ok)
}

func TestFeedIgnoresUnlistedSource(t *testing.T) {
	f := NewFeed(SourceDevice)
	calls := 0
	f.Subscribe(func(Heading) { calls++ })

	require.NoError(t, f.Publish(Heading{Value: 90, Source: SourceCourse}))
	require.Equal(t, 0, calls)
	_, ok := f.Current()
	require.False(t, ok)
}

func TestFeedPreferenceOrder(t *testing.T) {
	f := NewFeed(SourceDevice, SourceCourse)
	var got []Source
	f.Subscribe(func(h Heading) { got = append(got, h.Source) })

	now := time.Now()
	require.NoError(t, f.Publish(Heading{Value: 10, Source: SourceCourse, Time: now}))
	require.NoError(t, f.Publish(Heading{Value: 20, Source: SourceDevice, Time: now}))
	// Device has been seen, so course is shadowed from now on.
	require.NoError(t, f.Publish(Heading{Value: 30, Source: SourceCourse, Time: now}))

	require.Equal(t, []Source{SourceCourse, SourceDevice}, got)

	cur, ok := f.Current()
	require.True(t, ok)
	require.Equal(t, SourceDevice, cur.Source)
}

func TestFeedStaleDeviceReleasesCourse(t *testing.T) {
	f := NewFeed(SourceDevice, SourceCourse)
	f.StaleAfter = time.Second
	var got []float64
	f.Subscribe(func(h Heading) { got = append(got, h.Value) })

	old := time.Now().Add(-time.Minute)
	require.NoError(t, f.Publish(Heading{Value: 20, Source: SourceDevice, Time: old}))
	require.NoError(t, f.Publish(Heading{Value: 30, Source: SourceCourse, Time: time.Now()}))

	require.Equal(t, []float64{20, 30}, got)
	cur, ok := f.Current()
	require.True(t, ok)
	require.Equal(t, SourceCourse, cur.Source)
}

func TestFeedUnsubscribe(t *testing.T) {
	f := NewFeed()
	calls := 0
	sub := f.Subscribe(func(Heading) { calls++ })
	require.Equal(t, 1, f.Subscribers())

	f.Unsubscribe(sub)
	f.Unsubscribe(sub)
	require.Equal(t, 0, f.Subscribers())

	require.NoError(t, f.Publish(Heading{Value: 1}))
	require.Equal(t, 0, calls)
}

func TestSourceText(t *testing.T) {
	src, err := ParseSource(" Course ")
	require.NoError(t, err)
	require.Equal(t, SourceCourse, src)

	_, err = ParseSource("gyro")
	require.Error(t, err)

	b, err := json.Marshal(Heading{Value: 12, Source: SourceDevice})
	require.NoError(t, err)
	require.Contains(t, string(b), `"source":"device"`)

	var h Heading
	require.NoError(t, json.Unmarshal([]byte(`{"value":3,"source":"course"}`), &h))
	require.Equal(t, SourceCourse, h.Source)
}
