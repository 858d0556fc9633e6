// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
)

// MinCourseSpeedKnots is the speed below which course over ground is
// too noisy to use as a heading.
const MinCourseSpeedKnots = 1.0

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string   `json:"time"`                  // e.g. "12:34:56"
	Date       string   `json:"date"`                  // receiver date
	Latitude   float64  `json:"lat"`                   // decimal degrees
	Longitude  float64  `json:"lon"`                   // decimal degrees
	SpeedKnots float64  `json:"speed_knots"`           // speed over ground
	CourseDeg  float64  `json:"course_deg"`            // course over ground
	HeadingDeg *float64 `json:"heading_deg,omitempty"` // true heading from HDT, if the receiver has a compass
	Validity   string   `json:"validity"`              // "A" (valid) / "V" (void)
}

// Valid reports whether the receiver marked the fix as usable.
func (f Fix) Valid() bool {
	return f.Validity == "A" && f.Point().Validate() == nil
}

// Point returns the fix position.
func (f Fix) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lon: f.Longitude}
}

// Headings returns the heading samples carried by the fix: the compass
// heading as SourceDevice and, when moving, the course as SourceCourse.
func (f Fix) Headings(at time.Time) []heading.Heading {
	if !f.Valid() {
		return nil
	}
	var out []heading.Heading
	if f.HeadingDeg != nil {
		out = append(out, heading.Heading{Value: *f.HeadingDeg, Source: heading.SourceDevice, Time: at})
	}
	if f.SpeedKnots >= MinCourseSpeedKnots {
		out = append(out, heading.Heading{Value: f.CourseDeg, Source: heading.SourceCourse, Time: at})
	}
	return out
}
