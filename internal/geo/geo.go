// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geo holds the spherical-earth helpers used to aim the wand at a
// beacon from the user's GPS position.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/haptic_beacon/internal/angle"
)

// earthRadiusM is the mean earth radius in metres.
const earthRadiusM = 6371008.8

// ErrInvalidPoint is returned for coordinates outside the WGS84 range.
var ErrInvalidPoint = errors.New("geo: invalid point")

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if !angle.IsFinite(p.Lat, p.Lon) || p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidPoint, p.Lat, p.Lon)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Bearing returns the initial great-circle bearing from one point to
// another, in degrees [0, 360). Coincident points yield 0.
func Bearing(from, to Point) float64 {
	φ1 := rad(from.Lat)
	φ2 := rad(to.Lat)
	Δλ := rad(to.Lon - from.Lon)

	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	if x == 0 && y == 0 {
		return 0
	}
	return angle.Normalize(deg(math.Atan2(y, x)))
}

// Distance returns the haversine distance in metres.
func Distance(a, b Point) float64 {
	φ1 := rad(a.Lat)
	φ2 := rad(b.Lat)
	Δφ := rad(b.Lat - a.Lat)
	Δλ := rad(b.Lon - a.Lon)

	h := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
