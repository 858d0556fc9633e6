// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heading defines compass heading samples and the provider
// capability the wand and cue policy consume.
package heading

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a heading sample came from.
type Source int

const (
	// SourceDevice is the direction the device itself is pointing
	// (IMU yaw or an NMEA HDT compass).
	SourceDevice Source = iota
	// SourceCourse is the direction of travel over ground from GPS.
	SourceCourse
)

func (s Source) String() string {
	switch s {
	case SourceDevice:
		return "device"
	case SourceCourse:
		return "course"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// ParseSource maps "device" or "course" to a Source.
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "device":
		return SourceDevice, nil
	case "course":
		return SourceCourse, nil
	}
	return 0, fmt.Errorf("heading: unknown source %q", name)
}

// MarshalText encodes the source by name.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a source name.
func (s *Source) UnmarshalText(b []byte) error {
	v, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Heading is a single bearing sample in degrees clockwise from north.
type Heading struct {
	Value  float64   `json:"value"`
	Source Source    `json:"source"`
	Time   time.Time `json:"time"`
}

// Handler receives heading samples.
type Handler func(Heading)

// Subscription identifies a registered Handler.
type Subscription string

// Provider is anything that can report the last known heading and push
// new samples to subscribers.
type Provider interface {
	// Current returns the last known heading; ok is false if no sample
	// has been seen yet.
	Current() (h Heading, ok bool)
	Subscribe(fn Handler) Subscription
	Unsubscribe(sub Subscription)
}
