// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Reader turns an NMEA byte stream into fixes. One fix is produced per
// RMC sentence; the latest HDT heading is attached to it. Other sentence
// types and unparsable lines are skipped.
type Reader struct {
	r       *bufio.Reader
	heading *float64
}

// NewReader reads NMEA sentences from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next blocks until the next RMC sentence and returns it as a Fix.
func (g *Reader) Next() (Fix, error) {
	for {
		line, err := g.r.ReadString('\n')
		if fix, ok := g.parse(line); ok {
			return fix, nil
		}
		if err != nil {
			return Fix{}, err
		}
	}
}

func (g *Reader) parse(line string) (Fix, bool) {
	line = strings.TrimSpace(line)
	// NMEA sentences start with '$'
	if !strings.HasPrefix(line, "$") {
		return Fix{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences
		return Fix{}, false
	}

	switch sentence.DataType() {
	case nmea.TypeHDT:
		m := sentence.(nmea.HDT)
		if m.True {
			h := m.Heading
			g.heading = &h
		}
		return Fix{}, false

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		fix := Fix{
			Time:       m.Time.String(),
			Date:       m.Date.String(),
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			SpeedKnots: m.Speed,
			CourseDeg:  m.Course,
			Validity:   string(m.Validity),
		}
		if g.heading != nil {
			h := *g.heading
			fix.HeadingDeg = &h
		}
		return fix, true

	default:
		// ignore other sentence types (GGA, GSA, etc.)
		return Fix{}, false
	}
}
