// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/audio"
	"github.com/relabs-tech/haptic_beacon/internal/clock"
	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/haptics"
	"github.com/relabs-tech/haptic_beacon/internal/log"
	"github.com/relabs-tech/haptic_beacon/internal/orientation"
	"github.com/relabs-tech/haptic_beacon/internal/runloop"
)

// simulatedOffset places the simulated user about 1 km south of the beacon.
const simulatedOffset = 0.009

// RunSimulate runs the full pipeline against the mock pose source with
// logging sinks. No broker or hardware is needed.
func RunSimulate(ctx context.Context, cfg *config.Config) error {
	l := log.With("component", "simulate")

	loop := runloop.New(256)
	clk := clock.NewReal(loop.Post)
	svc, err := NewService(cfg, ServiceDeps{
		Clock:   clk,
		Haptics: haptics.NewLog(),
		Audio:   audio.NewLog(),
	})
	if err != nil {
		return err
	}
	svc.Beacon().Observe(func(e cue.Event) {
		attrs := []any{"type", e.Type, "flat", e.Flat}
		if e.Kind != nil {
			attrs = append(attrs, "kind", *e.Kind)
		}
		if e.Bearing != 0 || e.Type == cue.EventGainedFocus {
			attrs = append(attrs, "bearing", e.Bearing)
		}
		l.Info("event", attrs...)
	})

	loc := cfg.Location()
	user := geo.Point{Lat: loc.Lat - simulatedOffset, Lon: loc.Lon}
	if user.Lat < -90 {
		user.Lat = loc.Lat + simulatedOffset
	}
	loop.Post(func() {
		if err := svc.HandleCommand(Command{Action: "start", User: &user}); err != nil {
			l.Error("start session", "error", err)
		}
	})

	src := orientation.NewMockSource()
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pose, err := src.Next()
				if err != nil {
					l.Warn("error from mock source", "error", err)
					continue
				}
				loop.Post(func() { svc.HandlePose(pose) })
			}
		}
	}()

	l.Info("simulation running", "beacon", loc, "user", user)
	err = loop.Run(ctx)
	svc.Close()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
