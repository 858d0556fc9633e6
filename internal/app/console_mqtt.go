// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/haptic_beacon/internal/beacon"
	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/gps"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// RunConsoleMQTT prints beacon events as they arrive, and the latest
// status and GPS fix every CONSOLE_LOG_INTERVAL, until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config) error {
	return runConsole(ctx, cfg, os.Stdout)
}

func runConsole(ctx context.Context, cfg *config.Config, out io.Writer) error {
	l := log.With("component", "console")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Info("connected to MQTT", "broker", cfg.MQTTBroker)

	var (
		mu     sync.Mutex
		status *beacon.Status
		fix    *gps.Fix
	)

	if err := subscribe(client, cfg.TopicEvents, func(_ mqtt.Client, msg mqtt.Message) {
		var e cue.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			l.Warn("event unmarshal error", "error", err)
			return
		}
		mu.Lock()
		fmt.Fprintln(out, formatEvent(e))
		mu.Unlock()
	}); err != nil {
		return err
	}
	if err := subscribe(client, cfg.TopicStatus, func(_ mqtt.Client, msg mqtt.Message) {
		var s beacon.Status
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			l.Warn("status unmarshal error", "error", err)
			return
		}
		mu.Lock()
		status = &s
		mu.Unlock()
	}); err != nil {
		return err
	}
	if err := subscribe(client, cfg.TopicGPS, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			l.Warn("gps unmarshal error", "error", err)
			return
		}
		mu.Lock()
		fix = &f
		mu.Unlock()
	}); err != nil {
		return err
	}
	l.Info("subscribed", "events", cfg.TopicEvents, "status", cfg.TopicStatus, "gps", cfg.TopicGPS)

	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			mu.Lock()
			if status != nil {
				fmt.Fprintln(out, formatStatus(*status))
			}
			if fix != nil {
				fmt.Fprintln(out, formatFix(*fix))
			}
			mu.Unlock()
		}
	}
}

func formatEvent(e cue.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[EVENT] %s %-17s", e.Time.Format("15:04:05.000"), e.Type)
	switch e.Type {
	case cue.EventCue:
		if e.Kind != nil {
			fmt.Fprintf(&b, " kind=%s", *e.Kind)
		}
	case cue.EventAudioStarted, cue.EventAudioStopped:
		fmt.Fprintf(&b, " player=%s", e.Player)
	case cue.EventFlatChanged:
	default:
		fmt.Fprintf(&b, " bearing=%6.2f", e.Bearing)
		if e.Initial {
			b.WriteString(" initial")
		}
	}
	fmt.Fprintf(&b, " flat=%t", e.Flat)
	return b.String()
}

func formatStatus(s beacon.Status) string {
	if !s.Active {
		return "[STAT]  idle"
	}
	var b strings.Builder
	b.WriteString("[STAT] ")
	if s.Bearing != nil {
		fmt.Fprintf(&b, " BRG=%6.2f", *s.Bearing)
	}
	if s.Distance != nil {
		fmt.Fprintf(&b, " DIST=%s", formatDistance(*s.Distance))
	}
	if s.Heading != nil {
		fmt.Fprintf(&b, " HDG=%6.2f(%s)", s.Heading.Value, s.Heading.Source)
	}
	if s.Offset != nil {
		fmt.Fprintf(&b, " OFF=%+7.2f", *s.Offset)
	}
	fmt.Fprintf(&b, " focus=%t flat=%t vol=%.2f", s.Focused, s.Flat, s.Volume)
	return b.String()
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf("[GPS]   %s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f valid=%s",
		f.Time, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity)
}
