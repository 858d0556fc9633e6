// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/haptic_beacon/internal/audio"
	"github.com/relabs-tech/haptic_beacon/internal/beacon"
	"github.com/relabs-tech/haptic_beacon/internal/clock"
	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/gps"
	"github.com/relabs-tech/haptic_beacon/internal/haptics"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
	"github.com/relabs-tech/haptic_beacon/internal/log"
	"github.com/relabs-tech/haptic_beacon/internal/motion"
	"github.com/relabs-tech/haptic_beacon/internal/orientation"
	"github.com/relabs-tech/haptic_beacon/internal/runloop"
)

// ErrNoPosition is returned by a start command before any valid GPS fix.
var ErrNoPosition = errors.New("app: no user position")

// Command is accepted on the control topic.
type Command struct {
	Action string     `json:"action"` // "start" or "stop"
	User   *geo.Point `json:"user,omitempty"`
}

// ServiceDeps are the outputs of the beacon service.
type ServiceDeps struct {
	Clock   clock.Clock
	Haptics cue.HapticSink
	Audio   cue.AudioSink
	// Publisher carries events and status; nil keeps them local.
	Publisher Publisher
}

// Service turns poses, GPS fixes and control commands into a beacon
// session. All methods must run on one goroutine; RunBeacon and
// RunSimulate post everything through a runloop.
type Service struct {
	cfg  *config.Config
	deps ServiceDeps
	log  *slog.Logger

	feed     *heading.Feed
	gate     *motion.Gate
	detector *motion.Detector
	beacon   *beacon.Beacon

	user        *geo.Point
	autoStart   bool
	statusTimer clock.Timer
	statusOn    bool
}

// NewService builds the heading feed, flat detector and beacon from cfg.
func NewService(cfg *config.Config, deps ServiceDeps) (*Service, error) {
	if deps.Clock == nil {
		return nil, fmt.Errorf("%w: clock", cue.ErrMissingDependency)
	}
	order, err := cfg.HeadingOrder()
	if err != nil {
		return nil, err
	}
	feed := heading.NewFeed(order...)
	feed.StaleAfter = cfg.HeadingStale()
	feed.Now = deps.Clock.Now

	gate := motion.NewGate(false)
	det, err := motion.NewDetector(cfg.Detector(), gate)
	if err != nil {
		return nil, err
	}

	b, err := beacon.New(cfg.Beacon(), cfg.Location(), cue.Deps{
		Haptics:  deps.Haptics,
		Audio:    deps.Audio,
		Clock:    deps.Clock,
		Flat:     gate,
		Headings: feed,
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		deps:      deps,
		log:       log.With("component", "service"),
		feed:      feed,
		gate:      gate,
		detector:  det,
		beacon:    b,
		autoStart: true,
	}
	b.Observe(s.onEvent)
	return s, nil
}

// Beacon returns the session.
func (s *Service) Beacon() *beacon.Beacon { return s.beacon }

// Feed returns the heading feed.
func (s *Service) Feed() *heading.Feed { return s.feed }

// Gate returns the flat signal.
func (s *Service) Gate() *motion.Gate { return s.gate }

// HandlePose feeds the yaw to the heading feed and the tilt to the flat
// detector.
func (s *Service) HandlePose(p orientation.Pose) {
	s.detector.Update(p)
	h := heading.Heading{Value: p.Yaw, Source: heading.SourceDevice, Time: s.deps.Clock.Now()}
	if err := s.feed.Publish(h); err != nil {
		s.log.Debug("pose dropped", "error", err)
	}
}

// HandleFix updates the user position and publishes any headings the fix
// carries. The first valid fix starts the session.
func (s *Service) HandleFix(f gps.Fix) {
	if !f.Valid() {
		return
	}
	for _, h := range f.Headings(s.deps.Clock.Now()) {
		if err := s.feed.Publish(h); err != nil {
			s.log.Debug("fix heading dropped", "error", err)
		}
	}

	p := f.Point()
	s.user = &p
	if !s.beacon.Active() {
		if s.autoStart {
			if err := s.beacon.Start(p); err != nil {
				s.log.Error("start session", "error", err)
			}
		}
		return
	}
	if _, err := s.beacon.UpdateUser(p); err != nil {
		s.log.Warn("update user position", "error", err)
	}
}

// HandleCommand applies a control command. A stop disables automatic
// start until the next start command.
func (s *Service) HandleCommand(c Command) error {
	switch c.Action {
	case "start":
		s.autoStart = true
		user := s.user
		if c.User != nil {
			user = c.User
			s.user = c.User
		}
		if user == nil {
			return ErrNoPosition
		}
		if s.beacon.Active() {
			_, err := s.beacon.UpdateUser(*user)
			return err
		}
		return s.beacon.Start(*user)
	case "stop":
		s.autoStart = false
		s.beacon.Stop()
		s.publishStatus()
		return nil
	default:
		return fmt.Errorf("unknown action %q", c.Action)
	}
}

// StartStatus publishes the status every STATUS_INTERVAL.
func (s *Service) StartStatus() {
	if s.statusOn {
		return
	}
	s.statusOn = true
	s.statusTimer = s.deps.Clock.SchedulePeriodic(time.Duration(s.cfg.StatusInterval)*time.Millisecond, s.publishStatus)
}

// Close ends the session and the status updates.
func (s *Service) Close() {
	if s.statusOn {
		s.deps.Clock.Cancel(s.statusTimer)
		s.statusOn = false
	}
	s.beacon.Stop()
	s.publishStatus()
}

func (s *Service) onEvent(e cue.Event) {
	s.log.Debug("event", "type", e.Type, "bearing", e.Bearing, "flat", e.Flat)
	if s.deps.Publisher != nil {
		publishJSON(s.deps.Publisher, s.cfg.TopicEvents, false, e, s.log)
	}
}

func (s *Service) publishStatus() {
	if s.deps.Publisher == nil {
		return
	}
	publishJSON(s.deps.Publisher, s.cfg.TopicStatus, true, s.beacon.Status(), s.log)
}

// commandTimeout bounds how long a control command waits for the loop.
const commandTimeout = 2 * time.Second

// dispatchCommand runs c on the loop and waits for it, so a command is
// never dropped silently when the queue is full.
func dispatchCommand(ctx context.Context, loop *runloop.Loop, svc *Service, c Command) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var cmdErr error
	if err := loop.Do(ctx, func() { cmdErr = svc.HandleCommand(c) }); err != nil {
		return fmt.Errorf("command not applied: %w", err)
	}
	return cmdErr
}

// RunBeacon connects to MQTT and runs the beacon service until ctx is
// cancelled.
func RunBeacon(ctx context.Context, cfg *config.Config) error {
	l := log.With("component", "beacon-service")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDBeacon)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Info("connected to MQTT", "broker", cfg.MQTTBroker)

	loop := runloop.New(512)
	clk := clock.NewReal(loop.Post)

	sinks := haptics.Multi{haptics.NewRemote(client, cfg.TopicHaptics), haptics.NewLog()}
	if cfg.HapticGPIOPin != "" {
		motor, err := haptics.OpenMotor(cfg.HapticGPIOPin)
		if err != nil {
			return fmt.Errorf("haptic motor: %w", err)
		}
		defer motor.Close()
		sinks = append(sinks, motor)
		l.Info("haptic motor ready", "pin", cfg.HapticGPIOPin)
	}

	svc, err := NewService(cfg, ServiceDeps{
		Clock:     clk,
		Haptics:   sinks,
		Audio:     audio.NewRemote(client, cfg.TopicAudio, cfg.TopicAudioLevel),
		Publisher: client,
	})
	if err != nil {
		return err
	}

	if err := subscribe(client, cfg.TopicPose, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			l.Warn("pose unmarshal error", "error", err)
			return
		}
		loop.Post(func() { svc.HandlePose(p) })
	}); err != nil {
		return err
	}
	if err := subscribe(client, cfg.TopicGPS, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			l.Warn("gps unmarshal error", "error", err)
			return
		}
		loop.Post(func() { svc.HandleFix(f) })
	}); err != nil {
		return err
	}
	if err := subscribe(client, cfg.TopicControl, func(_ mqtt.Client, msg mqtt.Message) {
		var c Command
		if err := json.Unmarshal(msg.Payload(), &c); err != nil {
			l.Warn("control unmarshal error", "error", err)
			return
		}
		if err := dispatchCommand(ctx, loop, svc, c); err != nil {
			l.Warn("control command failed", "action", c.Action, "error", err)
		}
	}); err != nil {
		return err
	}
	l.Info("subscribed", "pose", cfg.TopicPose, "gps", cfg.TopicGPS, "control", cfg.TopicControl)

	loop.Post(svc.StartStatus)
	err = loop.Run(ctx)

	// the loop has exited, so the service is ours alone now
	svc.Close()
	if dropped := loop.Dropped(); dropped > 0 {
		l.Warn("loop dropped work", "count", dropped)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
