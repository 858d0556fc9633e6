// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/log"
	"github.com/relabs-tech/haptic_beacon/internal/orientation"
)

// RunIMUProducer reads poses from the MPU9250 and publishes them to
// TOPIC_POSE every IMU_SAMPLE_INTERVAL.
func RunIMUProducer(ctx context.Context, cfg *config.Config) error {
	src, err := orientation.NewIMUSource(orientation.IMUConfig{
		SPIDevice: cfg.IMUSPIDevice,
		CSPin:     cfg.IMUCSPin,
		Calibrate: true,
	})
	if err != nil {
		return err
	}
	return runPoseProducer(ctx, cfg, src, log.With("component", "imu-producer"))
}

// RunMockProducer publishes poses from the mock source, for running the
// beacon service without hardware.
func RunMockProducer(ctx context.Context, cfg *config.Config) error {
	return runPoseProducer(ctx, cfg, orientation.NewMockSource(), log.With("component", "mock-producer"))
}

func runPoseProducer(ctx context.Context, cfg *config.Config, src orientation.Source, l *slog.Logger) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Info("connected to MQTT, starting publish loop", "broker", cfg.MQTTBroker, "topic", cfg.TopicPose)

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			publishPose(src, client, cfg.TopicPose, l)
		}
	}
}

// publishPose reads one pose and publishes it. Read errors are logged and
// the sample skipped.
func publishPose(src orientation.Source, pub Publisher, topic string, l *slog.Logger) bool {
	pose, err := src.Next()
	if err != nil {
		l.Warn("error reading pose", "error", err)
		return false
	}
	publishJSON(pub, topic, false, pose, l)
	l.Debug("published pose", "roll", pose.Roll, "pitch", pose.Pitch, "yaw", pose.Yaw)
	return true
}
