// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/gps"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes fixes as JSON to TOPIC_GPS until ctx is cancelled.
func RunGPSProducer(ctx context.Context, cfg *config.Config) error {
	l := log.With("component", "gps-producer")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Info("connected to MQTT", "broker", cfg.MQTTBroker)

	port, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
	if err != nil {
		return err
	}
	l.Info("GPS serial port opened", "port", cfg.GPSSerialPort, "baud", cfg.GPSBaudRate)

	// closing the port unblocks the reader
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = publishFixes(gps.NewReader(port), client, cfg.TopicGPS, l)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// publishFixes publishes every fix r yields, retained so late subscribers
// see the last position. It returns nil at the end of the stream.
func publishFixes(r *gps.Reader, pub Publisher, topic string, l *slog.Logger) error {
	for {
		fix, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			l.Error("GPS read error", "error", err)
			return err
		}
		publishJSON(pub, topic, true, fix, l)
		l.Debug("published GPS fix", "lat", fix.Latitude, "lon", fix.Longitude, "validity", fix.Validity)
	}
}
