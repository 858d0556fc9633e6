// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/haptic_beacon/internal/heading"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beacon_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
# beacon at the lake
MQTT_BROKER=tcp://pi.local:1883
BEACON_LAT=47.3667
BEACON_LON=8.5500
EXTENDED_HAPTICS=true
PULSE_PERIOD=250
LONG_FOCUS=0
HEADING_SOURCES=course
DISPLAY_I2C_ADDR=0x3D
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "tcp://pi.local:1883", cfg.MQTTBroker)
	require.Equal(t, 47.3667, cfg.BeaconLat)
	require.True(t, cfg.ExtendedHaptics)
	require.Equal(t, uint16(0x3D), cfg.DisplayI2CAddr)

	// untouched keys keep their defaults
	require.Equal(t, "beacon/events", cfg.TopicEvents)
	require.Equal(t, 9600, cfg.GPSBaudRate)

	b := cfg.Beacon()
	require.Equal(t, 250*time.Millisecond, b.Cue.PulsePeriod)
	require.Equal(t, time.Duration(0), b.Wand.LongFocusAfter)
	require.Equal(t, 110.0, b.Window())

	order, err := cfg.HeadingOrder()
	require.NoError(t, err)
	require.Equal(t, []heading.Source{heading.SourceCourse}, order)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	require.Equal(t, 500, cfg.PulsePeriod)
	require.Equal(t, uint16(0x3C), cfg.DisplayI2CAddr)
	require.Equal(t, 2*time.Second, cfg.HeadingStale())

	order, err := cfg.HeadingOrder()
	require.NoError(t, err)
	require.Equal(t, []heading.Source{heading.SourceDevice, heading.SourceCourse}, order)
	require.Equal(t, 20.0, cfg.Detector().EnterTilt)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "PULSE_PERIOD=250\n")
	t.Setenv("BEACON_PULSE_PERIOD", "750")
	t.Setenv("BEACON_TOPIC_STATUS", "lab/status")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 750, cfg.PulsePeriod)
	require.Equal(t, "lab/status", cfg.TopicStatus)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "BEACON_HEIGHT=3\n",
		"bad latitude":     "BEACON_LAT=95\n",
		"zero period":      "PULSE_PERIOD=0\n",
		"bad source":       "HEADING_SOURCES=device,gyro\n",
		"duplicate source": "HEADING_SOURCES=device,device\n",
		"silent too wide":  "SILENT_DISTANCE=40\n",
		"tilt inverted":    "FLAT_ENTER_TILT=40\nFLAT_EXIT_TILT=30\n",
		"bad i2c address":  "DISPLAY_I2C_ADDR=zz\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
