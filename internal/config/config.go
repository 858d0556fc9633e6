// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/relabs-tech/haptic_beacon/internal/beacon"
	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/geo"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
	"github.com/relabs-tech/haptic_beacon/internal/motion"
	"github.com/relabs-tech/haptic_beacon/internal/wand"
)

// EnvPrefix prefixes environment overrides, e.g. BEACON_MQTT_BROKER.
const EnvPrefix = "BEACON"

// ErrInvalid is wrapped by every load and validation error.
var ErrInvalid = errors.New("config: invalid")

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDBeacon   string
	MQTTClientIDProducer string
	MQTTClientIDGPS      string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicPose       string
	TopicGPS        string
	TopicEvents     string
	TopicStatus     string
	TopicControl    string
	TopicHaptics    string
	TopicAudio      string
	TopicAudioLevel string

	// Beacon
	BeaconLat   float64
	BeaconLon   float64
	BeaconAsset string

	// Cue policy
	AudioWindow     float64
	SilentDistance  float64
	ExtendedHaptics bool
	PulsePeriod     int // milliseconds

	// Wand
	TargetWindow         float64
	ExtendedTargetWindow float64
	ThresholdWindow      float64
	LongFocus            int // milliseconds, 0 disables
	RetargetDegrees      float64

	// Headings
	HeadingSources string // comma separated, most preferred first
	HeadingStaleMS int
	StatusInterval int // milliseconds
	FlatEnterTilt  float64
	FlatExitTilt   float64

	// IMU Hardware
	IMUSPIDevice      string
	IMUCSPin          string
	IMUSampleInterval int // milliseconds

	// Haptic motor
	HapticGPIOPin string // empty disables the motor

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	ConsoleLogInterval int // milliseconds
	LogLevel           string
}

// defaults doubles as the list of known keys.
var defaults = map[string]any{
	"MQTT_BROKER":             "tcp://localhost:1883",
	"MQTT_CLIENT_ID_BEACON":   "haptic-beacon",
	"MQTT_CLIENT_ID_PRODUCER": "haptic-beacon-producer",
	"MQTT_CLIENT_ID_GPS":      "haptic-beacon-gps",
	"MQTT_CLIENT_ID_CONSOLE":  "haptic-beacon-console",
	"MQTT_CLIENT_ID_WEB":      "haptic-beacon-web",
	"MQTT_CLIENT_ID_DISPLAY":  "haptic-beacon-display",

	"TOPIC_POSE":        "beacon/pose",
	"TOPIC_GPS":         "beacon/gps",
	"TOPIC_EVENTS":      "beacon/events",
	"TOPIC_STATUS":      "beacon/status",
	"TOPIC_CONTROL":     "beacon/control",
	"TOPIC_HAPTICS":     "beacon/haptics",
	"TOPIC_AUDIO":       "beacon/audio",
	"TOPIC_AUDIO_LEVEL": "beacon/audio/level",

	"BEACON_LAT":   0.0,
	"BEACON_LON":   0.0,
	"BEACON_ASSET": "beacon.wav",

	"AUDIO_WINDOW":     60.0,
	"SILENT_DISTANCE":  15.0,
	"EXTENDED_HAPTICS": false,
	"PULSE_PERIOD":     500,

	"TARGET_WINDOW":          30.0,
	"EXTENDED_TARGET_WINDOW": 110.0,
	"THRESHOLD_WINDOW":       0.0,
	"LONG_FOCUS":             5000,
	"RETARGET_DEGREES":       5.0,

	"HEADING_SOURCES":  "device,course",
	"HEADING_STALE_MS": 2000,
	"STATUS_INTERVAL":  1000,
	"FLAT_ENTER_TILT":  20.0,
	"FLAT_EXIT_TILT":   30.0,

	"IMU_SPI_DEVICE":      "/dev/spidev0.0",
	"IMU_CS_PIN":          "",
	"IMU_SAMPLE_INTERVAL": 50,

	"HAPTIC_GPIO_PIN": "",

	"GPS_SERIAL_PORT": "/dev/serial0",
	"GPS_BAUD_RATE":   9600,

	"WEB_SERVER_PORT": 8080,

	"DISPLAY_I2C_BUS":         "",
	"DISPLAY_I2C_ADDR":        "0x3C",
	"DISPLAY_UPDATE_INTERVAL": 500,

	"CONSOLE_LOG_INTERVAL": 1000,
	"LOG_LEVEL":            "info",
}

// Package-level singleton, set once by InitGlobal and read through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads a KEY=VALUE configuration file. Missing keys take their
// defaults, BEACON_<KEY> environment variables override the file, and
// unknown keys are rejected. An empty path loads defaults and environment
// only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// viper lowercases keys; anything not in defaults came from the file
	var unknown []string
	for _, key := range v.AllKeys() {
		if _, ok := defaults[strings.ToUpper(key)]; !ok {
			unknown = append(unknown, strings.ToUpper(key))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown config key(s): %s", ErrInvalid, strings.Join(unknown, ", "))
	}

	addr, err := strconv.ParseUint(v.GetString("DISPLAY_I2C_ADDR"), 0, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: DISPLAY_I2C_ADDR %q: %v", ErrInvalid, v.GetString("DISPLAY_I2C_ADDR"), err)
	}

	cfg := &Config{
		MQTTBroker:           v.GetString("MQTT_BROKER"),
		MQTTClientIDBeacon:   v.GetString("MQTT_CLIENT_ID_BEACON"),
		MQTTClientIDProducer: v.GetString("MQTT_CLIENT_ID_PRODUCER"),
		MQTTClientIDGPS:      v.GetString("MQTT_CLIENT_ID_GPS"),
		MQTTClientIDConsole:  v.GetString("MQTT_CLIENT_ID_CONSOLE"),
		MQTTClientIDWeb:      v.GetString("MQTT_CLIENT_ID_WEB"),
		MQTTClientIDDisplay:  v.GetString("MQTT_CLIENT_ID_DISPLAY"),

		TopicPose:       v.GetString("TOPIC_POSE"),
		TopicGPS:        v.GetString("TOPIC_GPS"),
		TopicEvents:     v.GetString("TOPIC_EVENTS"),
		TopicStatus:     v.GetString("TOPIC_STATUS"),
		TopicControl:    v.GetString("TOPIC_CONTROL"),
		TopicHaptics:    v.GetString("TOPIC_HAPTICS"),
		TopicAudio:      v.GetString("TOPIC_AUDIO"),
		TopicAudioLevel: v.GetString("TOPIC_AUDIO_LEVEL"),

		BeaconLat:   v.GetFloat64("BEACON_LAT"),
		BeaconLon:   v.GetFloat64("BEACON_LON"),
		BeaconAsset: v.GetString("BEACON_ASSET"),

		AudioWindow:     v.GetFloat64("AUDIO_WINDOW"),
		SilentDistance:  v.GetFloat64("SILENT_DISTANCE"),
		ExtendedHaptics: v.GetBool("EXTENDED_HAPTICS"),
		PulsePeriod:     v.GetInt("PULSE_PERIOD"),

		TargetWindow:         v.GetFloat64("TARGET_WINDOW"),
		ExtendedTargetWindow: v.GetFloat64("EXTENDED_TARGET_WINDOW"),
		ThresholdWindow:      v.GetFloat64("THRESHOLD_WINDOW"),
		LongFocus:            v.GetInt("LONG_FOCUS"),
		RetargetDegrees:      v.GetFloat64("RETARGET_DEGREES"),

		HeadingSources: v.GetString("HEADING_SOURCES"),
		HeadingStaleMS: v.GetInt("HEADING_STALE_MS"),
		StatusInterval: v.GetInt("STATUS_INTERVAL"),
		FlatEnterTilt:  v.GetFloat64("FLAT_ENTER_TILT"),
		FlatExitTilt:   v.GetFloat64("FLAT_EXIT_TILT"),

		IMUSPIDevice:      v.GetString("IMU_SPI_DEVICE"),
		IMUCSPin:          v.GetString("IMU_CS_PIN"),
		IMUSampleInterval: v.GetInt("IMU_SAMPLE_INTERVAL"),

		HapticGPIOPin: v.GetString("HAPTIC_GPIO_PIN"),

		GPSSerialPort: v.GetString("GPS_SERIAL_PORT"),
		GPSBaudRate:   v.GetInt("GPS_BAUD_RATE"),

		WebServerPort: v.GetInt("WEB_SERVER_PORT"),

		DisplayI2CBus:         v.GetString("DISPLAY_I2C_BUS"),
		DisplayI2CAddr:        uint16(addr),
		DisplayUpdateInterval: v.GetInt("DISPLAY_UPDATE_INTERVAL"),

		ConsoleLogInterval: v.GetInt("CONSOLE_LOG_INTERVAL"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks required and ranged values.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("%w: MQTT_BROKER is required", ErrInvalid)
	}
	if err := c.Location().Validate(); err != nil {
		return fmt.Errorf("%w: BEACON_LAT/BEACON_LON: %v", ErrInvalid, err)
	}
	if c.PulsePeriod <= 0 {
		return fmt.Errorf("%w: PULSE_PERIOD must be positive, got %d", ErrInvalid, c.PulsePeriod)
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("%w: IMU_SAMPLE_INTERVAL must be positive, got %d", ErrInvalid, c.IMUSampleInterval)
	}
	if c.StatusInterval <= 0 || c.ConsoleLogInterval <= 0 || c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("%w: STATUS_INTERVAL, CONSOLE_LOG_INTERVAL and DISPLAY_UPDATE_INTERVAL must be positive", ErrInvalid)
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("%w: GPS_BAUD_RATE must be positive", ErrInvalid)
	}
	if c.LongFocus < 0 || c.HeadingStaleMS < 0 {
		return fmt.Errorf("%w: LONG_FOCUS and HEADING_STALE_MS must not be negative", ErrInvalid)
	}
	if _, err := c.HeadingOrder(); err != nil {
		return fmt.Errorf("%w: HEADING_SOURCES: %v", ErrInvalid, err)
	}
	if err := c.Detector().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Beacon().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Location returns the beacon position.
func (c *Config) Location() geo.Point {
	return geo.Point{Lat: c.BeaconLat, Lon: c.BeaconLon}
}

// Beacon builds the session settings.
func (c *Config) Beacon() beacon.Config {
	return beacon.Config{
		Cue: cue.Config{
			AudioWindow:     c.AudioWindow,
			ExtendedHaptics: c.ExtendedHaptics,
			SilentDistance:  c.SilentDistance,
			PulsePeriod:     ms(c.PulsePeriod),
		},
		Wand:                 wand.Config{LongFocusAfter: ms(c.LongFocus)},
		TargetWindow:         c.TargetWindow,
		ExtendedTargetWindow: c.ExtendedTargetWindow,
		ThresholdWindow:      c.ThresholdWindow,
		RetargetDegrees:      c.RetargetDegrees,
		Asset:                c.BeaconAsset,
	}
}

// Detector builds the flat detector settings.
func (c *Config) Detector() motion.DetectorConfig {
	return motion.DetectorConfig{EnterTilt: c.FlatEnterTilt, ExitTilt: c.FlatExitTilt}
}

// HeadingOrder parses HEADING_SOURCES.
func (c *Config) HeadingOrder() ([]heading.Source, error) {
	var out []heading.Source
	seen := map[heading.Source]bool{}
	for _, name := range strings.Split(c.HeadingSources, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		src, err := heading.ParseSource(name)
		if err != nil {
			return nil, err
		}
		if seen[src] {
			return nil, fmt.Errorf("duplicate source %s", src)
		}
		seen[src] = true
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, errors.New("no heading source")
	}
	return out, nil
}

// HeadingStale is HEADING_STALE_MS as a duration.
func (c *Config) HeadingStale() time.Duration { return ms(c.HeadingStaleMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// InitGlobal initializes the global configuration from file. Only the
// first call loads; later calls return nil.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
