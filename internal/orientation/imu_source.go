// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// gyroLSBPerDPS is the MPU9250 gyro sensitivity at the ±250°/s range the
// driver selects in Init.
const gyroLSBPerDPS = 131.0

// IMUConfig selects the MPU9250 the pose is read from.
type IMUConfig struct {
	SPIDevice string // e.g. "/dev/spidev0.0"
	CSPin     string // GPIO name of the chip select
	Calibrate bool   // run the driver's self-test and calibration at start
}

type imuSource struct {
	imu  *mpu9250.MPU9250
	yaw  float64
	last time.Time
}

// NewIMUSource initializes an MPU9250 over SPI and returns a Source that
// reads roll/pitch from the accelerometer and integrates yaw from the gyro
// z axis. Yaw starts at 0 and drifts; hosts re-seed it from a compass.
func NewIMUSource(cfg IMUConfig) (Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU CS pin %q not found", cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU SPI transport (%s): %w", cfg.SPIDevice, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU new device: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU init: %w", err)
	}

	if cfg.Calibrate {
		if _, err := imu.SelfTest(); err != nil {
			log.Warn("IMU self-test failed", "device", cfg.SPIDevice, "err", err)
		}
		if err := imu.Calibrate(); err != nil {
			log.Warn("IMU calibration failed", "device", cfg.SPIDevice, "err", err)
		}
	}

	log.Info("IMU ready", "device", cfg.SPIDevice, "cs", cfg.CSPin)
	return &imuSource{imu: imu}, nil
}

// Next reads the accelerometer and gyro z, and returns the current pose.
func (s *imuSource) Next() (Pose, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return Pose{}, fmt.Errorf("IMU acc X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return Pose{}, fmt.Errorf("IMU acc Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return Pose{}, fmt.Errorf("IMU acc Z: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return Pose{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	now := time.Now()
	if !s.last.IsZero() {
		s.yaw = IntegrateYaw(s.yaw, float64(gz)/gyroLSBPerDPS, now.Sub(s.last).Seconds())
	}
	s.last = now

	pose := ComputePoseFromAccel(float64(ax), float64(ay), float64(az))
	pose.Yaw = s.yaw
	return pose, nil
}
