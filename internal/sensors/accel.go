// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/sample"
)

// countsPerG is the MPU9250 accelerometer sensitivity at the default
// ±2g range. Raw counts are converted to milli-g before they enter the
// pipeline so samples, features and model thresholds share one unit.
const countsPerG = 16384

type accelSource struct {
	imu *mpu9250.MPU9250
}

// NewAccelSource initializes the MPU9250 over SPI and returns a sample
// source producing milli-g readings at whatever rate the caller polls.
func NewAccelSource() (sample.Source, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("accel: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.AccelCSPin)
	if cs == nil {
		return nil, fmt.Errorf("accel: CS pin %q not found", cfg.AccelCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.AccelSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("accel: SPI transport (%s): %w", cfg.AccelSPIDevice, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("accel: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("accel: initialization: %w", err)
	}

	// Self-test
	testResult, err := imu.SelfTest()
	if err != nil {
		log.Printf("Warning: accel self-test failed: %v", err)
	} else {
		log.Printf("accel self-test passed:")
		log.Printf("  Accelerometer deviation: X: %.2f%%, Y: %.2f%%, Z: %.2f%%",
			testResult.AccelDeviation.X, testResult.AccelDeviation.Y, testResult.AccelDeviation.Z)
	}

	// Calibration
	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: accel calibration failed: %v", err)
	} else {
		log.Println("accel calibration complete")
	}

	return &accelSource{imu: imu}, nil
}

// Next reads one 3-axis sample and converts raw counts to milli-g.
func (s *accelSource) Next() (sample.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return sample.Sample{}, fmt.Errorf("accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return sample.Sample{}, fmt.Errorf("accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return sample.Sample{}, fmt.Errorf("accel Z: %w", err)
	}

	return sample.Sample{
		Timestamp: time.Now().UnixMilli(),
		X:         countsToMilliG(ax),
		Y:         countsToMilliG(ay),
		Z:         countsToMilliG(az),
	}, nil
}

func countsToMilliG(raw int16) int32 {
	return int32(int64(raw) * sample.Scale / countsPerG)
}
