// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/gesture_computer/internal/sample"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock accelerometer that alternates between rest
// and a shake-like oscillation every few seconds, so the whole pipeline can
// be exercised without hardware.
func NewMockSource() sample.Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (sample.Sample, error) {
	elapsed := time.Since(m.start).Seconds()

	// 4 s cycle: 2 s rest (gravity on Z plus a little noise), 2 s shaking
	// hard along X.
	shaking := math.Mod(elapsed, 4) >= 2

	x := 30 * math.Sin(elapsed*7)
	z := 1000.0
	if shaking {
		x = 900 * math.Sin(elapsed*2*math.Pi*8)
		z = 1000 + 200*math.Sin(elapsed*2*math.Pi*5)
	}

	return sample.Sample{
		Timestamp: time.Now().UnixMilli(),
		X:         int32(x),
		Y:         int32(20 * math.Cos(elapsed*3)),
		Z:         int32(z),
	}, nil
}
