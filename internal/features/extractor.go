// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package features

import (
	"fmt"

	"github.com/relabs-tech/gesture_computer/internal/sample"
)

// The feature layout is a contract with the trained model, not an
// implementation detail: the forest was trained on vectors in exactly this
// order, and any drift here silently produces garbage classifications
// without erroring. Change only together with the training side.
//
// Per axis, in axis order X, Y, Z:
//
//	mean, min, max, variance, energy, zero crossings
//
// Mean/min/max are in milli-g, variance and energy (sum of squared
// deviations) in milli-g squared, zero crossings is a count. All integer
// arithmetic; mean and variance use truncating division by W.
const (
	PerAxis = 6
	Axes    = 3

	// Count is F, the feature vector length.
	Count = PerAxis * Axes
)

// Names lists the features in vector order, for diagnostics.
var Names = [Count]string{
	"x_mean", "x_min", "x_max", "x_var", "x_energy", "x_zc",
	"y_mean", "y_min", "y_max", "y_var", "y_energy", "y_zc",
	"z_mean", "z_min", "z_max", "z_var", "z_energy", "z_zc",
}

// Extractor turns full windows of exactly W samples into feature vectors.
type Extractor struct {
	windowSize int
}

// NewExtractor creates an extractor for windows of exactly windowSize samples.
func NewExtractor(windowSize int) (*Extractor, error) {
	if windowSize <= 1 {
		return nil, fmt.Errorf("features: window size must be > 1, got %d", windowSize)
	}
	return &Extractor{windowSize: windowSize}, nil
}

// WindowSize returns the window length this extractor accepts.
func (e *Extractor) WindowSize() int { return e.windowSize }

// Extract computes the feature vector for one window. It is a pure function
// of the window contents: identical samples always yield an identical
// vector. A window whose length is not exactly the configured size is a
// programmer error upstream and is rejected.
func (e *Extractor) Extract(win []sample.Sample) ([]int64, error) {
	if len(win) != e.windowSize {
		return nil, fmt.Errorf("features: window has %d samples, want exactly %d", len(win), e.windowSize)
	}

	vec := make([]int64, Count)
	for axis := 0; axis < Axes; axis++ {
		axisFeatures(win, axis, vec[axis*PerAxis:(axis+1)*PerAxis])
	}
	return vec, nil
}

func axisValue(s sample.Sample, axis int) int64 {
	switch axis {
	case 0:
		return int64(s.X)
	case 1:
		return int64(s.Y)
	default:
		return int64(s.Z)
	}
}

// axisFeatures fills out[0:6] with mean, min, max, variance, energy and
// zero-crossing count for one axis.
func axisFeatures(win []sample.Sample, axis int, out []int64) {
	n := int64(len(win))

	var sum int64
	min := axisValue(win[0], axis)
	max := min
	for _, s := range win {
		v := axisValue(s, axis)
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / n

	// Energy is the sum of squared deviations from the mean; with milli-g
	// samples bounded by |v| < 2^15*2 and W in the hundreds this stays far
	// below int64 overflow.
	var energy int64
	var crossings int64
	prev := int64(0)
	for i, s := range win {
		d := axisValue(s, axis) - mean
		energy += d * d
		if i > 0 && ((d > 0 && prev < 0) || (d < 0 && prev > 0)) {
			crossings++
		}
		if d != 0 {
			prev = d
		}
	}

	out[0] = mean
	out[1] = min
	out[2] = max
	out[3] = energy / n
	out[4] = energy
	out[5] = crossings
}
