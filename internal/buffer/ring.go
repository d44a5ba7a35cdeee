// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package buffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/relabs-tech/gesture_computer/internal/sample"
)

// ErrInsufficientData is returned by SnapshotWindow until at least one full
// window of samples has been pushed. It is an expected transient state while
// the buffer warms up, not a failure.
var ErrInsufficientData = errors.New("buffer: not enough samples for a window")

// Ring is a fixed-capacity ring of accelerometer samples. Push evicts the
// oldest sample once the ring is full. A single mutex serializes Push and
// SnapshotWindow so a reader never observes a half-overwritten window.
type Ring struct {
	mu       sync.Mutex
	data     []sample.Sample
	head     int // next write position
	size     int
	capacity int
}

// NewRing creates a ring holding up to capacity samples.
// Capacity must be at least the window size the pipeline will request.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic(fmt.Sprintf("buffer: invalid capacity %d", capacity))
	}
	return &Ring{
		data:     make([]sample.Sample, capacity),
		capacity: capacity,
	}
}

// Push appends one sample, evicting the oldest when full.
func (r *Ring) Push(s sample.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[r.head] = s
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// SnapshotWindow copies the most recent w samples in arrival order
// (oldest first). It returns ErrInsufficientData until w samples have been
// pushed. The returned slice is a private copy; the caller owns it.
func (r *Ring) SnapshotWindow(w int) ([]sample.Sample, error) {
	if w <= 0 || w > r.capacity {
		return nil, fmt.Errorf("buffer: window size %d out of range (capacity %d)", w, r.capacity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < w {
		return nil, ErrInsufficientData
	}

	win := make([]sample.Sample, w)
	start := (r.head - w + r.capacity) % r.capacity
	for i := 0; i < w; i++ {
		win[i] = r.data[(start+i)%r.capacity]
	}
	return win, nil
}

// Size returns the number of samples currently held.
func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Capacity returns the fixed capacity of the ring.
func (r *Ring) Capacity() int {
	return r.capacity
}
