// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"fmt"
	"log"

	"github.com/relabs-tech/gesture_computer/internal/buffer"
	"github.com/relabs-tech/gesture_computer/internal/features"
	"github.com/relabs-tech/gesture_computer/internal/forest"
	"github.com/relabs-tech/gesture_computer/internal/sample"
)

// State is the controller's position in the acquisition cycle. Extracting,
// Classifying and Emitting are passed through synchronously inside OnSample;
// between samples the controller rests in Idle or Accumulating.
type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateExtracting
	StateClassifying
	StateEmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateExtracting:
		return "extracting"
	case StateClassifying:
		return "classifying"
	case StateEmitting:
		return "emitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reporter receives everything the pipeline produces. Implementations must
// not block for long; the acquisition loop runs on the calling goroutine.
type Reporter interface {
	// Result is called once per classified window.
	Result(res forest.Result, windowEnd int64)
	// Event is called when the debounce layer confirms a gesture.
	Event(ev Event)
	// Failure is called when a window could not be classified. The window
	// is discarded; acquisition continues.
	Failure(err error)
}

// Config tunes the controller. Stride is the number of new samples between
// classifications: Stride == window size gives non-overlapping windows (the
// cheap default), 1 <= Stride < window size gives sliding windows with lower
// latency at the cost of redundant computation.
type Config struct {
	Stride   int
	Debounce DebounceConfig
}

// Controller owns the gesture cycle: samples in, classification results and
// debounced gesture events out. It is single-threaded by design; all calls
// to OnSample must come from one goroutine (the sensor loop).
type Controller struct {
	model     *forest.Model
	ring      *buffer.Ring
	extractor *features.Extractor
	reporter  Reporter
	stride    int

	state     State
	sinceLast int
	windows   int

	debounce *debouncer
}

// New builds a controller around a validated model. The window size comes
// from the model; the ring is sized to hold exactly one window.
func New(model *forest.Model, cfg Config, reporter Reporter) (*Controller, error) {
	if reporter == nil {
		return nil, fmt.Errorf("pipeline: reporter is required")
	}
	stride := cfg.Stride
	if stride == 0 {
		stride = model.WindowSize
	}
	if stride < 1 || stride > model.WindowSize {
		return nil, fmt.Errorf("pipeline: stride %d outside [1,%d]", stride, model.WindowSize)
	}

	ext, err := features.NewExtractor(model.WindowSize)
	if err != nil {
		return nil, err
	}

	if model.FeatureCount != features.Count {
		// Not fatal here: classification fails loudly per window instead of
		// silently reading garbage, and the failure path keeps acquisition
		// alive. But it means the model cannot ever match this extractor.
		log.Printf("pipeline: WARNING: model declares F=%d, extractor produces %d; every window will fail",
			model.FeatureCount, features.Count)
	}

	return &Controller{
		model:     model,
		ring:      buffer.NewRing(model.WindowSize),
		extractor: ext,
		reporter:  reporter,
		stride:    stride,
		state:     StateIdle,
		debounce:  newDebouncer(cfg.Debounce),
	}, nil
}

// State returns the controller's current state.
func (c *Controller) State() State { return c.state }

// WindowsClassified returns the number of windows classified so far.
func (c *Controller) WindowsClassified() int { return c.windows }

// OnSample ingests one sample and, when a window boundary is reached, runs
// extraction, classification and emission synchronously before returning.
// Per-window failures are reported and recovered; OnSample never returns an
// error and never stops the acquisition loop.
func (c *Controller) OnSample(s sample.Sample) {
	c.ring.Push(s)
	c.state = StateAccumulating
	c.sinceLast++

	if c.ring.Size() < c.extractor.WindowSize() {
		// InsufficientData: expected while warming up, stay accumulating.
		return
	}
	if c.sinceLast < c.stride {
		return
	}
	c.sinceLast = 0

	c.state = StateExtracting
	win, err := c.ring.SnapshotWindow(c.extractor.WindowSize())
	if err != nil {
		c.fail(fmt.Errorf("snapshot: %w", err))
		return
	}

	vec, err := c.extractor.Extract(win)
	if err != nil {
		c.fail(fmt.Errorf("extract: %w", err))
		return
	}

	c.state = StateClassifying
	res, err := c.model.Classify(vec)
	if err != nil {
		c.fail(fmt.Errorf("classify: %w", err))
		return
	}

	c.state = StateEmitting
	c.windows++
	windowEnd := win[len(win)-1].Timestamp
	c.reporter.Result(res, windowEnd)

	// The idle class never enters the debounce buffer; only movement labels
	// are allowed to accumulate into a gesture event.
	if res.LabelIndex != idleLabel {
		if ev, ok := c.debounce.observe(windowEnd, res.LabelIndex); ok {
			ev.Label = c.model.Labels[ev.LabelIndex]
			c.reporter.Event(ev)
		}
	}

	c.state = StateIdle
}

// idleLabel is the rest class by model convention: label index 0.
const idleLabel = 0

func (c *Controller) fail(err error) {
	c.reporter.Failure(err)
	c.state = StateIdle
}
