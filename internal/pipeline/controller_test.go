package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gesture_computer/internal/features"
	"github.com/relabs-tech/gesture_computer/internal/forest"
	"github.com/relabs-tech/gesture_computer/internal/sample"
)

// recorder captures everything the controller reports.
type recorder struct {
	results  []forest.Result
	ends     []int64
	events   []Event
	failures []error
}

func (r *recorder) Result(res forest.Result, windowEnd int64) {
	r.results = append(r.results, res)
	r.ends = append(r.ends, windowEnd)
}

func (r *recorder) Event(ev Event)    { r.events = append(r.events, ev) }
func (r *recorder) Failure(err error) { r.failures = append(r.failures, err) }

// stumpModel classifies on x_mean (feature 0): <= 500 is idle, above is shake.
func stumpModel(windowSize int) *forest.Model {
	idle, shake := 0, 1
	return &forest.Model{
		Scale:        sample.Scale,
		WindowSize:   windowSize,
		FeatureCount: features.Count,
		Labels:       []string{"idle", "shake"},
		Trees: []forest.Tree{{Nodes: []forest.Node{
			{Feature: 0, Threshold: 500, Left: 1, Right: 2},
			{Leaf: &idle},
			{Leaf: &shake},
		}}},
	}
}

func feed(c *Controller, startTS int64, n int, x int32) {
	for i := 0; i < n; i++ {
		c.OnSample(sample.Sample{Timestamp: startTS + int64(i)*20, X: x, Y: 0, Z: 1000})
	}
}

func TestControllerWarmupEmitsNothing(t *testing.T) {
	rec := &recorder{}
	c, err := New(stumpModel(4), Config{}, rec)
	require.NoError(t, err)

	feed(c, 0, 3, 100)

	assert.Empty(t, rec.results)
	assert.Empty(t, rec.failures)
	assert.Equal(t, StateAccumulating, c.State())
}

func TestControllerNonOverlappingWindows(t *testing.T) {
	rec := &recorder{}
	c, err := New(stumpModel(4), Config{}, rec)
	require.NoError(t, err)

	// 12 samples at stride 4 (the default): exactly 3 windows.
	feed(c, 0, 12, 100)

	require.Len(t, rec.results, 3)
	assert.Empty(t, rec.failures)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 3, c.WindowsClassified())
	for _, res := range rec.results {
		assert.Equal(t, "idle", res.Label)
		assert.Equal(t, 1.0, res.Confidence)
	}
	// Window ends land on every 4th sample.
	assert.Equal(t, []int64{60, 140, 220}, rec.ends)
}

func TestControllerSlidingWindows(t *testing.T) {
	rec := &recorder{}
	c, err := New(stumpModel(4), Config{Stride: 1}, rec)
	require.NoError(t, err)

	feed(c, 0, 10, 900)

	// First window completes at sample 4; every sample after that slides.
	assert.Len(t, rec.results, 7)
	for _, res := range rec.results {
		assert.Equal(t, "shake", res.Label)
	}
}

func TestControllerRecoversFromFeatureMismatch(t *testing.T) {
	m := stumpModel(4)
	m.FeatureCount = 5 // extractor produces features.Count, model wants 5

	rec := &recorder{}
	c, err := New(m, Config{}, rec)
	require.NoError(t, err)

	feed(c, 0, 8, 100)

	// Two windows, both fail, acquisition never stops and nothing is raised.
	assert.Empty(t, rec.results)
	require.Len(t, rec.failures, 2)
	for _, ferr := range rec.failures {
		assert.ErrorIs(t, ferr, forest.ErrFeatureMismatch)
	}
	assert.Equal(t, StateIdle, c.State())
}

func TestControllerDebouncedEvent(t *testing.T) {
	rec := &recorder{}
	cfg := Config{Debounce: DebounceConfig{
		MinWindows: 3, MinSpanMS: 100, MaxWindows: 3, MaxSpanMS: 2000,
	}}
	c, err := New(stumpModel(4), cfg, rec)
	require.NoError(t, err)

	// Each batch of 4 samples is one shake window; window ends are 80 ms
	// apart, so the third result crosses the 100 ms span requirement.
	feed(c, 0, 12, 900)

	require.Len(t, rec.results, 3)
	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, "shake", ev.Label)
	assert.Equal(t, 1, ev.LabelIndex)
	assert.Equal(t, 3, ev.Windows)
	assert.Equal(t, int64(60), ev.FirstTS)
	assert.Equal(t, int64(220), ev.LastTS)
}

func TestControllerIdleNeverDebounces(t *testing.T) {
	rec := &recorder{}
	cfg := Config{Debounce: DebounceConfig{
		MinWindows: 2, MinSpanMS: 10, MaxWindows: 2, MaxSpanMS: 2000,
	}}
	c, err := New(stumpModel(4), cfg, rec)
	require.NoError(t, err)

	feed(c, 0, 20, 100) // all idle windows

	assert.Len(t, rec.results, 5)
	assert.Empty(t, rec.events)
}

func TestControllerRejectsBadStride(t *testing.T) {
	rec := &recorder{}

	_, err := New(stumpModel(4), Config{Stride: 5}, rec)
	assert.Error(t, err)

	_, err = New(stumpModel(4), Config{Stride: -1}, rec)
	assert.Error(t, err)
}

func TestControllerRequiresReporter(t *testing.T) {
	_, err := New(stumpModel(4), Config{}, nil)
	assert.Error(t, err)
}
