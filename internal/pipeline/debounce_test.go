package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerDisabled(t *testing.T) {
	d := newDebouncer(DebounceConfig{})

	for ts := int64(0); ts < 10000; ts += 100 {
		_, ok := d.observe(ts, 1)
		assert.False(t, ok)
	}
	assert.Empty(t, d.pending)
}

func TestDebouncerFiresOnAgreement(t *testing.T) {
	d := newDebouncer(DebounceConfig{MinWindows: 3, MinSpanMS: 100, MaxWindows: 3, MaxSpanMS: 2000})

	_, ok := d.observe(0, 2)
	assert.False(t, ok)
	_, ok = d.observe(80, 2)
	assert.False(t, ok)

	ev, ok := d.observe(160, 1)
	require.True(t, ok)
	assert.Equal(t, 2, ev.LabelIndex, "majority label wins")
	assert.Equal(t, 3, ev.Windows)
	assert.Equal(t, int64(0), ev.FirstTS)
	assert.Equal(t, int64(160), ev.LastTS)
	assert.Empty(t, d.pending, "buffer clears after an event")
}

func TestDebouncerTieBreaksToLowestLabel(t *testing.T) {
	d := newDebouncer(DebounceConfig{MinWindows: 4, MinSpanMS: 50, MaxWindows: 4, MaxSpanMS: 5000})

	d.observe(0, 3)
	d.observe(40, 1)
	d.observe(80, 3)
	ev, ok := d.observe(120, 1)
	require.True(t, ok)
	assert.Equal(t, 1, ev.LabelIndex)
}

func TestDebouncerNeedsEnoughSpan(t *testing.T) {
	d := newDebouncer(DebounceConfig{MinWindows: 2, MinSpanMS: 500, MaxWindows: 2, MaxSpanMS: 2000})

	// Two quick results: count satisfied, span not.
	_, ok := d.observe(0, 1)
	assert.False(t, ok)
	_, ok = d.observe(100, 1)
	assert.False(t, ok)
	assert.Len(t, d.pending, 2)

	ev, ok := d.observe(600, 1)
	require.True(t, ok)
	assert.Equal(t, 1, ev.LabelIndex)
}

func TestDebouncerPurgesStaleBuffer(t *testing.T) {
	d := newDebouncer(DebounceConfig{MinWindows: 5, MinSpanMS: 100, MaxWindows: 5, MaxSpanMS: 1000})

	// Two results spread over more than MaxSpanMS: too sparse, dropped.
	_, ok := d.observe(0, 1)
	assert.False(t, ok)
	_, ok = d.observe(1500, 1)
	assert.False(t, ok)
	assert.Empty(t, d.pending)
}
