package pipeline

// The debounce layer suppresses one-off classifications: a single window
// voting "shake" during an otherwise still second is noise, a run of
// agreeing windows inside a short span is a gesture. Results are collected
// as (timestamp, label) pairs and an event fires once enough of them arrived
// close enough together, taking the most frequent label among the first
// MinWindows pairs.

// DebounceConfig tunes the layer. MinWindows == 0 disables debouncing
// entirely (no events are ever emitted, only per-window results).
type DebounceConfig struct {
	// MinWindows is how many non-idle results must accumulate before an
	// event can fire.
	MinWindows int
	// MinSpanMS is the minimum time between the first and last collected
	// result for an event to fire.
	MinSpanMS int64
	// MaxWindows and MaxSpanMS purge a stale buffer: when the span already
	// exceeds MaxSpanMS but no more than MaxWindows results arrived, the
	// collected pairs are too sparse to be one gesture and are dropped.
	MaxWindows int
	MaxSpanMS  int64
}

// DefaultDebounce mirrors the tuning the classifier was field-tested with
// at a 50 Hz sample rate.
var DefaultDebounce = DebounceConfig{
	MinWindows: 9,
	MinSpanMS:  450,
	MaxWindows: 9,
	MaxSpanMS:  2000,
}

// Event is a debounced, confirmed gesture.
type Event struct {
	Label      string `json:"label"`
	LabelIndex int    `json:"label_index"`
	Windows    int    `json:"windows"`  // results that backed the decision
	FirstTS    int64  `json:"first_ts"` // window-end timestamps, ms
	LastTS     int64  `json:"last_ts"`
}

type labelAt struct {
	ts    int64
	label int
}

type debouncer struct {
	cfg     DebounceConfig
	pending []labelAt
}

func newDebouncer(cfg DebounceConfig) *debouncer {
	return &debouncer{cfg: cfg}
}

// observe records one non-idle classification and reports whether it
// completed a gesture event.
func (d *debouncer) observe(ts int64, label int) (Event, bool) {
	if d.cfg.MinWindows <= 0 {
		return Event{}, false
	}

	d.pending = append(d.pending, labelAt{ts: ts, label: label})
	span := d.span()

	if len(d.pending) >= d.cfg.MinWindows && span > d.cfg.MinSpanMS {
		considered := d.pending[:d.cfg.MinWindows]
		ev := Event{
			LabelIndex: mostFrequent(considered),
			Windows:    len(considered),
			FirstTS:    considered[0].ts,
			LastTS:     considered[len(considered)-1].ts,
		}
		d.pending = nil
		return ev, true
	}

	// Stale purge: too much time passed for too few results.
	if len(d.pending) <= d.cfg.MaxWindows && span >= d.cfg.MaxSpanMS {
		d.pending = nil
	}
	return Event{}, false
}

func (d *debouncer) span() int64 {
	if len(d.pending) < 2 {
		return 0
	}
	return d.pending[len(d.pending)-1].ts - d.pending[0].ts
}

// mostFrequent returns the label with the highest count; ties break toward
// the lowest label index, matching the forest's own tie-break rule.
func mostFrequent(entries []labelAt) int {
	counts := make(map[int]int, len(entries))
	best := -1
	for _, e := range entries {
		counts[e.label]++
	}
	for label, n := range counts {
		if best == -1 || n > counts[best] || (n == counts[best] && label < best) {
			best = label
		}
	}
	return best
}
