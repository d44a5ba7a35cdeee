package sample

// Sample represents a single 3-axis accelerometer reading.
// Axis values are fixed-point milli-g (1000 = 1 g), see Scale.
type Sample struct {
	Timestamp int64 `json:"ts"` // milliseconds since epoch

	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Scale is the fixed-point scale factor shared by samples, features and
// model thresholds: 1000 units per g. A model trained at any other scale
// must not be evaluated against these samples.
const Scale = 1000

// Source yields samples in strictly increasing timestamp order.
type Source interface {
	Next() (Sample, error)
}
