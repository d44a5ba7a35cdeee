package forest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/relabs-tech/gesture_computer/internal/sample"
)

// default_model.json is the compiled-in forest used when no MODEL_PATH is
// configured, so the producer can run on a freshly flashed device.
//
//go:embed default_model.json
var defaultModel []byte

// Load parses and validates a serialized model. The model's fixed-point
// scale must match the sample scale of this build; a model trained at a
// different scale would classify systematically wrong, so it is rejected
// here instead.
func Load(r io.Reader) (*Model, error) {
	var m Model
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Scale != sample.Scale {
		return nil, fmt.Errorf("%w: model scale %d, pipeline uses %d",
			ErrMalformedModel, m.Scale, sample.Scale)
	}
	return &m, nil
}

// LoadFile loads a model from disk.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("forest: open model file: %w", err)
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}
	return m, nil
}

// LoadDefault returns the embedded default model.
func LoadDefault() (*Model, error) {
	m, err := Load(bytes.NewReader(defaultModel))
	if err != nil {
		return nil, fmt.Errorf("embedded default model: %w", err)
	}
	return m, nil
}

// Save writes the model back out in the load format. Loading what Save wrote
// yields an equivalent model (same node counts, labels and traversal order).
func (m *Model) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("forest: encode model: %w", err)
	}
	return nil
}
