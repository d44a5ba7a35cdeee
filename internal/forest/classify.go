package forest

import (
	"fmt"
)

// Result is one classification of one window. It has no identity beyond the
// window it describes; a fresh value is produced per window.
type Result struct {
	Label      string         `json:"label"`
	LabelIndex int            `json:"label_index"`
	Confidence float64        `json:"confidence"` // winning votes / total trees
	Votes      map[string]int `json:"votes"`
}

// Classify evaluates every tree against the same feature vector and returns
// the majority label. Ties break toward the lowest label index, so the
// training-time class ordering is part of the model contract. Either all
// trees vote or the call fails as a whole; no partial tallies escape.
//
// The vector length is checked against the model's declared F up front so a
// short vector fails for every tree rather than only for trees that happen
// to touch the missing features.
func (m *Model) Classify(features []int64) (Result, error) {
	if len(features) != m.FeatureCount {
		return Result{}, fmt.Errorf("%w: vector length %d, model trained on F=%d",
			ErrFeatureMismatch, len(features), m.FeatureCount)
	}

	votes := make([]int, len(m.Labels))
	for ti := range m.Trees {
		label, err := m.Trees[ti].Evaluate(features)
		if err != nil {
			return Result{}, fmt.Errorf("tree %d: %w", ti, err)
		}
		votes[label]++
	}

	winner := 0
	for li, v := range votes {
		if v > votes[winner] {
			winner = li
		}
	}

	byName := make(map[string]int, len(m.Labels))
	for li, v := range votes {
		if v > 0 {
			byName[m.Labels[li]] = v
		}
	}

	return Result{
		Label:      m.Labels[winner],
		LabelIndex: winner,
		Confidence: float64(votes[winner]) / float64(len(m.Trees)),
		Votes:      byName,
	}, nil
}
