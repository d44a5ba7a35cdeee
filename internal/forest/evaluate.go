package forest

import (
	"errors"
	"fmt"
)

// ErrFeatureMismatch reports a disagreement between the feature vector and
// the loaded model. It is the loud replacement for the silent garbage a
// wrong-length vector would otherwise produce: fatal to the window, never
// to the process.
var ErrFeatureMismatch = errors.New("forest: feature vector does not match model")

// Evaluate walks the tree from the root and returns the label index of the
// reached leaf. The split rule is fixed: features[feature] <= threshold
// descends left, otherwise right. Terminates in at most Depth() steps on a
// validated tree.
func (t *Tree) Evaluate(features []int64) (int, error) {
	ni := 0
	for {
		n := &t.Nodes[ni]
		if n.IsLeaf() {
			return *n.Leaf, nil
		}
		if n.Feature >= len(features) {
			return 0, fmt.Errorf("%w: node wants feature %d, vector has %d",
				ErrFeatureMismatch, n.Feature, len(features))
		}
		if features[n.Feature] <= n.Threshold {
			ni = n.Left
		} else {
			ni = n.Right
		}
	}
}
