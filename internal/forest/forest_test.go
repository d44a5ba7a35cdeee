package forest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(label int) Node {
	return Node{Leaf: &label}
}

func split(feature int, threshold int64, left, right int) Node {
	return Node{Feature: feature, Threshold: threshold, Left: left, Right: right}
}

// stump builds a depth-1 tree: feature 0 <= threshold -> leftLabel, else rightLabel.
func stump(threshold int64, leftLabel, rightLabel int) Tree {
	return Tree{Nodes: []Node{
		split(0, threshold, 1, 2),
		leaf(leftLabel),
		leaf(rightLabel),
	}}
}

func testModel(trees ...Tree) *Model {
	return &Model{
		Scale:        1000,
		WindowSize:   50,
		FeatureCount: 3,
		Labels:       []string{"idle", "shake", "tilt"},
		Trees:        trees,
	}
}

func TestEvaluateDescendsByThreshold(t *testing.T) {
	tr := stump(500, 0, 1)

	label, err := tr.Evaluate([]int64{200, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	// Equal to threshold goes left.
	label, err = tr.Evaluate([]int64{500, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	label, err = tr.Evaluate([]int64{501, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestEvaluateFeatureMismatchIsLoud(t *testing.T) {
	tr := Tree{Nodes: []Node{
		split(5, 0, 1, 2),
		leaf(0),
		leaf(1),
	}}

	_, err := tr.Evaluate([]int64{1, 2, 3})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestClassifySingleTreeConfidenceOne(t *testing.T) {
	m := testModel(stump(500, 1, 2))

	res, err := m.Classify([]int64{900, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "tilt", res.Label)
	assert.Equal(t, 2, res.LabelIndex)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, map[string]int{"tilt": 1}, res.Votes)
}

func TestClassifyTieBreaksToLowestLabelIndex(t *testing.T) {
	// Two trees voting for different labels with equal counts: the lower
	// index must win regardless of tree order.
	m := testModel(stump(500, 2, 0), stump(500, 1, 0))

	res, err := m.Classify([]int64{100, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "shake", res.Label)
	assert.Equal(t, 1, res.LabelIndex)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestClassifyTwoAgreeingStumps(t *testing.T) {
	// Spec scenario: depth-1 forest, both trees compare feature 0 against
	// the same threshold; a low vector makes both vote the left label.
	m := testModel(stump(500, 0, 1), stump(500, 0, 1))

	res, err := m.Classify([]int64{200, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "idle", res.Label)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestClassifyRejectsWrongVectorLength(t *testing.T) {
	m := testModel(stump(500, 0, 1))

	_, err := m.Classify([]int64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrFeatureMismatch)

	_, err = m.Classify([]int64{1, 2})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestValidateAcceptsWellFormedModel(t *testing.T) {
	m := testModel(stump(500, 0, 1), stump(200, 1, 2))
	assert.NoError(t, m.Validate())
	assert.Equal(t, 2, m.Trees[0].Depth())
}

func TestValidateRejectsMalformedModels(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Model)
	}{
		{"no trees", func(m *Model) { m.Trees = nil }},
		{"no labels", func(m *Model) { m.Labels = nil }},
		{"bad scale", func(m *Model) { m.Scale = 0 }},
		{"bad window", func(m *Model) { m.WindowSize = 1 }},
		{"empty tree", func(m *Model) { m.Trees[0].Nodes = nil }},
		{"feature index beyond F", func(m *Model) { m.Trees[0].Nodes[0].Feature = 3 }},
		{"leaf label beyond labels", func(m *Model) { *m.Trees[0].Nodes[1].Leaf = 7 }},
		{"child index out of range", func(m *Model) { m.Trees[0].Nodes[0].Right = 9 }},
		{"child points at root", func(m *Model) { m.Trees[0].Nodes[0].Left = 0 }},
		{"two parents for one node", func(m *Model) { m.Trees[0].Nodes[0].Right = 1 }},
		{"unreachable node", func(m *Model) {
			m.Trees[0].Nodes = append(m.Trees[0].Nodes, leaf(0))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := testModel(stump(500, 0, 1))
			tc.mutate(m)
			assert.ErrorIs(t, m.Validate(), ErrMalformedModel)
		})
	}
}

func TestLoadDefaultModel(t *testing.T) {
	m, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, 18, m.FeatureCount)
	assert.Equal(t, 50, m.WindowSize)
	assert.Equal(t, []string{"idle", "shake", "tilt", "flip"}, m.Labels)
	assert.Len(t, m.Trees, 3)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m, err := LoadDefault()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	back, err := Load(&buf)
	require.NoError(t, err)

	require.Len(t, back.Trees, len(m.Trees))
	for ti := range m.Trees {
		assert.Equal(t, m.Trees[ti].Nodes, back.Trees[ti].Nodes, "tree %d", ti)
	}
	assert.Equal(t, m.Labels, back.Labels)
	assert.Equal(t, m.Scale, back.Scale)
	assert.Equal(t, m.WindowSize, back.WindowSize)
	assert.Equal(t, m.FeatureCount, back.FeatureCount)
}

func TestLoadRejectsScaleMismatch(t *testing.T) {
	m := testModel(stump(500, 0, 1))
	m.Scale = 4096

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	_, err := Load(&buf)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("{not json")))
	assert.ErrorIs(t, err, ErrMalformedModel)
}
