// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package forest

import (
	"errors"
	"fmt"
)

// ErrMalformedModel marks structural problems detected at load time. A model
// that fails validation must never be evaluated; startup aborts instead.
var ErrMalformedModel = errors.New("forest: malformed model")

// Node is one decision node in a flat tree array. A node is a leaf iff Leaf
// is set, in which case Left/Right are unused; otherwise both children are
// indices into the same array. Thresholds share the fixed-point unit of the
// feature vector (milli-g, or milli-g squared for variance/energy features).
type Node struct {
	Feature   int   `json:"feature"`
	Threshold int64 `json:"threshold"`
	Left      int   `json:"left"`
	Right     int   `json:"right"`
	Leaf      *int  `json:"leaf,omitempty"`
}

// IsLeaf reports whether the node carries a class label.
func (n *Node) IsLeaf() bool { return n.Leaf != nil }

// Tree is a single decision tree stored as a contiguous node array with
// integer child links. The root is index 0. Trees are read-only after load,
// so evaluation needs no locking.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Model is a complete random forest plus the metadata that binds it to the
// feature pipeline it was trained against. Immutable after Load.
type Model struct {
	Scale        int      `json:"scale"`         // fixed-point units per g
	WindowSize   int      `json:"window_size"`   // W
	FeatureCount int      `json:"feature_count"` // F
	Labels       []string `json:"labels"`        // ordered; index is the vote/tie-break order
	Trees        []Tree   `json:"trees"`
}

// Validate runs the load-time sanity pass: metadata ranges, child indices,
// label indices, feature indices against the declared F, and a traversal
// that rejects cycles, shared subtrees and unreachable nodes. Evaluation
// termination in at most depth(tree) steps relies on this pass.
func (m *Model) Validate() error {
	if m.Scale <= 0 {
		return fmt.Errorf("%w: scale %d", ErrMalformedModel, m.Scale)
	}
	if m.WindowSize <= 1 {
		return fmt.Errorf("%w: window size %d", ErrMalformedModel, m.WindowSize)
	}
	if m.FeatureCount <= 0 {
		return fmt.Errorf("%w: feature count %d", ErrMalformedModel, m.FeatureCount)
	}
	if len(m.Labels) == 0 {
		return fmt.Errorf("%w: no labels", ErrMalformedModel)
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrMalformedModel)
	}

	for ti := range m.Trees {
		if err := m.validateTree(ti); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) validateTree(ti int) error {
	t := &m.Trees[ti]
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: tree %d has no nodes", ErrMalformedModel, ti)
	}

	for ni := range t.Nodes {
		n := &t.Nodes[ni]
		if n.IsLeaf() {
			if *n.Leaf < 0 || *n.Leaf >= len(m.Labels) {
				return fmt.Errorf("%w: tree %d node %d: leaf label %d outside %d labels",
					ErrMalformedModel, ti, ni, *n.Leaf, len(m.Labels))
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= m.FeatureCount {
			return fmt.Errorf("%w: tree %d node %d: feature index %d outside F=%d",
				ErrMalformedModel, ti, ni, n.Feature, m.FeatureCount)
		}
		for _, child := range [2]int{n.Left, n.Right} {
			// Index 0 is the root; a child link back to it is always a cycle.
			if child <= 0 || child >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d: child index %d outside [1,%d)",
					ErrMalformedModel, ti, ni, child, len(t.Nodes))
			}
		}
	}

	// Traversal pass: every node must be reached exactly once from the root.
	// A node seen twice means two parents (a cycle once links are followed),
	// a node never seen is dead weight in what should be a packed array.
	visited := make([]bool, len(t.Nodes))
	stack := []int{0}
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[ni] {
			return fmt.Errorf("%w: tree %d node %d reachable from two parents", ErrMalformedModel, ti, ni)
		}
		visited[ni] = true
		n := &t.Nodes[ni]
		if !n.IsLeaf() {
			stack = append(stack, n.Left, n.Right)
		}
	}
	for ni, seen := range visited {
		if !seen {
			return fmt.Errorf("%w: tree %d node %d unreachable from root", ErrMalformedModel, ti, ni)
		}
	}
	return nil
}

// Depth returns the maximum depth of the tree, the bound on evaluation steps.
// Only valid on a tree that passed Validate.
func (t *Tree) Depth() int {
	return t.depth(0)
}

func (t *Tree) depth(ni int) int {
	n := &t.Nodes[ni]
	if n.IsLeaf() {
		return 1
	}
	l := t.depth(n.Left)
	r := t.depth(n.Right)
	if l > r {
		return 1 + l
	}
	return 1 + r
}
