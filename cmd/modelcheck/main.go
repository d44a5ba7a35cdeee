// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// modelcheck is an offline diagnostic for serialized forest models: it loads
// and validates a model file (or the embedded default), prints its structure,
// and can re-serialize it to verify the save/load round trip.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/gesture_computer/internal/features"
	"github.com/relabs-tech/gesture_computer/internal/forest"
)

func main() {
	modelPath := flag.String("model", "", "model file to check (empty = embedded default)")
	outPath := flag.String("resave", "", "optional path to re-serialize the model to")
	flag.Parse()

	var (
		model *forest.Model
		err   error
	)
	if *modelPath == "" {
		model, err = forest.LoadDefault()
	} else {
		model, err = forest.LoadFile(*modelPath)
	}
	if err != nil {
		log.Fatalf("model check failed: %v", err)
	}

	fmt.Printf("model OK\n")
	fmt.Printf("  scale:    %d units/g\n", model.Scale)
	fmt.Printf("  window:   %d samples\n", model.WindowSize)
	fmt.Printf("  features: %d declared", model.FeatureCount)
	if model.FeatureCount == features.Count {
		fmt.Printf(" (matches extractor)\n")
	} else {
		fmt.Printf(" (MISMATCH: extractor produces %d — every window will fail)\n", features.Count)
	}
	fmt.Printf("  labels:   %v\n", model.Labels)
	fmt.Printf("  trees:    %d\n", len(model.Trees))
	for ti := range model.Trees {
		t := &model.Trees[ti]
		leaves := 0
		for ni := range t.Nodes {
			if t.Nodes[ni].IsLeaf() {
				leaves++
			}
		}
		fmt.Printf("    tree %d: %d nodes, %d leaves, depth %d\n", ti, len(t.Nodes), leaves, t.Depth())
	}

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("create %s: %v", *outPath, err)
		}
		defer f.Close()
		if err := model.Save(f); err != nil {
			log.Fatalf("re-serialize: %v", err)
		}
		log.Printf("model re-serialized to %s", *outPath)
	}
}
