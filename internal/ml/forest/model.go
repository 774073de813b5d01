// Package forest evaluates a frozen random-forest regression artifact.
// The volatility model is trained elsewhere; this package only loads
// the exported trees and averages their leaf values.
package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Node is one split (or leaf) in a regression tree, addressed by index
// into the flat node array. A node with Left < 0 is a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flat node array with the root at index 0.
type Tree []Node

type artifact struct {
	FeatureNames []string `json:"feature_names"`
	Trees        []Tree   `json:"trees"`
}

type Model struct {
	featureNames []string
	trees        []Tree
}

// New builds a model from in-memory trees, validating node references.
// Used by tests and offline artifact tooling.
func New(featureNames []string, trees []Tree) (*Model, error) {
	m := &Model{
		featureNames: append([]string(nil), featureNames...),
		trees:        trees,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Predict runs the sample through every tree and returns the mean of
// the leaf values.
func (m *Model) Predict(sample []float64) (float64, error) {
	if m == nil || len(m.trees) == 0 {
		return 0, errors.New("nil or empty model")
	}
	if len(sample) != len(m.featureNames) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.featureNames), len(sample))
	}
	sum := 0.0
	for _, tree := range m.trees {
		sum += evalTree(tree, sample)
	}
	out := sum / float64(len(m.trees))
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, errors.New("model produced a non-finite prediction")
	}
	return out, nil
}

func (m *Model) PredictBatch(samples [][]float64) ([]float64, error) {
	out := make([]float64, len(samples))
	for i := range samples {
		v, err := m.Predict(samples[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil || len(m.trees) == 0 {
		return nil, errors.New("nil model")
	}
	return json.Marshal(artifact{
		FeatureNames: m.featureNames,
		Trees:        m.trees,
	})
}

func UnmarshalBinary(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, err
	}
	return New(a.FeatureNames, a.Trees)
}

// LoadFile reads an artifact from disk.
func LoadFile(path string) (*Model, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalBinary(blob)
}

func (m *Model) validate() error {
	if len(m.featureNames) == 0 {
		return errors.New("artifact has no feature names")
	}
	if len(m.trees) == 0 {
		return errors.New("artifact has no trees")
	}
	for ti, tree := range m.trees {
		if len(tree) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, node := range tree {
			if node.Left < 0 {
				continue
			}
			if node.Left >= len(tree) || node.Right < 0 || node.Right >= len(tree) {
				return fmt.Errorf("tree %d node %d references out-of-range child", ti, ni)
			}
			// Children must come after their parent so traversal terminates.
			if node.Left <= ni || node.Right <= ni {
				return fmt.Errorf("tree %d node %d references non-forward child", ti, ni)
			}
			if node.Feature < 0 || node.Feature >= len(m.featureNames) {
				return fmt.Errorf("tree %d node %d references unknown feature %d", ti, ni, node.Feature)
			}
		}
	}
	return nil
}

func evalTree(tree Tree, sample []float64) float64 {
	idx := 0
	for {
		node := tree[idx]
		if node.Left < 0 {
			return node.Value
		}
		if sample[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}
