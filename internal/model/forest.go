// Package model defines the trained-model artifact contract for the
// statistical classifiers. The pipeline never trains anything: it consumes
// pre-fit random-forest parameter sets together with the exact feature-name
// schema they were trained on, and evaluates them at inference time.
package model

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"pdmotion/internal/features"
)

// DefaultDecisionThreshold converts the ensemble's mean leaf probability
// into a binary label.
const DefaultDecisionThreshold = 0.5

// ContractError reports a feature-schema mismatch between extractor output
// and a model's trained expectation. It is fatal for the run: a mismatch
// means a misconfigured pipeline, not transient bad data.
type ContractError struct {
	Model      string
	Missing    []string
	Unexpected []string
}

func (e *ContractError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing features [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected features [%s]", strings.Join(e.Unexpected, ", ")))
	}
	return fmt.Sprintf("model %s: feature schema mismatch: %s", e.Model, strings.Join(parts, "; "))
}

// Node is one decision node in a fitted tree. Leaf nodes carry the
// predicted probability of the positive class; internal nodes route on
// feature index against a threshold.
type Node struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
	Leaf      bool    `yaml:"leaf"`
	Value     float64 `yaml:"value"`
}

// Tree is one fitted decision tree stored as a node array rooted at index 0.
type Tree struct {
	Nodes []Node `yaml:"nodes"`
}

// evaluate walks the tree for one sample.
func (t *Tree) evaluate(x []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, fmt.Errorf("tree node index %d out of range", idx)
		}
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(x) {
			return 0, fmt.Errorf("tree references feature index %d, sample has %d", node.Feature, len(x))
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return 0, fmt.Errorf("tree walk exceeded node count, cycle suspected")
}

// Forest is a pre-fit random-forest artifact: an ensemble of trees plus the
// exact ordered feature schema it was trained on. Forests are immutable
// after loading and safe for concurrent use.
type Forest struct {
	Name      string   `yaml:"name"`
	Features  []string `yaml:"features"`
	Trees     []Tree   `yaml:"trees"`
	Threshold float64  `yaml:"threshold"`
}

// Schema returns the exact ordered feature-name list the forest was trained
// on. Callers pass it to the feature extractor verbatim.
func (f *Forest) Schema() []string {
	return f.Features
}

// Predict evaluates the ensemble for one epoch's feature vector. The
// vector's schema must match the trained schema exactly; any mismatch is a
// ContractError naming the offending features. The model never substitutes
// defaults.
func (f *Forest) Predict(v features.Vector) (bool, float64, error) {
	if err := f.checkSchema(v); err != nil {
		return false, 0, err
	}

	x := make([]float64, len(f.Features))
	for i, name := range f.Features {
		x[i], _ = v.Get(name)
	}

	var sum float64
	for i := range f.Trees {
		val, err := f.Trees[i].evaluate(x)
		if err != nil {
			return false, 0, fmt.Errorf("model %s, tree %d: %w", f.Name, i, err)
		}
		sum += val
	}
	score := sum / float64(len(f.Trees))

	threshold := f.Threshold
	if threshold == 0 {
		threshold = DefaultDecisionThreshold
	}
	return score >= threshold, score, nil
}

func (f *Forest) checkSchema(v features.Vector) error {
	var missing []string
	for _, name := range f.Features {
		if _, ok := v.Get(name); !ok {
			missing = append(missing, name)
		}
	}

	expected := make(map[string]struct{}, len(f.Features))
	for _, name := range f.Features {
		expected[name] = struct{}{}
	}
	var unexpected []string
	for name := range v.Values {
		if _, ok := expected[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)

	if len(missing) > 0 || len(unexpected) > 0 {
		return &ContractError{Model: f.Name, Missing: missing, Unexpected: unexpected}
	}
	return nil
}

// Validate checks structural sanity of a loaded artifact.
func (f *Forest) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("artifact missing model name")
	}
	if len(f.Features) == 0 {
		return fmt.Errorf("model %s: artifact declares no features", f.Name)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("model %s: artifact contains no trees", f.Name)
	}
	for i, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("model %s: tree %d is empty", f.Name, i)
		}
	}
	if f.Threshold < 0 || f.Threshold > 1 {
		return fmt.Errorf("model %s: decision threshold %v outside [0,1]", f.Name, f.Threshold)
	}
	return nil
}

// Load reads and validates a forest artifact from a YAML file.
func Load(path string) (*Forest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var f Forest
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validate model artifact %s: %w", path, err)
	}
	return &f, nil
}
