package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdmotion/internal/features"
)

// stumpForest builds a two-tree forest over {a, b}: tree one splits on a at
// 0.5, tree two always votes positive.
func stumpForest() *Forest {
	return &Forest{
		Name:     "test-forest",
		Features: []string{"a", "b"},
		Trees: []Tree{
			{Nodes: []Node{
				{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},
				{Leaf: true, Value: 0},
				{Leaf: true, Value: 1},
			}},
			{Nodes: []Node{
				{Leaf: true, Value: 1},
			}},
		},
	}
}

func vector(values map[string]float64) features.Vector {
	return features.Vector{EpochIndex: 0, Values: values}
}

func TestForestPredict(t *testing.T) {
	f := stumpForest()

	tests := []struct {
		name     string
		a        float64
		positive bool
		score    float64
	}{
		{"low a votes split negative", 0.2, true, 0.5},
		{"high a votes both positive", 0.9, true, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			positive, score, err := f.Predict(vector(map[string]float64{"a": tt.a, "b": 0}))
			require.NoError(t, err)
			assert.Equal(t, tt.positive, positive)
			assert.InDelta(t, tt.score, score, 1e-12)
		})
	}
}

func TestForestDecisionThreshold(t *testing.T) {
	f := stumpForest()
	f.Threshold = 0.75

	positive, score, err := f.Predict(vector(map[string]float64{"a": 0.2, "b": 0}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-12)
	assert.False(t, positive, "a 0.5 score must not clear a 0.75 threshold")
}

func TestForestSchemaMismatch(t *testing.T) {
	f := stumpForest()

	t.Run("missing feature", func(t *testing.T) {
		_, _, err := f.Predict(vector(map[string]float64{"a": 1}))
		require.Error(t, err)
		var cerr *ContractError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, []string{"b"}, cerr.Missing, "the error must name the missing feature")
		assert.Contains(t, cerr.Error(), "b")
	})

	t.Run("unexpected feature", func(t *testing.T) {
		_, _, err := f.Predict(vector(map[string]float64{"a": 1, "b": 2, "extra": 3}))
		var cerr *ContractError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, []string{"extra"}, cerr.Unexpected)
	})
}

func TestForestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Forest)
	}{
		{"no name", func(f *Forest) { f.Name = "" }},
		{"no features", func(f *Forest) { f.Features = nil }},
		{"no trees", func(f *Forest) { f.Trees = nil }},
		{"empty tree", func(f *Forest) { f.Trees = []Tree{{}} }},
		{"threshold out of range", func(f *Forest) { f.Threshold = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := stumpForest()
			tt.mutate(f)
			assert.Error(t, f.Validate())
		})
	}
	assert.NoError(t, stumpForest().Validate())
}

func TestForestMalformedTree(t *testing.T) {
	f := &Forest{
		Name:     "broken",
		Features: []string{"a"},
		Trees: []Tree{
			// Left child points back at the root.
			{Nodes: []Node{{Feature: 0, Threshold: 10, Left: 0, Right: 0}}},
		},
	}
	_, _, err := f.Predict(vector(map[string]float64{"a": 1}))
	assert.Error(t, err, "a cyclic tree must fail instead of spinning")
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gait.yaml")
	artifact := `name: gait
threshold: 0.5
features:
  - x_bp_rms
  - x_bp_range
trees:
  - nodes:
      - {feature: 0, threshold: 0.1, left: 1, right: 2}
      - {leaf: true, value: 0}
      - {leaf: true, value: 1}
`
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gait", f.Name)
	assert.Equal(t, []string{"x_bp_rms", "x_bp_range"}, f.Schema())

	positive, _, err := f.Predict(vector(map[string]float64{"x_bp_rms": 0.5, "x_bp_range": 0}))
	require.NoError(t, err)
	assert.True(t, positive)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
