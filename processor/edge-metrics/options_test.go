package edgemetrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreset(t *testing.T) {
	tests := map[string]DimensionWeights{
		"default":      {Structural: 0.2, Functional: 0.5, Centrality: 0.2, Depth: 0.1},
		"debugging":    {Structural: 0.1, Functional: 0.6, Centrality: 0.2, Depth: 0.1},
		"architecture": {Structural: 0.4, Functional: 0.1, Centrality: 0.4, Depth: 0.1},
		"dataflow":     {Structural: 0.2, Functional: 0.6, Centrality: 0.1, Depth: 0.1},
	}
	for name, want := range tests {
		got, err := Preset(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	assert.Equal(t, []string{"architecture", "dataflow", "debugging", "default"}, Presets())

	_, err := Preset("chaos")
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		weight float64
		want   Importance
	}{
		{1.0, ImportanceCritical},
		{0.8, ImportanceCritical},
		{0.79, ImportanceHigh},
		{0.6, ImportanceHigh},
		{0.5, ImportanceMedium},
		{0.4, ImportanceMedium},
		{0.39, ImportanceLow},
		{0, ImportanceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.weight), "weight %v", tt.weight)
	}

	custom := Thresholds{Critical: 0.9, High: 0.5, Medium: 0.1}
	assert.Equal(t, ImportanceHigh, custom.Classify(0.8))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Critical: 0.5, High: 0.6, Medium: 0.4}.Validate())
	assert.Error(t, Thresholds{Critical: 1.5, High: 0.6, Medium: 0.4}.Validate())
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.NoError(t, Options{}.Validate())

	bad := DefaultOptions()
	bad.Weights.Depth = -1
	assert.Error(t, bad.Validate())

	bad = DefaultOptions()
	bad.CentralityCap = 1
	assert.Error(t, bad.Validate())

	bad = DefaultOptions()
	bad.Smoothing = -0.5
	assert.Error(t, bad.Validate())
}

func TestOptions_ZeroValueSelectsDefaults(t *testing.T) {
	assert.Equal(t, DefaultOptions(), Options{}.withDefaults())
}
