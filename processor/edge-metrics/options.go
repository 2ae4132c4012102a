package edgemetrics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/c360studio/semgraph/ontology"
)

const (
	// DefaultCentralityCap is the degree sum at which centrality saturates.
	DefaultCentralityCap = 50.0

	// DefaultDepthCap is the scope depth at which depth saturates.
	DefaultDepthCap = 5.0

	// DefaultSmoothing is the Laplace α used when smoothing is enabled.
	DefaultSmoothing = 1.0
)

// ErrUnknownPreset is returned by Preset for an unregistered name.
var ErrUnknownPreset = errors.New("unknown weighting preset")

// DimensionWeights mixes the four per-edge scores into one weight.
type DimensionWeights struct {
	Structural float64 `json:"structural" yaml:"structural"`
	Functional float64 `json:"functional" yaml:"functional"`
	Centrality float64 `json:"centrality" yaml:"centrality"`
	Depth      float64 `json:"depth" yaml:"depth"`
}

// DefaultDimensionWeights favours execution relevance over rarity.
func DefaultDimensionWeights() DimensionWeights {
	return DimensionWeights{Structural: 0.2, Functional: 0.5, Centrality: 0.2, Depth: 0.1}
}

// IsZero reports whether no dimension carries weight.
func (w DimensionWeights) IsZero() bool {
	return w == DimensionWeights{}
}

// Validate checks that every weight is finite and non-negative.
func (w DimensionWeights) Validate() error {
	for _, d := range []struct {
		name string
		v    float64
	}{
		{"structural", w.Structural},
		{"functional", w.Functional},
		{"centrality", w.Centrality},
		{"depth", w.Depth},
	} {
		if math.IsNaN(d.v) || math.IsInf(d.v, 0) || d.v < 0 {
			return fmt.Errorf("dimension weight %s must be a non-negative number, got %v", d.name, d.v)
		}
	}
	return nil
}

var presets = map[string]DimensionWeights{
	"default":      DefaultDimensionWeights(),
	"debugging":    {Structural: 0.1, Functional: 0.6, Centrality: 0.2, Depth: 0.1},
	"architecture": {Structural: 0.4, Functional: 0.1, Centrality: 0.4, Depth: 0.1},
	"dataflow":     {Structural: 0.2, Functional: 0.6, Centrality: 0.1, Depth: 0.1},
}

// Preset returns the named weighting profile.
func Preset(name string) (DimensionWeights, error) {
	w, ok := presets[name]
	if !ok {
		return DimensionWeights{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return w, nil
}

// Presets lists the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Importance is the categorical label derived from a combined weight.
type Importance string

const (
	ImportanceCritical Importance = "CRITICAL"
	ImportanceHigh     Importance = "HIGH"
	ImportanceMedium   Importance = "MEDIUM"
	ImportanceLow      Importance = "LOW"
)

// Thresholds are the inclusive lower bounds of each importance level.
type Thresholds struct {
	Critical float64 `json:"critical" yaml:"critical"`
	High     float64 `json:"high" yaml:"high"`
	Medium   float64 `json:"medium" yaml:"medium"`
}

// DefaultThresholds returns ≥0.8 CRITICAL, ≥0.6 HIGH, ≥0.4 MEDIUM.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 0.8, High: 0.6, Medium: 0.4}
}

// Classify maps a weight to its importance level.
func (t Thresholds) Classify(weight float64) Importance {
	switch {
	case weight >= t.Critical:
		return ImportanceCritical
	case weight >= t.High:
		return ImportanceHigh
	case weight >= t.Medium:
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}

// Validate checks the thresholds lie in [0,1] and descend.
func (t Thresholds) Validate() error {
	for _, v := range []float64{t.Critical, t.High, t.Medium} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("threshold %v outside [0,1]", v)
		}
	}
	if t.Critical < t.High || t.High < t.Medium {
		return fmt.Errorf("thresholds must satisfy critical >= high >= medium, got %v/%v/%v", t.Critical, t.High, t.Medium)
	}
	return nil
}

// Options tune one enrichment run. The zero value of any field selects its
// default, so callers override only what they need.
type Options struct {
	// Weights mixes the dimension scores. All-zero selects the defaults.
	Weights DimensionWeights

	// Thresholds label combined weights. Zero selects the defaults.
	Thresholds Thresholds

	// CentralityCap normalizes endpoint degree sums.
	CentralityCap float64

	// DepthCap normalizes source scope depth.
	DepthCap float64

	// Smoothing is the Laplace α added to type counts; 0 disables it.
	Smoothing float64

	// Functional overrides the ontology's functional table per relation kind.
	Functional map[ontology.RelationKind]float64
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		Weights:       DefaultDimensionWeights(),
		Thresholds:    DefaultThresholds(),
		CentralityCap: DefaultCentralityCap,
		DepthCap:      DefaultDepthCap,
	}
}

// Validate reports option values that cannot produce scores in [0,1].
func (o Options) Validate() error {
	if err := o.Weights.Validate(); err != nil {
		return err
	}
	if o.Thresholds != (Thresholds{}) {
		if err := o.Thresholds.Validate(); err != nil {
			return err
		}
	}
	if o.CentralityCap != 0 && o.CentralityCap <= 1 {
		return fmt.Errorf("centrality cap must exceed 1, got %v", o.CentralityCap)
	}
	if o.DepthCap < 0 {
		return fmt.Errorf("depth cap must be positive, got %v", o.DepthCap)
	}
	if o.Smoothing < 0 {
		return fmt.Errorf("smoothing must be non-negative, got %v", o.Smoothing)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Weights.IsZero() {
		o.Weights = DefaultDimensionWeights()
	}
	if o.Thresholds == (Thresholds{}) {
		o.Thresholds = DefaultThresholds()
	}
	if o.CentralityCap <= 1 {
		o.CentralityCap = DefaultCentralityCap
	}
	if o.DepthCap <= 0 {
		o.DepthCap = DefaultDepthCap
	}
	return o
}
