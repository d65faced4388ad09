package schema

import "maps"

// WeightSet maps a scoring category to its weight in an aggregate.
type WeightSet map[Category]float64

// Sum returns the total of all weights in the set.
func (w WeightSet) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Clone returns a copy of the weight set.
func (w WeightSet) Clone() WeightSet {
	return maps.Clone(w)
}

// Penalties hold the per-tool factors used to invert counts into [0,100] signals.
type Penalties struct {
	SecurityPerIssue   float64 `json:"security_per_issue"`   // Points lost per security finding
	ComplexityPerPoint float64 `json:"complexity_per_point"` // Points lost per unit of average complexity
	StylePerIssue      float64 `json:"style_per_issue"`      // Points lost per style violation
	DeadCodePerItem    float64 `json:"dead_code_per_item"`   // Points lost per unused symbol
	DocsTargetRatio    float64 `json:"docs_target_ratio"`    // Comment ratio that earns a full documentation score
}

// DefaultConfidenceWeights returns the default weights of the confidence score.
func DefaultConfidenceWeights() WeightSet {
	return WeightSet{
		CategoryLint:          0.25,
		CategorySecurity:      0.20,
		CategoryComplexity:    0.15,
		CategoryCoverage:      0.20,
		CategoryStyle:         0.10,
		CategoryDocumentation: 0.10,
	}
}

// DefaultQualityWeights returns the default weights of the quality score.
// It favors maintainability and lint over security.
func DefaultQualityWeights() WeightSet {
	return WeightSet{
		CategoryLint:            0.30,
		CategoryMaintainability: 0.25,
		CategoryComplexity:      0.15,
		CategoryStyle:           0.10,
		CategoryDeadCode:        0.10,
		CategorySecurity:        0.05,
		CategoryDocumentation:   0.05,
	}
}

// DefaultPenalties returns the default normalization factors.
func DefaultPenalties() Penalties {
	return Penalties{
		SecurityPerIssue:   5,
		ComplexityPerPoint: 10,
		StylePerIssue:      1,
		DeadCodePerItem:    2,
		DocsTargetRatio:    0.20,
	}
}
