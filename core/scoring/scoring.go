// Package scoring turns analyzer results into the confidence and quality scores of a job.
//
// Every category signal is mapped from its tool's native scale into [0,100]:
//   - lint: pylint score × 10
//   - security: max(0, 100 − issue_count × SecurityPerIssue)
//   - complexity: max(0, 100 − average_complexity × ComplexityPerPoint)
//   - coverage: coverage_percent
//   - style: max(0, 100 − issue_count × StylePerIssue)
//   - documentation: min(100, comment_ratio / DocsTargetRatio × 100)
//   - maintainability: maintainability_index
//   - dead_code: max(0, 100 − dead_code_lines × DeadCodePerItem)
//
// A category whose tool did not finish with status ok, or did not report the metric,
// is left out and the remaining weights are renormalized to sum to 1.0.
package scoring

import (
	"math"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Source names the tool metric a category signal is derived from.
type Source struct {
	Tool   string
	Metric string
}

// Sources maps every scoring category to the metric that feeds it.
var Sources = map[schema.Category]Source{
	schema.CategoryLint:            {Tool: schema.ToolLint, Metric: schema.MetricScore},
	schema.CategorySecurity:        {Tool: schema.ToolSecurity, Metric: schema.MetricIssueCount},
	schema.CategoryComplexity:      {Tool: schema.ToolComplexity, Metric: schema.MetricAverageComplexity},
	schema.CategoryMaintainability: {Tool: schema.ToolComplexity, Metric: schema.MetricMaintainabilityIndex},
	schema.CategoryCoverage:        {Tool: schema.ToolCoverage, Metric: schema.MetricCoveragePercent},
	schema.CategoryStyle:           {Tool: schema.ToolStyle, Metric: schema.MetricIssueCount},
	schema.CategoryDocumentation:   {Tool: schema.ToolDocs, Metric: schema.MetricCommentRatio},
	schema.CategoryDeadCode:        {Tool: schema.ToolDeadCode, Metric: schema.MetricDeadCodeLines},
}

// Scorer computes scores with a fixed, validated configuration.
type Scorer struct {
	confidence schema.WeightSet
	quality    schema.WeightSet
	penalties  schema.Penalties
}

// New validates the weight sets and penalties and returns a Scorer.
// Every error it returns matches contract.ErrConfig.
func New(confidence, quality schema.WeightSet, penalties schema.Penalties) (*Scorer, error) {
	if err := contract.ValidateWeightSet(contract.ConfidenceScoreName, confidence); err != nil {
		return nil, err
	}
	if err := contract.ValidateWeightSet(contract.QualityScoreName, quality); err != nil {
		return nil, err
	}
	if err := contract.ValidatePenalties(penalties); err != nil {
		return nil, err
	}
	return &Scorer{
		confidence: confidence.Clone(),
		quality:    quality.Clone(),
		penalties:  penalties,
	}, nil
}

// FromConfig builds a Scorer from the validated runtime configuration.
func FromConfig(cfg *contract.Config) (*Scorer, error) {
	return New(cfg.ConfidenceWeights, cfg.QualityWeights, cfg.Penalties)
}

// Score computes both aggregates. When no result is ok both scores are nil.
func (s *Scorer) Score(results []schema.AnalyzerResult) schema.Scores {
	succeeded := false
	for _, res := range results {
		if res.OK() {
			succeeded = true
			break
		}
	}
	if !succeeded {
		return schema.Scores{}
	}

	signals := s.Signals(results)
	scores := schema.Scores{
		Confidence: Aggregate(s.confidence, signals),
		Quality:    Aggregate(s.quality, signals),
	}
	if len(signals) > 0 {
		scores.Categories = signals
	}
	return scores
}

// Signals returns the normalized signal of every category whose tool finished ok
// and reported the metric. If a tool name appears more than once, the first ok result wins.
func (s *Scorer) Signals(results []schema.AnalyzerResult) map[schema.Category]float64 {
	byTool := make(map[string]schema.AnalyzerResult, len(results))
	for _, res := range results {
		if !res.OK() {
			continue
		}
		if _, seen := byTool[res.Tool]; !seen {
			byTool[res.Tool] = res
		}
	}

	signals := make(map[schema.Category]float64)
	for _, cat := range schema.AllCategories {
		src, ok := Sources[cat]
		if !ok {
			continue
		}
		res, ok := byTool[src.Tool]
		if !ok {
			continue
		}
		value, ok := res.Metric(src.Metric)
		if !ok {
			continue
		}
		signals[cat] = s.Normalize(cat, value)
	}
	return signals
}

// Normalize maps a raw metric of the given category into [0,100].
func (s *Scorer) Normalize(cat schema.Category, value float64) float64 {
	p := s.penalties
	switch cat {
	case schema.CategoryLint:
		return clamp100(value * 10)
	case schema.CategorySecurity:
		return clamp100(100 - value*p.SecurityPerIssue)
	case schema.CategoryComplexity:
		return clamp100(100 - value*p.ComplexityPerPoint)
	case schema.CategoryStyle:
		return clamp100(100 - value*p.StylePerIssue)
	case schema.CategoryDocumentation:
		return clamp100(value / p.DocsTargetRatio * 100)
	case schema.CategoryDeadCode:
		return clamp100(100 - value*p.DeadCodePerItem)
	default: // coverage and maintainability are already percentages
		return clamp100(value)
	}
}

// Renormalize keeps the weights of the categories that have a signal and scales
// them to sum to 1.0. It returns nil when no positive weight remains.
func Renormalize(weights schema.WeightSet, signals map[schema.Category]float64) schema.WeightSet {
	total := 0.0
	for _, cat := range schema.AllCategories {
		if _, ok := signals[cat]; ok && weights[cat] > 0 {
			total += weights[cat]
		}
	}
	if total <= 0 {
		return nil
	}

	out := make(schema.WeightSet)
	for _, cat := range schema.AllCategories {
		if _, ok := signals[cat]; ok && weights[cat] > 0 {
			out[cat] = weights[cat] / total
		}
	}
	return out
}

// Aggregate computes the renormalized weighted sum of the signals. When none of the
// weighted categories has a signal, it falls back to the unweighted mean of the
// available signals. It returns nil when there are no signals at all.
func Aggregate(weights schema.WeightSet, signals map[schema.Category]float64) *float64 {
	if len(signals) == 0 {
		return nil
	}

	// Categories are visited in a fixed order so the float sum is reproducible.
	var raw float64
	if rw := Renormalize(weights, signals); rw != nil {
		for _, cat := range schema.AllCategories {
			raw += rw[cat] * signals[cat]
		}
	} else {
		n := 0
		for _, cat := range schema.AllCategories {
			if v, ok := signals[cat]; ok {
				raw += v
				n++
			}
		}
		raw /= float64(n)
	}

	score := clamp100(raw)
	return &score
}

func clamp100(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
