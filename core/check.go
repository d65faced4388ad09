package core

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// ScoreViolation is a score that fell below its --fail-under threshold.
type ScoreViolation struct {
	Score     string
	Value     *float64 // nil when the score could not be computed
	Threshold float64
}

// CheckThresholds compares the scores of a finished job against the minimum
// values. A score that is absent violates any threshold. Violations are sorted
// by score name.
func CheckThresholds(job *schema.AnalysisJob, thresholds map[string]float64) []ScoreViolation {
	var violations []ScoreViolation
	for _, name := range slices.Sorted(maps.Keys(thresholds)) {
		threshold := thresholds[name]
		var value *float64
		switch name {
		case contract.ConfidenceScoreName:
			value = job.Scores.Confidence
		case contract.QualityScoreName:
			value = job.Scores.Quality
		}
		if value == nil || *value < threshold {
			violations = append(violations, ScoreViolation{Score: name, Value: value, Threshold: threshold})
		}
	}
	return violations
}

// PrintCheckResult prints the policy check in a concise format suitable for CI/CD.
func PrintCheckResult(w io.Writer, violations []ScoreViolation, thresholds map[string]float64) {
	if len(thresholds) == 0 {
		return
	}
	if len(violations) == 0 {
		_, _ = fmt.Fprintf(w, "✅ All scores passed policy checks\n")
		return
	}

	_, _ = fmt.Fprintf(w, "❌ Policy check failed: %d violation(s) found\n", len(violations))
	for _, v := range violations {
		if v.Value == nil {
			_, _ = fmt.Fprintf(w, "  - %s (score: unavailable, threshold: %.1f)\n", v.Score, v.Threshold)
			continue
		}
		_, _ = fmt.Fprintf(w, "  - %s (score: %.1f < threshold: %.1f)\n", v.Score, *v.Value, v.Threshold)
	}
}
