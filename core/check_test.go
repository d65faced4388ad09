package core

import (
	"bytes"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
)

func scoredJob(confidence, quality *float64) *schema.AnalysisJob {
	return &schema.AnalysisJob{
		ID:     "job-1",
		Status: schema.CompletedStatus,
		Scores: schema.Scores{Confidence: confidence, Quality: quality},
	}
}

func TestCheckThresholds(t *testing.T) {
	seventy, fifty := 70.0, 50.0

	tests := []struct {
		name       string
		job        *schema.AnalysisJob
		thresholds map[string]float64
		want       []string
	}{
		{"no thresholds", scoredJob(&seventy, &fifty), nil, nil},
		{"all above", scoredJob(&seventy, &fifty), map[string]float64{"confidence": 60, "quality": 50}, nil},
		{"quality below", scoredJob(&seventy, &fifty), map[string]float64{"confidence": 60, "quality": 55}, []string{"quality"}},
		{"both below", scoredJob(&seventy, &fifty), map[string]float64{"quality": 90, "confidence": 90}, []string{"confidence", "quality"}},
		{"missing score", scoredJob(nil, &fifty), map[string]float64{"confidence": 0}, []string{"confidence"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, v := range CheckThresholds(tt.job, tt.thresholds) {
				got = append(got, v.Score)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintCheckResult(t *testing.T) {
	fifty := 50.0
	thresholds := map[string]float64{contract.ConfidenceScoreName: 60, contract.QualityScoreName: 40}

	t.Run("passed", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCheckResult(&buf, nil, thresholds)
		assert.Contains(t, buf.String(), "All scores passed")
	})

	t.Run("failed", func(t *testing.T) {
		var buf bytes.Buffer
		violations := CheckThresholds(scoredJob(&fifty, nil), thresholds)
		PrintCheckResult(&buf, violations, thresholds)
		out := buf.String()
		assert.Contains(t, out, "2 violation(s) found")
		assert.Contains(t, out, "confidence (score: 50.0 < threshold: 60.0)")
		assert.Contains(t, out, "quality (score: unavailable, threshold: 40.0)")
	})

	t.Run("no thresholds prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCheckResult(&buf, nil, nil)
		assert.Empty(t, buf.String())
	})
}
