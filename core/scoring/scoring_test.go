package scoring

import (
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(schema.DefaultConfidenceWeights(), schema.DefaultQualityWeights(), schema.DefaultPenalties())
	require.NoError(t, err)
	return s
}

func okResult(tool string, metrics map[string]float64) schema.AnalyzerResult {
	return schema.AnalyzerResult{Tool: tool, Status: schema.StatusOK, Metrics: metrics}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		confidence schema.WeightSet
		quality    schema.WeightSet
		penalties  schema.Penalties
	}{
		{
			name:       "confidence does not sum to one",
			confidence: schema.WeightSet{schema.CategoryLint: 0.5, schema.CategorySecurity: 0.3},
			quality:    schema.DefaultQualityWeights(),
			penalties:  schema.DefaultPenalties(),
		},
		{
			name:       "quality is empty",
			confidence: schema.DefaultConfidenceWeights(),
			quality:    schema.WeightSet{},
			penalties:  schema.DefaultPenalties(),
		},
		{
			name:       "negative penalty",
			confidence: schema.DefaultConfidenceWeights(),
			quality:    schema.DefaultQualityWeights(),
			penalties:  schema.Penalties{SecurityPerIssue: -1, DocsTargetRatio: 0.2},
		},
		{
			name:       "zero docs target",
			confidence: schema.DefaultConfidenceWeights(),
			quality:    schema.DefaultQualityWeights(),
			penalties:  schema.Penalties{SecurityPerIssue: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.confidence, tt.quality, tt.penalties)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, contract.ErrConfig)
		})
	}
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(contract.NewDefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultPenalties(), s.penalties)
}

func TestNormalize(t *testing.T) {
	s := defaultScorer(t)
	tests := []struct {
		cat      schema.Category
		value    float64
		expected float64
	}{
		{schema.CategoryLint, 7.5, 75},
		{schema.CategoryLint, 12, 100},
		{schema.CategorySecurity, 0, 100},
		{schema.CategorySecurity, 3, 85},
		{schema.CategorySecurity, 40, 0},
		{schema.CategoryComplexity, 2, 80},
		{schema.CategoryComplexity, 15, 0},
		{schema.CategoryCoverage, 63.5, 63.5},
		{schema.CategoryStyle, 12, 88},
		{schema.CategoryDocumentation, 0.1, 50},
		{schema.CategoryDocumentation, 0.5, 100},
		{schema.CategoryMaintainability, 71.2, 71.2},
		{schema.CategoryDeadCode, 4, 92},
		{schema.CategoryDeadCode, 80, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Normalize(tt.cat, tt.value), 1e-9)
		})
	}
}

func TestNormalizeUsesConfiguredPenalties(t *testing.T) {
	penalties := schema.DefaultPenalties()
	penalties.SecurityPerIssue = 20
	penalties.DocsTargetRatio = 0.5
	s, err := New(schema.DefaultConfidenceWeights(), schema.DefaultQualityWeights(), penalties)
	require.NoError(t, err)

	assert.InDelta(t, 60.0, s.Normalize(schema.CategorySecurity, 2), 1e-9)
	assert.InDelta(t, 20.0, s.Normalize(schema.CategoryDocumentation, 0.1), 1e-9)
}

func TestSignalsSkipsFailedAndMissing(t *testing.T) {
	s := defaultScorer(t)
	results := []schema.AnalyzerResult{
		okResult(schema.ToolLint, map[string]float64{schema.MetricScore: 8}),
		{Tool: schema.ToolSecurity, Status: schema.StatusTimeout},
		okResult(schema.ToolComplexity, map[string]float64{schema.MetricAverageComplexity: 3}),
		{Tool: schema.ToolStyle, Status: schema.StatusToolError, Metrics: map[string]float64{schema.MetricIssueCount: 0}},
		okResult(schema.ToolDeadCode, nil),
	}

	signals := s.Signals(results)

	assert.Equal(t, map[schema.Category]float64{
		schema.CategoryLint:       80,
		schema.CategoryComplexity: 70,
	}, signals)
}

func TestSignalsFirstOKResultWins(t *testing.T) {
	s := defaultScorer(t)
	results := []schema.AnalyzerResult{
		{Tool: schema.ToolLint, Status: schema.StatusToolError},
		okResult(schema.ToolLint, map[string]float64{schema.MetricScore: 6}),
		okResult(schema.ToolLint, map[string]float64{schema.MetricScore: 9}),
	}

	assert.Equal(t, 60.0, s.Signals(results)[schema.CategoryLint])
}

func TestRenormalize(t *testing.T) {
	weights := schema.DefaultConfidenceWeights()

	t.Run("missing categories are dropped and the rest sum to one", func(t *testing.T) {
		signals := map[schema.Category]float64{
			schema.CategoryLint:     90,
			schema.CategorySecurity: 100,
		}
		rw := Renormalize(weights, signals)
		require.Len(t, rw, 2)
		assert.InDelta(t, 1.0, rw.Sum(), 1e-9)
		assert.InDelta(t, 0.25/0.45, rw[schema.CategoryLint], 1e-9)
		assert.InDelta(t, 0.20/0.45, rw[schema.CategorySecurity], 1e-9)
	})

	t.Run("every single removal still sums to one", func(t *testing.T) {
		all := make(map[schema.Category]float64)
		for cat := range weights {
			all[cat] = 50
		}
		for removed := range weights {
			signals := make(map[schema.Category]float64)
			for cat, v := range all {
				if cat != removed {
					signals[cat] = v
				}
			}
			rw := Renormalize(weights, signals)
			assert.InDelta(t, 1.0, rw.Sum(), 1e-9, "removed %s", removed)
			assert.NotContains(t, rw, removed)
		}
	})

	t.Run("no weighted signal", func(t *testing.T) {
		signals := map[schema.Category]float64{schema.CategoryDeadCode: 40}
		assert.Nil(t, Renormalize(weights, signals))
	})
}

func TestAggregate(t *testing.T) {
	weights := schema.DefaultConfidenceWeights()

	t.Run("no signals", func(t *testing.T) {
		assert.Nil(t, Aggregate(weights, map[schema.Category]float64{}))
	})

	t.Run("all categories present", func(t *testing.T) {
		signals := map[schema.Category]float64{
			schema.CategoryLint:          80,
			schema.CategorySecurity:      90,
			schema.CategoryComplexity:    70,
			schema.CategoryCoverage:      60,
			schema.CategoryStyle:         100,
			schema.CategoryDocumentation: 50,
		}
		got := Aggregate(weights, signals)
		require.NotNil(t, got)
		// 20 + 18 + 10.5 + 12 + 10 + 5
		assert.InDelta(t, 75.5, *got, 1e-9)
	})

	t.Run("falls back to the unweighted mean", func(t *testing.T) {
		signals := map[schema.Category]float64{
			schema.CategoryMaintainability: 70,
			schema.CategoryDeadCode:        90,
		}
		got := Aggregate(weights, signals)
		require.NotNil(t, got)
		assert.InDelta(t, 80.0, *got, 1e-9)
	})

	t.Run("missing tool is neither perfect nor zero", func(t *testing.T) {
		signals := map[schema.Category]float64{
			schema.CategoryLint:     60,
			schema.CategorySecurity: 60,
		}
		got := Aggregate(weights, signals)
		require.NotNil(t, got)
		assert.InDelta(t, 60.0, *got, 1e-9)
	})
}

func TestScoreAllFailed(t *testing.T) {
	s := defaultScorer(t)
	scores := s.Score([]schema.AnalyzerResult{
		{Tool: schema.ToolLint, Status: schema.StatusToolError},
		{Tool: schema.ToolSecurity, Status: schema.StatusTimeout},
		{Tool: schema.ToolStyle, Status: schema.StatusNotApplicable},
	})

	assert.Nil(t, scores.Confidence)
	assert.Nil(t, scores.Quality)
	assert.Nil(t, scores.Categories)
}

// Two files, one lint warning in A, one high security issue in B and complexity 2
// for both. Coverage, style and docs did not run.
func TestScoreTwoFileScenario(t *testing.T) {
	s := defaultScorer(t)
	results := []schema.AnalyzerResult{
		okResult(schema.ToolLint, map[string]float64{schema.MetricScore: 9.5, schema.MetricIssueCount: 1}),
		okResult(schema.ToolSecurity, map[string]float64{schema.MetricIssueCount: 1, schema.MetricHighIssues: 1}),
		okResult(schema.ToolComplexity, map[string]float64{schema.MetricAverageComplexity: 2, schema.MetricTotalFunctions: 2}),
	}

	scores := s.Score(results)

	require.NotNil(t, scores.Confidence)
	require.NotNil(t, scores.Quality)
	// (0.25×95 + 0.20×95 + 0.15×80) / 0.60
	assert.InDelta(t, 91.25, *scores.Confidence, 1e-9)
	// (0.30×95 + 0.15×80 + 0.05×95) / 0.50
	assert.InDelta(t, 90.5, *scores.Quality, 1e-9)
	assert.Equal(t, map[schema.Category]float64{
		schema.CategoryLint:       95,
		schema.CategorySecurity:   95,
		schema.CategoryComplexity: 80,
	}, scores.Categories)
}

func TestScoreIsDeterministic(t *testing.T) {
	s := defaultScorer(t)
	results := []schema.AnalyzerResult{
		okResult(schema.ToolLint, map[string]float64{schema.MetricScore: 7.3}),
		okResult(schema.ToolSecurity, map[string]float64{schema.MetricIssueCount: 3}),
		okResult(schema.ToolComplexity, map[string]float64{schema.MetricAverageComplexity: 4.1, schema.MetricMaintainabilityIndex: 66.6}),
		okResult(schema.ToolStyle, map[string]float64{schema.MetricIssueCount: 17}),
		okResult(schema.ToolDeadCode, map[string]float64{schema.MetricDeadCodeLines: 5}),
		okResult(schema.ToolDocs, map[string]float64{schema.MetricCommentRatio: 0.13}),
	}

	first := s.Score(results)
	for range 20 {
		again := s.Score(results)
		assert.Equal(t, *first.Confidence, *again.Confidence)
		assert.Equal(t, *first.Quality, *again.Quality)
	}
	assert.GreaterOrEqual(t, *first.Confidence, 0.0)
	assert.LessOrEqual(t, *first.Confidence, 100.0)
}
