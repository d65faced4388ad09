package analyzers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCoverageAnalyzer(t *testing.T) {
	runner := new(contract.MockToolRunner)
	runner.On("Run", mock.Anything, testRoot, "coverage", "json", "-i", "-q",
		"--data-file="+filepath.Join(testRoot, ".coverage"), "-o", mock.Anything).
		Run(func(args mock.Arguments) {
			report := args.String(8)
			require.True(t, strings.HasSuffix(report, "coverage.json"))
			require.NoError(t, os.WriteFile(report, []byte(`{"totals": {"percent_covered": 83.5}}`), 0o644))
		}).
		Return(contract.ToolOutput{}, nil).Once()

	res := NewCoverageAnalyzer("coverage", runner).Invoke(context.Background(), testSnapshot(".coverage", "app.py"), schema.ToolConfig{})
	runner.AssertExpectations(t)

	require.Equal(t, schema.StatusOK, res.Status, res.Error)
	assert.Equal(t, 83.5, res.Metrics[schema.MetricCoveragePercent])
}

func TestCoverageAnalyzerWritesReportToScratchDir(t *testing.T) {
	scratch := t.TempDir()
	snap := testSnapshot(".coverage")
	snap.ScratchDir = scratch

	var report string
	runner := new(contract.MockToolRunner)
	runner.On("Run", mock.Anything, testRoot, "coverage", "json", "-i", "-q", mock.Anything, "-o", mock.Anything).
		Run(func(args mock.Arguments) {
			report = args.String(8)
			require.NoError(t, os.WriteFile(report, []byte(`{"totals": {"percent_covered": 50}}`), 0o644))
		}).
		Return(contract.ToolOutput{}, nil).Once()

	res := NewCoverageAnalyzer("coverage", runner).Invoke(context.Background(), snap, schema.ToolConfig{})
	require.Equal(t, schema.StatusOK, res.Status, res.Error)

	rel, err := filepath.Rel(scratch, report)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "report %s is outside %s", report, scratch)
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "the report directory is removed after parsing")
}

func TestCoverageAnalyzerMissingTotals(t *testing.T) {
	runner := new(contract.MockToolRunner)
	runner.On("Run", mock.Anything, testRoot, "coverage", "json", "-i", "-q", mock.Anything, "-o", mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(8), []byte(`{"files": {}}`), 0o644))
		}).
		Return(contract.ToolOutput{}, nil).Once()

	res := NewCoverageAnalyzer("coverage", runner).Invoke(context.Background(), testSnapshot(".coverage"), schema.ToolConfig{})
	assert.Equal(t, schema.StatusToolError, res.Status)
	assert.Contains(t, res.Error, "percent_covered")
}

func TestCoverageAnalyzerWithoutDataFile(t *testing.T) {
	res := NewCoverageAnalyzer("coverage", new(contract.MockToolRunner)).Invoke(context.Background(), testSnapshot("app.py"), schema.ToolConfig{})
	assert.Equal(t, schema.StatusNotApplicable, res.Status)
}
