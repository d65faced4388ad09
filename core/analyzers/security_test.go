package analyzers

import (
	"context"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banditOutput = `{
  "errors": [],
  "metrics": {"_totals": {"SEVERITY.HIGH": 1}},
  "results": [
    {"filename": "./app.py", "line_number": 12, "col_offset": 4, "issue_severity": "HIGH",
     "issue_confidence": "HIGH", "issue_text": "Use of exec detected.", "test_id": "B102", "test_name": "exec_used"},
    {"filename": "./pkg/db.py", "line_number": 30, "col_offset": 0, "issue_severity": "MEDIUM",
     "issue_confidence": "LOW", "issue_text": "Possible SQL injection.", "test_id": "B608", "test_name": "hardcoded_sql_expressions"},
    {"filename": "./pkg/db.py", "line_number": 2, "col_offset": 0, "issue_severity": "LOW",
     "issue_confidence": "HIGH", "issue_text": "Consider possible security implications.", "test_id": "B404", "test_name": "blacklist"}
  ]
}`

func TestSecurityAnalyzer(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "bandit", []string{"-r", "-f", "json", "-q", "-s", "B101", "."},
		contract.ToolOutput{Stdout: []byte(banditOutput), ExitCode: 1}, nil)

	cfg := schema.ToolConfig{Ruleset: []string{"-B101"}}
	res := NewSecurityAnalyzer("bandit", runner).Invoke(context.Background(), testSnapshot("app.py", "pkg/db.py"), cfg)
	runner.AssertExpectations(t)

	require.Equal(t, schema.StatusOK, res.Status, res.Error)
	require.Len(t, res.Issues, 3)
	assert.Equal(t, "app.py", res.Issues[0].Path)
	assert.Equal(t, schema.SeverityError, res.Issues[0].Severity)
	assert.Equal(t, "B102", res.Issues[0].Rule)
	assert.Equal(t, "Use of exec detected. (confidence: high)", res.Issues[0].Message)
	assert.Equal(t, schema.SeverityWarning, res.Issues[1].Severity)
	assert.Equal(t, schema.SeverityInfo, res.Issues[2].Severity)

	assert.Equal(t, map[string]float64{
		schema.MetricIssueCount:   3,
		schema.MetricHighIssues:   1,
		schema.MetricMediumIssues: 1,
		schema.MetricLowIssues:    1,
	}, res.Metrics)
}

func TestSecurityAnalyzerExcludes(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "bandit", []string{"-r", "-f", "json", "-q", "."},
		contract.ToolOutput{Stdout: []byte(banditOutput), ExitCode: 1}, nil)

	cfg := schema.ToolConfig{ExcludePaths: []string{"pkg/"}}
	res := NewSecurityAnalyzer("bandit", runner).Invoke(context.Background(), testSnapshot("app.py", "pkg/db.py"), cfg)

	require.Equal(t, schema.StatusOK, res.Status)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 1.0, res.Metrics[schema.MetricIssueCount])
	assert.Equal(t, 0.0, res.Metrics[schema.MetricMediumIssues])
}

func TestSecurityAnalyzerEmptyOutput(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "bandit", []string{"-r", "-f", "json", "-q", "."},
		contract.ToolOutput{Stderr: []byte("[main] ERROR unknown test"), ExitCode: 2}, nil)

	res := NewSecurityAnalyzer("bandit", runner).Invoke(context.Background(), testSnapshot("app.py"), schema.ToolConfig{})
	assert.Equal(t, schema.StatusToolError, res.Status)
	assert.Contains(t, res.Error, "unknown test")
}
