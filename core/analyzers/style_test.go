package analyzers

import (
	"context"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flake8Output = `./app.py:1:1: F401 'os' imported but unused
./app.py:10:80: E501 line too long (95 > 79 characters)
./pkg/util.py:3:1: W391 blank line at end of file
./pkg/util.py:7:5: C901 'parse' is too complex (12)
this line is not a finding
`

func TestStyleAnalyzer(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "flake8", []string{"--exit-zero", "--extend-ignore=E501", "--extend-exclude=build/", "."},
		contract.ToolOutput{Stdout: []byte(flake8Output)}, nil)

	cfg := schema.ToolConfig{Ruleset: []string{"-E501"}, ExcludePaths: []string{"build/"}}
	res := NewStyleAnalyzer("flake8", runner).Invoke(context.Background(), testSnapshot("app.py", "pkg/util.py"), cfg)
	runner.AssertExpectations(t)

	require.Equal(t, schema.StatusOK, res.Status, res.Error)
	require.Len(t, res.Issues, 4)
	assert.Equal(t, schema.Issue{
		Path: "app.py", Line: 1, Column: intPtr(1), Severity: schema.SeverityError,
		Tool: schema.ToolStyle, Rule: "F401", Message: "'os' imported but unused",
	}, res.Issues[0])
	assert.Equal(t, schema.SeverityError, res.Issues[1].Severity)
	assert.Equal(t, schema.SeverityWarning, res.Issues[2].Severity)
	assert.Equal(t, schema.SeverityInfo, res.Issues[3].Severity)
	assert.Equal(t, 4.0, res.Metrics[schema.MetricIssueCount])
}

func TestStyleAnalyzerFailure(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "flake8", []string{"--exit-zero", "."},
		contract.ToolOutput{ExitCode: 1, Stderr: []byte("There was a critical error during execution of Flake8")}, nil)

	res := NewStyleAnalyzer("flake8", runner).Invoke(context.Background(), testSnapshot("app.py"), schema.ToolConfig{})
	assert.Equal(t, schema.StatusToolError, res.Status)
	assert.Contains(t, res.Error, "critical error")
}
