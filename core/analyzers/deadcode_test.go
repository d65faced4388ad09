package analyzers

import (
	"context"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vultureOutput = `app.py:1: unused import 'os' (90% confidence)
app.py:14: unused function 'helper' (60% confidence)
pkg/util.py:22: unreachable code after 'return' (100% confidence, 3 lines)
garbage
`

func TestDeadCodeAnalyzer(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "vulture", []string{"."}, contract.ToolOutput{Stdout: []byte(vultureOutput), ExitCode: 3}, nil)

	res := NewDeadCodeAnalyzer("vulture", runner).Invoke(context.Background(), testSnapshot("app.py", "pkg/util.py"), schema.ToolConfig{})
	runner.AssertExpectations(t)

	require.Equal(t, schema.StatusOK, res.Status, res.Error)
	require.Len(t, res.Issues, 3)
	assert.Equal(t, schema.Issue{
		Path: "app.py", Line: 1, Severity: schema.SeverityWarning,
		Tool: schema.ToolDeadCode, Rule: "unused-import", Message: "unused import 'os'",
	}, res.Issues[0])
	assert.Equal(t, schema.SeverityInfo, res.Issues[1].Severity)
	assert.Equal(t, "unused-function", res.Issues[1].Rule)
	assert.Equal(t, "unreachable-code-after", res.Issues[2].Rule)
	assert.Equal(t, schema.SeverityWarning, res.Issues[2].Severity)
	assert.Equal(t, 3.0, res.Metrics[schema.MetricDeadCodeLines])
}

func TestDeadCodeAnalyzerArgs(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "vulture", []string{".", "--exclude", "tests/,*_pb2.py", "--ignore-names", "setUp"},
		contract.ToolOutput{}, nil)

	cfg := schema.ToolConfig{Ruleset: []string{"-setUp"}, ExcludePaths: []string{"tests/", "*_pb2.py"}}
	res := NewDeadCodeAnalyzer("vulture", runner).Invoke(context.Background(), testSnapshot("app.py"), cfg)
	runner.AssertExpectations(t)
	require.Equal(t, schema.StatusOK, res.Status)
	assert.Equal(t, 0.0, res.Metrics[schema.MetricDeadCodeLines])
}

func TestDeadCodeAnalyzerInvalidInput(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "vulture", []string{"."}, contract.ToolOutput{ExitCode: 1, Stderr: []byte("invalid syntax")}, nil)

	res := NewDeadCodeAnalyzer("vulture", runner).Invoke(context.Background(), testSnapshot("app.py"), schema.ToolConfig{})
	assert.Equal(t, schema.StatusToolError, res.Status)
}

func TestVultureRule(t *testing.T) {
	assert.Equal(t, "unused-variable", vultureRule("unused variable 'x'"))
	assert.Equal(t, "dead-code", vultureRule("'weird'"))
}
