package analyzers

import (
	"context"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const radonCCOutput = `{
  "app.py": [
    {"type": "function", "name": "run", "lineno": 3, "col_offset": 0, "endline": 40, "complexity": 22, "rank": "D", "closures": []},
    {"type": "class", "name": "Service", "lineno": 42, "col_offset": 0, "endline": 80, "complexity": 6, "rank": "B", "methods": []},
    {"type": "method", "name": "handle", "classname": "Service", "lineno": 50, "col_offset": 4, "endline": 80, "complexity": 2, "rank": "A", "closures": []}
  ],
  "pkg/util.py": [
    {"type": "function", "name": "parse", "lineno": 1, "col_offset": 0, "endline": 90, "complexity": 45, "rank": "F", "closures": []}
  ],
  "broken.py": {"error": "invalid syntax (<unknown>, line 3)"}
}`

const radonMIOutput = `{
  "app.py": {"mi": 60.0, "rank": "A"},
  "pkg/util.py": {"mi": 40.0, "rank": "A"},
  "broken.py": {"error": "invalid syntax"}
}`

func TestComplexityAnalyzer(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "radon", []string{"cc", "-j", "."}, contract.ToolOutput{Stdout: []byte(radonCCOutput)}, nil)
	expectRun(runner, "radon", []string{"mi", "-j", "."}, contract.ToolOutput{Stdout: []byte(radonMIOutput)}, nil)

	snap := testSnapshot("app.py", "broken.py", "pkg/util.py")
	res := NewComplexityAnalyzer("radon", runner).Invoke(context.Background(), snap, schema.ToolConfig{})
	runner.AssertExpectations(t)

	require.Equal(t, schema.StatusOK, res.Status, res.Error)
	assert.InDelta(t, 23.0, res.Metrics[schema.MetricAverageComplexity], 1e-9) // (22+2+45)/3
	assert.Equal(t, 3.0, res.Metrics[schema.MetricTotalFunctions])
	assert.InDelta(t, 50.0, res.Metrics[schema.MetricMaintainabilityIndex], 1e-9)

	require.Len(t, res.Issues, 2)
	assert.Equal(t, "CCD", res.Issues[0].Rule)
	assert.Equal(t, schema.SeverityWarning, res.Issues[0].Severity)
	assert.Equal(t, "app.py", res.Issues[0].Path)
	assert.Equal(t, "CCF", res.Issues[1].Rule)
	assert.Equal(t, schema.SeverityError, res.Issues[1].Severity)

	require.Len(t, res.FileMeasures, 2)
	assert.Equal(t, "app.py", res.FileMeasures[0].Path)
	assert.InDelta(t, 12.0, *res.FileMeasures[0].Complexity, 1e-9)
	assert.InDelta(t, 60.0, *res.FileMeasures[0].Maintainability, 1e-9)
	assert.Equal(t, "pkg/util.py", res.FileMeasures[1].Path)
	assert.InDelta(t, 45.0, *res.FileMeasures[1].Complexity, 1e-9)
}

func TestComplexityAnalyzerWithoutMaintainability(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "radon", []string{"cc", "-j", "."}, contract.ToolOutput{Stdout: []byte(`{"a.py": []}`)}, nil)
	expectRun(runner, "radon", []string{"mi", "-j", "."}, contract.ToolOutput{ExitCode: 2, Stderr: []byte("no mi")}, nil)

	res := NewComplexityAnalyzer("radon", runner).Invoke(context.Background(), testSnapshot("a.py"), schema.ToolConfig{})
	require.Equal(t, schema.StatusOK, res.Status)
	_, ok := res.Metric(schema.MetricMaintainabilityIndex)
	assert.False(t, ok, "a missing maintainability report removes only that metric")
	assert.Equal(t, 0.0, res.Metrics[schema.MetricAverageComplexity])
}

func TestComplexityAnalyzerCCFailure(t *testing.T) {
	runner := new(contract.MockToolRunner)
	expectRun(runner, "radon", []string{"cc", "-j", "."}, contract.ToolOutput{ExitCode: 1, Stderr: []byte("Traceback")}, nil)

	res := NewComplexityAnalyzer("radon", runner).Invoke(context.Background(), testSnapshot("a.py"), schema.ToolConfig{})
	assert.Equal(t, schema.StatusToolError, res.Status)
	assert.Contains(t, res.Error, "Traceback")
}
