package analyzers

import (
	"context"
	"errors"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRoot = "/work/job-1/src"

func testSnapshot(files ...string) schema.Snapshot {
	return schema.Snapshot{RootPath: testRoot, Files: files, FileCount: len(files)}
}

// expectRun programs the mock runner for one invocation of command with args.
func expectRun(runner *contract.MockToolRunner, command string, args []string, out contract.ToolOutput, err error) {
	callArgs := []any{mock.Anything, testRoot, command}
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	runner.On("Run", callArgs...).Return(out, err).Once()
}

func TestNewAndFromConfig(t *testing.T) {
	runner := new(contract.MockToolRunner)

	a, err := New(schema.ToolLint, "", runner)
	require.NoError(t, err)
	assert.Equal(t, schema.ToolLint, a.Name())
	assert.Equal(t, []schema.Category{schema.CategoryLint}, a.Categories())

	_, err = New("eslint", "eslint", runner)
	assert.Error(t, err)

	cfg := contract.NewDefaultConfig()
	adapters, err := FromConfig(cfg, runner)
	require.NoError(t, err)
	var names []string
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	assert.Equal(t, contract.DefaultEnabledTools, names)
}

func TestCategoriesAreCopies(t *testing.T) {
	a := NewComplexityAnalyzer("radon", new(contract.MockToolRunner))
	cats := a.Categories()
	cats[0] = schema.CategoryStyle
	assert.Equal(t, schema.CategoryComplexity, a.Categories()[0])
}

func TestExecFailureStatuses(t *testing.T) {
	snap := testSnapshot("a.py")
	tests := []struct {
		name     string
		err      error
		status   schema.AnalyzerStatus
		contains string
	}{
		{"not installed", contract.ErrToolNotInstalled, schema.StatusToolError, "not installed"},
		{"deadline", context.DeadlineExceeded, schema.StatusTimeout, "did not finish in time"},
		{"cancelled", context.Canceled, schema.StatusToolError, "cancelled"},
		{"other", errors.New("exec format error"), schema.StatusToolError, "exec format error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(contract.MockToolRunner)
			runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(contract.ToolOutput{ExitCode: -1}, tt.err)

			res := NewStyleAnalyzer("flake8", runner).Invoke(context.Background(), snap, schema.ToolConfig{TimeoutSeconds: 5})
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Error, tt.contains)
			assert.Empty(t, res.Issues)
		})
	}
}

func TestNoPythonFilesIsNotApplicable(t *testing.T) {
	snap := testSnapshot("README.md", "vendor/lib.py")
	cfg := schema.ToolConfig{ExcludePaths: []string{"vendor/"}}
	runner := new(contract.MockToolRunner)

	for _, name := range []string{schema.ToolLint, schema.ToolSecurity, schema.ToolComplexity, schema.ToolStyle, schema.ToolDeadCode, schema.ToolDocs, schema.ToolCoverage} {
		a, err := New(name, "", runner)
		require.NoError(t, err)
		res := a.Invoke(context.Background(), snap, cfg)
		assert.Equal(t, schema.StatusNotApplicable, res.Status, name)
	}
	assert.Empty(t, runner.Calls, "no tool is started for a tree without python files")
}

func TestRelPath(t *testing.T) {
	assert.Equal(t, "pkg/a.py", relPath(testRoot, "./pkg/a.py"))
	assert.Equal(t, "pkg/a.py", relPath(testRoot, "pkg/a.py"))
	assert.Equal(t, "pkg/a.py", relPath(testRoot, testRoot+"/pkg/a.py"))
	assert.Equal(t, "a.py", relPath(testRoot, " a.py "))
}
