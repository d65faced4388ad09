package contract

import (
	"context"

	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/mock"
)

// --- MockToolRunner Implementation ---

// MockToolRunner is a mock type for the ToolRunner type.
type MockToolRunner struct {
	mock.Mock
}

var _ ToolRunner = &MockToolRunner{} // Compile-time check

// Run implements the ToolRunner interface.
func (m *MockToolRunner) Run(ctx context.Context, dir string, name string, args ...string) (ToolOutput, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, dir, name)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	out, _ := ret.Get(0).(ToolOutput)
	return out, ret.Error(1)
}

// LookPath implements the ToolRunner interface.
func (m *MockToolRunner) LookPath(name string) (string, error) {
	ret := m.Called(name)
	return ret.String(0), ret.Error(1)
}

// --- MockAcquirer Implementation ---

// MockAcquirer is a mock type for the Acquirer type.
type MockAcquirer struct {
	mock.Mock
}

var _ Acquirer = &MockAcquirer{} // Compile-time check

// Acquire implements the Acquirer interface.
func (m *MockAcquirer) Acquire(ctx context.Context, repo schema.Repository, commit string, dest string, limits SnapshotLimits) (string, error) {
	ret := m.Called(ctx, repo, commit, dest, limits)
	return ret.String(0), ret.Error(1)
}

// --- MockAnalyzer Implementation ---

// MockAnalyzer is a mock type for the Analyzer type.
type MockAnalyzer struct {
	mock.Mock
}

var _ Analyzer = &MockAnalyzer{} // Compile-time check

// Name implements the Analyzer interface.
func (m *MockAnalyzer) Name() string {
	return m.Called().String(0)
}

// Categories implements the Analyzer interface.
func (m *MockAnalyzer) Categories() []schema.Category {
	cats, _ := m.Called().Get(0).([]schema.Category)
	return cats
}

// Invoke implements the Analyzer interface.
func (m *MockAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	res, _ := m.Called(ctx, snap, cfg).Get(0).(schema.AnalyzerResult)
	return res
}
