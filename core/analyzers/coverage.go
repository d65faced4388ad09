package analyzers

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// coverageDataFile is the data file coverage.py leaves behind after a test run.
const coverageDataFile = ".coverage"

// CoverageAnalyzer reports the coverage recorded in an existing coverage.py data file.
// It never runs the test suite.
type CoverageAnalyzer struct {
	toolBase
}

var _ contract.Analyzer = &CoverageAnalyzer{} // Compile-time check

// NewCoverageAnalyzer creates the coverage adapter.
func NewCoverageAnalyzer(command string, runner contract.ToolRunner) contract.Analyzer {
	return &CoverageAnalyzer{toolBase{
		name:       schema.ToolCoverage,
		command:    command,
		runner:     runner,
		categories: []schema.Category{schema.CategoryCoverage},
	}}
}

type coverageReport struct {
	Totals struct {
		PercentCovered *float64 `json:"percent_covered"`
	} `json:"totals"`
}

// Invoke implements the contract.Analyzer interface.
func (a *CoverageAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, _ schema.ToolConfig) schema.AnalyzerResult {
	if !slices.Contains(snap.Files, coverageDataFile) {
		return a.notApplicable("no " + coverageDataFile + " data file")
	}

	// The snapshot is read-only; the report goes under the job's scratch directory.
	scratch, err := os.MkdirTemp(snap.ScratchDir, "coverage-report-*")
	if err != nil {
		return a.fail(schema.StatusToolError, err.Error(), contract.ToolOutput{})
	}
	defer func() { _ = os.RemoveAll(scratch) }()
	report := filepath.Join(scratch, "coverage.json")

	out, failed := a.exec(ctx, snap, "json", "-i", "-q",
		"--data-file="+filepath.Join(snap.RootPath, coverageDataFile), "-o", report)
	if failed != nil {
		return *failed
	}
	if out.ExitCode != 0 {
		return a.outputError(out, nil)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		return a.outputError(out, err)
	}
	percent, err := parseCoverage(data)
	if err != nil {
		return a.outputError(out, err)
	}

	res := a.ok(contract.ToolOutput{Stdout: data}, schema.ToolConfig{}, nil, nil, nil)
	res.Metrics = map[string]float64{schema.MetricCoveragePercent: percent}
	return res
}

func parseCoverage(data []byte) (float64, error) {
	var report coverageReport
	if err := json.Unmarshal(data, &report); err != nil {
		return 0, err
	}
	if report.Totals.PercentCovered == nil {
		return 0, errors.New("report has no totals.percent_covered")
	}
	return *report.Totals.PercentCovered, nil
}
