package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// ComplexityAnalyzer runs radon's cyclomatic complexity and maintainability index reports.
type ComplexityAnalyzer struct {
	toolBase
}

var _ contract.Analyzer = &ComplexityAnalyzer{} // Compile-time check

// NewComplexityAnalyzer creates the complexity adapter.
func NewComplexityAnalyzer(command string, runner contract.ToolRunner) contract.Analyzer {
	return &ComplexityAnalyzer{toolBase{
		name:       schema.ToolComplexity,
		command:    command,
		runner:     runner,
		categories: []schema.Category{schema.CategoryComplexity, schema.CategoryMaintainability},
	}}
}

type radonBlock struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Classname  string `json:"classname"`
	Lineno     int    `json:"lineno"`
	ColOffset  *int   `json:"col_offset"`
	Complexity int    `json:"complexity"`
	Rank       string `json:"rank"`
}

type radonMI struct {
	MI   *float64 `json:"mi"`
	Rank string   `json:"rank"`
}

// Invoke implements the contract.Analyzer interface.
func (a *ComplexityAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	if len(pythonFiles(snap, cfg.ExcludePaths)) == 0 {
		return a.notApplicable("no python files")
	}

	ccOut, failed := a.exec(ctx, snap, "cc", "-j", ".")
	if failed != nil {
		return *failed
	}
	if ccOut.ExitCode != 0 {
		return a.outputError(ccOut, nil)
	}
	cc, err := parseRadonCC(snap.RootPath, ccOut.Stdout, cfg.ExcludePaths)
	if err != nil {
		return a.outputError(ccOut, err)
	}

	metrics := map[string]float64{
		schema.MetricAverageComplexity: cc.average(),
		schema.MetricTotalFunctions:    float64(cc.functions),
	}
	measures := make(map[string]*schema.FileMeasure)
	for _, p := range slices.Sorted(maps.Keys(cc.perFile)) {
		measures[p] = &schema.FileMeasure{Path: p, Complexity: floatPtr(cc.perFile[p].average())}
	}

	// The maintainability report is best effort: its absence only removes that category.
	miOut, failed := a.exec(ctx, snap, "mi", "-j", ".")
	if failed != nil && failed.Status == schema.StatusTimeout {
		return *failed
	}
	if failed == nil && miOut.ExitCode == 0 {
		if mi, err := parseRadonMI(snap.RootPath, miOut.Stdout, cfg.ExcludePaths); err == nil && len(mi) > 0 {
			total := 0.0
			for p, v := range mi {
				total += v
				m, ok := measures[p]
				if !ok {
					m = &schema.FileMeasure{Path: p}
					measures[p] = m
				}
				m.Maintainability = floatPtr(v)
			}
			metrics[schema.MetricMaintainabilityIndex] = total / float64(len(mi))
		}
	}

	fileMeasures := make([]schema.FileMeasure, 0, len(measures))
	for _, p := range slices.Sorted(maps.Keys(measures)) {
		fileMeasures = append(fileMeasures, *measures[p])
	}
	return a.ok(ccOut, cfg, cc.issues, metrics, fileMeasures)
}

type complexityTally struct {
	total     int
	functions int
}

func (t complexityTally) average() float64 {
	if t.functions == 0 {
		return 0
	}
	return float64(t.total) / float64(t.functions)
}

type radonCCResult struct {
	complexityTally
	perFile map[string]complexityTally
	issues  []schema.Issue
}

// parseRadonCC averages function and method complexity and flags blocks ranked D or worse.
// Files radon could not parse are reported as an object with an error and are skipped.
func parseRadonCC(root string, stdout []byte, excludes []string) (radonCCResult, error) {
	res := radonCCResult{perFile: make(map[string]complexityTally)}
	stdout = bytes.TrimSpace(stdout)
	if len(stdout) == 0 {
		return res, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return res, err
	}
	for _, file := range slices.Sorted(maps.Keys(raw)) {
		var blocks []radonBlock
		if err := json.Unmarshal(raw[file], &blocks); err != nil {
			continue
		}
		p := relPath(root, file)
		if contract.ShouldIgnore(p, excludes) {
			continue
		}
		tally := res.perFile[p]
		for _, b := range blocks {
			if b.Type != "function" && b.Type != "method" {
				continue
			}
			tally.total += b.Complexity
			tally.functions++
			res.total += b.Complexity
			res.functions++

			if sev, flagged := rankSeverity(b.Rank); flagged {
				name := b.Name
				if b.Classname != "" {
					name = b.Classname + "." + b.Name
				}
				res.issues = append(res.issues, schema.Issue{
					Path:     p,
					Line:     b.Lineno,
					Column:   b.ColOffset,
					Severity: sev,
					Tool:     schema.ToolComplexity,
					Rule:     "CC" + b.Rank,
					Message:  fmt.Sprintf("%s %s has cyclomatic complexity %d (rank %s)", b.Type, name, b.Complexity, b.Rank),
				})
			}
		}
		res.perFile[p] = tally
	}
	return res, nil
}

// rankSeverity maps radon ranks D to F onto issue severities. Ranks A to C are not issues.
func rankSeverity(rank string) (schema.Severity, bool) {
	switch rank {
	case "D":
		return schema.SeverityWarning, true
	case "E", "F":
		return schema.SeverityError, true
	default:
		return "", false
	}
}

// parseRadonMI returns the maintainability index per file.
func parseRadonMI(root string, stdout []byte, excludes []string) (map[string]float64, error) {
	var raw map[string]radonMI
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &raw); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for file, v := range raw {
		p := relPath(root, file)
		if v.MI == nil || contract.ShouldIgnore(p, excludes) {
			continue
		}
		out[p] = *v.MI
	}
	return out, nil
}
