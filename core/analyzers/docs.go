package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"slices"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// DocsAnalyzer measures comment and docstring density with radon's raw metrics.
type DocsAnalyzer struct {
	toolBase
}

var _ contract.Analyzer = &DocsAnalyzer{} // Compile-time check

// NewDocsAnalyzer creates the documentation adapter.
func NewDocsAnalyzer(command string, runner contract.ToolRunner) contract.Analyzer {
	return &DocsAnalyzer{toolBase{
		name:       schema.ToolDocs,
		command:    command,
		runner:     runner,
		categories: []schema.Category{schema.CategoryDocumentation},
	}}
}

type radonRaw struct {
	LOC      *int `json:"loc"`
	SLOC     int  `json:"sloc"`
	Comments int  `json:"comments"`
	Multi    int  `json:"multi"`
}

// Invoke implements the contract.Analyzer interface.
func (a *DocsAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	if len(pythonFiles(snap, cfg.ExcludePaths)) == 0 {
		return a.notApplicable("no python files")
	}

	out, failed := a.exec(ctx, snap, "raw", "-j", ".")
	if failed != nil {
		return *failed
	}
	if out.ExitCode != 0 {
		return a.outputError(out, nil)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(out.Stdout), &raw); err != nil {
		return a.outputError(out, err)
	}

	var issues []schema.Issue
	var measures []schema.FileMeasure
	var documented, sloc int
	for _, file := range slices.Sorted(maps.Keys(raw)) {
		var r radonRaw
		if err := json.Unmarshal(raw[file], &r); err != nil || r.LOC == nil {
			continue // radon reports {"error": ...} for files it cannot parse
		}
		p := relPath(snap.RootPath, file)
		if contract.ShouldIgnore(p, cfg.ExcludePaths) {
			continue
		}
		measures = append(measures, schema.FileMeasure{Path: p, LinesOfCode: intPtr(*r.LOC)})
		documented += r.Comments + r.Multi
		sloc += r.SLOC
		if r.SLOC > 0 && r.Comments+r.Multi == 0 {
			issues = append(issues, schema.Issue{
				Path:     p,
				Line:     1,
				Severity: schema.SeverityInfo,
				Tool:     schema.ToolDocs,
				Rule:     "DOC001",
				Message:  "file has no comments or docstrings",
			})
		}
	}

	ratio := 0.0
	if sloc > 0 {
		ratio = float64(documented) / float64(sloc)
	}
	res := a.ok(out, cfg, issues, nil, measures)
	res.Metrics = map[string]float64{
		schema.MetricCommentRatio: ratio,
		schema.MetricLinesOfCode:  float64(sloc),
	}
	return res
}
