// Package normalize merges analyzer results into one deterministic, file-grouped view.
package normalize

import (
	"cmp"
	"maps"
	"slices"

	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Merged is the job-wide view of every analyzer result of one run.
type Merged struct {
	Issues           []schema.Issue          `json:"issues"`
	Files            []schema.FileMetrics    `json:"files"`
	Tools            []schema.ToolSummary    `json:"tools"`
	IssuesBySeverity map[schema.Severity]int `json:"issues_by_severity"`
}

// Merge combines results, given in adapter registration order, with the snapshot's
// file listing. Issues are ordered by registration index, then path, line, column,
// rule and message. Issues are never deduplicated across tools. Only results with
// status ok contribute issues and measures, but every result gets a tool summary.
func Merge(results []schema.AnalyzerResult, files []string) Merged {
	merged := Merged{
		Issues:           []schema.Issue{},
		Files:            []schema.FileMetrics{},
		Tools:            make([]schema.ToolSummary, 0, len(results)),
		IssuesBySeverity: make(map[schema.Severity]int),
	}

	rollups := make(map[string]*schema.FileMetrics, len(files))
	rollup := func(path string) *schema.FileMetrics {
		fm, ok := rollups[path]
		if !ok {
			fm = &schema.FileMetrics{
				Path:             path,
				IssuesByTool:     make(map[string]int),
				IssuesBySeverity: make(map[schema.Severity]int),
			}
			rollups[path] = fm
		}
		return fm
	}
	for _, f := range files {
		rollup(f)
	}

	for _, res := range results {
		merged.Tools = append(merged.Tools, summarize(res))
		if !res.OK() {
			continue
		}

		issues := slices.Clone(res.Issues)
		slices.SortStableFunc(issues, compareIssues)
		for _, issue := range issues {
			merged.Issues = append(merged.Issues, issue)
			merged.IssuesBySeverity[issue.Severity]++
			fm := rollup(issue.Path)
			fm.IssuesByTool[res.Tool]++
			fm.IssuesBySeverity[issue.Severity]++
		}

		// The first adapter in registration order that supplies a number wins.
		for _, m := range res.FileMeasures {
			fm := rollup(m.Path)
			if fm.LinesOfCode == nil && m.LinesOfCode != nil {
				fm.LinesOfCode = m.LinesOfCode
			}
			if fm.Complexity == nil && m.Complexity != nil {
				fm.Complexity = m.Complexity
			}
			if fm.Maintainability == nil && m.Maintainability != nil {
				fm.Maintainability = m.Maintainability
			}
		}
	}

	for _, path := range slices.Sorted(maps.Keys(rollups)) {
		merged.Files = append(merged.Files, *rollups[path])
	}
	return merged
}

// Succeeded reports whether at least one tool finished with status ok.
func (m Merged) Succeeded() bool {
	return slices.ContainsFunc(m.Tools, func(t schema.ToolSummary) bool {
		return t.Status == schema.StatusOK
	})
}

// Failures lists every tool that did not finish with status ok.
func (m Merged) Failures() []schema.ToolFailure {
	var failures []schema.ToolFailure
	for _, t := range m.Tools {
		if t.Status != schema.StatusOK {
			failures = append(failures, schema.ToolFailure{Tool: t.Tool, Status: t.Status, Reason: t.Error})
		}
	}
	return failures
}

func summarize(res schema.AnalyzerResult) schema.ToolSummary {
	return schema.ToolSummary{
		Tool:       res.Tool,
		Status:     res.Status,
		IssueCount: len(res.Issues),
		Metrics:    maps.Clone(res.Metrics),
		Error:      res.Error,
		DurationMs: res.Duration.Milliseconds(),
	}
}

// compareIssues orders issues of one tool. A missing column sorts before any column.
func compareIssues(a, b schema.Issue) int {
	if c := cmp.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	if c := compareColumn(a.Column, b.Column); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Rule, b.Rule); c != 0 {
		return c
	}
	return cmp.Compare(a.Message, b.Message)
}

func compareColumn(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}
