// Package analyzers adapts external static-analysis tools to the contract.Analyzer interface.
// Each adapter builds the tool invocation, captures its output and translates the tool's
// vocabulary into the common Issue shape. Expected failures become result statuses.
package analyzers

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// maxReasonLength caps how much tool stderr ends up in a failure reason.
const maxReasonLength = 300

// Constructor builds an adapter that drives command through runner.
type Constructor func(command string, runner contract.ToolRunner) contract.Analyzer

// registry holds the built-in adapters by name.
var registry = map[string]Constructor{
	schema.ToolLint:       NewLintAnalyzer,
	schema.ToolSecurity:   NewSecurityAnalyzer,
	schema.ToolComplexity: NewComplexityAnalyzer,
	schema.ToolStyle:      NewStyleAnalyzer,
	schema.ToolDeadCode:   NewDeadCodeAnalyzer,
	schema.ToolCoverage:   NewCoverageAnalyzer,
	schema.ToolDocs:       NewDocsAnalyzer,
}

// New builds the built-in adapter registered under name.
func New(name string, command string, runner contract.ToolRunner) (contract.Analyzer, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown analyzer %q", name)
	}
	if command == "" {
		command = contract.DefaultToolCommands[name]
	}
	return ctor(command, runner), nil
}

// FromConfig builds every enabled adapter in registration order.
func FromConfig(cfg *contract.Config, runner contract.ToolRunner) ([]contract.Analyzer, error) {
	var adapters []contract.Analyzer
	for _, name := range cfg.EnabledTools() {
		a, err := New(name, cfg.ToolCommand(name), runner)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// toolBase carries what every adapter shares.
type toolBase struct {
	name       string
	command    string
	runner     contract.ToolRunner
	categories []schema.Category
}

// Name implements the contract.Analyzer interface.
func (b *toolBase) Name() string { return b.name }

// Categories implements the contract.Analyzer interface.
func (b *toolBase) Categories() []schema.Category { return slices.Clone(b.categories) }

// Command returns the executable the adapter drives. Result cache keys include it.
func (b *toolBase) Command() string { return b.command }

// exec runs the tool inside the snapshot root. A non-nil result means the
// invocation itself failed and should be returned as is.
func (b *toolBase) exec(ctx context.Context, snap schema.Snapshot, args ...string) (contract.ToolOutput, *schema.AnalyzerResult) {
	out, err := b.runner.Run(ctx, snap.RootPath, b.command, args...)
	if err == nil {
		return out, nil
	}
	var res schema.AnalyzerResult
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res = b.fail(schema.StatusTimeout, fmt.Sprintf("%s did not finish in time", b.command), out)
	case errors.Is(err, context.Canceled):
		res = b.fail(schema.StatusToolError, "cancelled", out)
	default:
		res = b.fail(schema.StatusToolError, err.Error(), out)
	}
	return out, &res
}

// fail builds a non-ok result that keeps whatever the tool printed.
func (b *toolBase) fail(status schema.AnalyzerStatus, reason string, out contract.ToolOutput) schema.AnalyzerResult {
	return schema.AnalyzerResult{
		Tool:      b.name,
		Status:    status,
		RawOutput: string(out.Stdout),
		Error:     reason,
	}
}

// notApplicable reports that the snapshot has nothing this tool can analyze.
func (b *toolBase) notApplicable(reason string) schema.AnalyzerResult {
	return schema.AnalyzerResult{Tool: b.name, Status: schema.StatusNotApplicable, Error: reason}
}

// outputError builds the failure for output that could not be interpreted.
func (b *toolBase) outputError(out contract.ToolOutput, err error) schema.AnalyzerResult {
	reason := fmt.Sprintf("%s exited with code %d", b.command, out.ExitCode)
	if err != nil {
		reason = fmt.Sprintf("%s output could not be parsed: %v", b.command, err)
	}
	if stderr := strings.TrimSpace(string(out.Stderr)); stderr != "" {
		reason += ": " + truncate(stderr, maxReasonLength)
	}
	return b.fail(schema.StatusToolError, reason, out)
}

// ok builds a successful result with excluded paths filtered out.
func (b *toolBase) ok(out contract.ToolOutput, cfg schema.ToolConfig, issues []schema.Issue, metrics map[string]float64, measures []schema.FileMeasure) schema.AnalyzerResult {
	return schema.AnalyzerResult{
		Tool:         b.name,
		Status:       schema.StatusOK,
		RawOutput:    string(out.Stdout),
		Issues:       filterIssues(issues, cfg.ExcludePaths),
		Metrics:      metrics,
		FileMeasures: filterMeasures(measures, cfg.ExcludePaths),
	}
}

// pythonFiles returns the snapshot's non-excluded Python sources.
func pythonFiles(snap schema.Snapshot, excludes []string) []string {
	var files []string
	for _, f := range snap.Files {
		if strings.HasSuffix(f, ".py") && !contract.ShouldIgnore(f, excludes) {
			files = append(files, f)
		}
	}
	return files
}

// relPath converts a tool-reported path into a slash-separated path relative to root.
func relPath(root, p string) string {
	p = strings.TrimSpace(p)
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
	}
	p = path.Clean(filepath.ToSlash(p))
	return strings.TrimPrefix(p, "./")
}

func filterIssues(issues []schema.Issue, excludes []string) []schema.Issue {
	if len(excludes) == 0 {
		return issues
	}
	return slices.DeleteFunc(issues, func(i schema.Issue) bool {
		return contract.ShouldIgnore(i.Path, excludes)
	})
}

func filterMeasures(measures []schema.FileMeasure, excludes []string) []schema.FileMeasure {
	if len(excludes) == 0 {
		return measures
	}
	return slices.DeleteFunc(measures, func(m schema.FileMeasure) bool {
		return contract.ShouldIgnore(m.Path, excludes)
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
