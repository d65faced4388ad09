package analyzers

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// StyleAnalyzer runs flake8 and counts style violations.
type StyleAnalyzer struct {
	toolBase
}

var _ contract.Analyzer = &StyleAnalyzer{} // Compile-time check

// NewStyleAnalyzer creates the style adapter.
func NewStyleAnalyzer(command string, runner contract.ToolRunner) contract.Analyzer {
	return &StyleAnalyzer{toolBase{
		name:       schema.ToolStyle,
		command:    command,
		runner:     runner,
		categories: []schema.Category{schema.CategoryStyle},
	}}
}

// Invoke implements the contract.Analyzer interface.
func (a *StyleAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	if len(pythonFiles(snap, cfg.ExcludePaths)) == 0 {
		return a.notApplicable("no python files")
	}

	args := []string{"--exit-zero"}
	if enabled := cfg.EnabledRules(); len(enabled) > 0 {
		args = append(args, "--extend-select="+strings.Join(enabled, ","))
	}
	if disabled := cfg.DisabledRules(); len(disabled) > 0 {
		args = append(args, "--extend-ignore="+strings.Join(disabled, ","))
	}
	if len(cfg.ExcludePaths) > 0 {
		args = append(args, "--extend-exclude="+strings.Join(cfg.ExcludePaths, ","))
	}
	args = append(args, ".")

	out, failed := a.exec(ctx, snap, args...)
	if failed != nil {
		return *failed
	}
	// With --exit-zero any other status means flake8 itself failed.
	if out.ExitCode != 0 {
		return a.outputError(out, nil)
	}

	res := a.ok(out, cfg, parseFlake8(snap.RootPath, out.Stdout), nil, nil)
	res.Metrics = map[string]float64{schema.MetricIssueCount: float64(len(res.Issues))}
	return res
}

// parseFlake8 reads the default "path:line:col: CODE message" format.
// Lines that do not follow it are skipped.
func parseFlake8(root string, stdout []byte) []schema.Issue {
	var issues []schema.Issue
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 4)
		if len(parts) < 4 {
			continue
		}
		lineNo, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		code, message, _ := strings.Cut(strings.TrimSpace(parts[3]), " ")
		issue := schema.Issue{
			Path:     relPath(root, parts[0]),
			Line:     lineNo,
			Severity: flake8Severity(code),
			Tool:     schema.ToolStyle,
			Rule:     code,
			Message:  strings.TrimSpace(message),
		}
		if col, err := strconv.Atoi(parts[2]); err == nil {
			issue.Column = intPtr(col)
		}
		issues = append(issues, issue)
	}
	return issues
}

func flake8Severity(code string) schema.Severity {
	switch {
	case strings.HasPrefix(code, "E"), strings.HasPrefix(code, "F"):
		return schema.SeverityError
	case strings.HasPrefix(code, "W"):
		return schema.SeverityWarning
	default: // C, N and plugin codes
		return schema.SeverityInfo
	}
}
