package analyzers

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// vultureHighConfidence is the confidence at which unused code is reported as a warning.
const vultureHighConfidence = 90

// vultureLine matches "path:line: message (NN% confidence)" with an optional size suffix.
var vultureLine = regexp.MustCompile(`^(.+?):(\d+): (.+?)(?: \((\d+)% confidence(?:, \d+ lines?)?\))?$`)

// vultureExitFound is the status vulture uses when it found dead code.
const vultureExitFound = 3

// DeadCodeAnalyzer runs vulture and reports unused code.
type DeadCodeAnalyzer struct {
	toolBase
}

var _ contract.Analyzer = &DeadCodeAnalyzer{} // Compile-time check

// NewDeadCodeAnalyzer creates the dead code adapter.
func NewDeadCodeAnalyzer(command string, runner contract.ToolRunner) contract.Analyzer {
	return &DeadCodeAnalyzer{toolBase{
		name:       schema.ToolDeadCode,
		command:    command,
		runner:     runner,
		categories: []schema.Category{schema.CategoryDeadCode},
	}}
}

// Invoke implements the contract.Analyzer interface.
func (a *DeadCodeAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	if len(pythonFiles(snap, cfg.ExcludePaths)) == 0 {
		return a.notApplicable("no python files")
	}

	args := []string{"."}
	if len(cfg.ExcludePaths) > 0 {
		args = append(args, "--exclude", strings.Join(cfg.ExcludePaths, ","))
	}
	if disabled := cfg.DisabledRules(); len(disabled) > 0 {
		args = append(args, "--ignore-names", strings.Join(disabled, ","))
	}

	out, failed := a.exec(ctx, snap, args...)
	if failed != nil {
		return *failed
	}
	if out.ExitCode != 0 && out.ExitCode != vultureExitFound {
		return a.outputError(out, nil)
	}

	res := a.ok(out, cfg, parseVulture(snap.RootPath, out.Stdout), nil, nil)
	res.Metrics = map[string]float64{schema.MetricDeadCodeLines: float64(len(res.Issues))}
	return res
}

func parseVulture(root string, stdout []byte) []schema.Issue {
	var issues []schema.Issue
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := vultureLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		confidence := 0
		if m[4] != "" {
			confidence, _ = strconv.Atoi(m[4])
		}
		severity := schema.SeverityInfo
		if confidence >= vultureHighConfidence {
			severity = schema.SeverityWarning
		}
		issues = append(issues, schema.Issue{
			Path:     relPath(root, m[1]),
			Line:     lineNo,
			Severity: severity,
			Tool:     schema.ToolDeadCode,
			Rule:     vultureRule(m[3]),
			Message:  m[3],
		})
	}
	return issues
}

// vultureRule derives a rule id from the message, e.g. "unused import 'os'" becomes "unused-import".
func vultureRule(message string) string {
	head, _, _ := strings.Cut(message, "'")
	head = strings.TrimSpace(head)
	if head == "" {
		return "dead-code"
	}
	return strings.ReplaceAll(strings.ToLower(head), " ", "-")
}
