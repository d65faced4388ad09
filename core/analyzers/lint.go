package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// defaultLintDisabled are pylint checks that are too noisy to be useful by default.
var defaultLintDisabled = []string{"C0103", "C0111"}

// pylintUsageError is the exit status bit pylint sets when it could not run at all.
const pylintUsageError = 32

// LintAnalyzer runs pylint and reports a 0-10 lint score.
type LintAnalyzer struct {
	toolBase
}

var _ contract.Analyzer = &LintAnalyzer{} // Compile-time check

// NewLintAnalyzer creates the lint adapter.
func NewLintAnalyzer(command string, runner contract.ToolRunner) contract.Analyzer {
	return &LintAnalyzer{toolBase{
		name:       schema.ToolLint,
		command:    command,
		runner:     runner,
		categories: []schema.Category{schema.CategoryLint},
	}}
}

type pylintMessage struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Column    *int   `json:"column"`
	Symbol    string `json:"symbol"`
	Message   string `json:"message"`
	MessageID string `json:"message-id"`
}

// Invoke implements the contract.Analyzer interface.
func (a *LintAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	files := pythonFiles(snap, cfg.ExcludePaths)
	if len(files) == 0 {
		return a.notApplicable("no python files")
	}

	args := []string{
		"--output-format=json",
		"--recursive=y",
		"--disable=" + strings.Join(append(append([]string{}, defaultLintDisabled...), cfg.DisabledRules()...), ","),
	}
	if enabled := cfg.EnabledRules(); len(enabled) > 0 {
		args = append(args, "--enable="+strings.Join(enabled, ","))
	}
	args = append(args, ".")

	out, failed := a.exec(ctx, snap, args...)
	if failed != nil {
		return *failed
	}

	issues, err := parsePylint(snap.RootPath, out.Stdout)
	if err != nil || (out.ExitCode&pylintUsageError != 0) {
		return a.outputError(out, err)
	}

	res := a.ok(out, cfg, issues, nil, nil)
	res.Metrics = map[string]float64{
		schema.MetricScore:      pylintScore(len(res.Issues), len(files)),
		schema.MetricIssueCount: float64(len(res.Issues)),
	}
	return res
}

// pylintScore is 10 minus the number of issues per Python file, floored at 0.
func pylintScore(issues, files int) float64 {
	if files == 0 {
		return 10
	}
	return math.Max(0, 10-float64(issues)/float64(files))
}

// parsePylint decodes pylint's JSON reporter output. Empty output means no messages.
func parsePylint(root string, stdout []byte) ([]schema.Issue, error) {
	stdout = bytes.TrimSpace(stdout)
	if len(stdout) == 0 {
		return nil, nil
	}
	var messages []pylintMessage
	if err := json.Unmarshal(stdout, &messages); err != nil {
		return nil, err
	}
	issues := make([]schema.Issue, 0, len(messages))
	for _, m := range messages {
		rule := m.MessageID
		if rule == "" {
			rule = m.Symbol
		}
		issues = append(issues, schema.Issue{
			Path:     relPath(root, m.Path),
			Line:     m.Line,
			Column:   m.Column,
			Severity: pylintSeverity(m.Type),
			Tool:     schema.ToolLint,
			Rule:     rule,
			Message:  m.Message,
		})
	}
	return issues, nil
}

func pylintSeverity(kind string) schema.Severity {
	switch strings.ToLower(kind) {
	case "fatal", "error":
		return schema.SeverityError
	case "warning":
		return schema.SeverityWarning
	default: // convention, refactor, info
		return schema.SeverityInfo
	}
}
