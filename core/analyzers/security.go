package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// SecurityAnalyzer runs bandit and counts findings by severity.
type SecurityAnalyzer struct {
	toolBase
}

var _ contract.Analyzer = &SecurityAnalyzer{} // Compile-time check

// NewSecurityAnalyzer creates the security adapter.
func NewSecurityAnalyzer(command string, runner contract.ToolRunner) contract.Analyzer {
	return &SecurityAnalyzer{toolBase{
		name:       schema.ToolSecurity,
		command:    command,
		runner:     runner,
		categories: []schema.Category{schema.CategorySecurity},
	}}
}

type banditReport struct {
	Results []banditResult `json:"results"`
}

type banditResult struct {
	Filename   string `json:"filename"`
	LineNumber int    `json:"line_number"`
	ColOffset  *int   `json:"col_offset"`
	Severity   string `json:"issue_severity"`
	Confidence string `json:"issue_confidence"`
	Text       string `json:"issue_text"`
	TestID     string `json:"test_id"`
	TestName   string `json:"test_name"`
}

// Invoke implements the contract.Analyzer interface.
func (a *SecurityAnalyzer) Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	if len(pythonFiles(snap, cfg.ExcludePaths)) == 0 {
		return a.notApplicable("no python files")
	}

	args := []string{"-r", "-f", "json", "-q"}
	if enabled := cfg.EnabledRules(); len(enabled) > 0 {
		args = append(args, "-t", strings.Join(enabled, ","))
	}
	if disabled := cfg.DisabledRules(); len(disabled) > 0 {
		args = append(args, "-s", strings.Join(disabled, ","))
	}
	args = append(args, ".")

	out, failed := a.exec(ctx, snap, args...)
	if failed != nil {
		return *failed
	}

	// bandit exits with 1 when it found issues; only unparseable output is a failure.
	issues, err := parseBandit(snap.RootPath, out.Stdout)
	if err != nil {
		return a.outputError(out, err)
	}

	res := a.ok(out, cfg, issues, nil, nil)
	metrics := map[string]float64{
		schema.MetricIssueCount:   float64(len(res.Issues)),
		schema.MetricHighIssues:   0,
		schema.MetricMediumIssues: 0,
		schema.MetricLowIssues:    0,
	}
	for _, issue := range res.Issues {
		switch issue.Severity {
		case schema.SeverityError:
			metrics[schema.MetricHighIssues]++
		case schema.SeverityWarning:
			metrics[schema.MetricMediumIssues]++
		default:
			metrics[schema.MetricLowIssues]++
		}
	}
	res.Metrics = metrics
	return res
}

func parseBandit(root string, stdout []byte) ([]schema.Issue, error) {
	stdout = bytes.TrimSpace(stdout)
	if len(stdout) == 0 {
		return nil, errors.New("empty report")
	}
	var report banditReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, err
	}
	issues := make([]schema.Issue, 0, len(report.Results))
	for _, r := range report.Results {
		message := r.Text
		if r.Confidence != "" {
			message += " (confidence: " + strings.ToLower(r.Confidence) + ")"
		}
		issues = append(issues, schema.Issue{
			Path:     relPath(root, r.Filename),
			Line:     r.LineNumber,
			Column:   r.ColOffset,
			Severity: banditSeverity(r.Severity),
			Tool:     schema.ToolSecurity,
			Rule:     r.TestID,
			Message:  message,
		})
	}
	return issues, nil
}

func banditSeverity(s string) schema.Severity {
	switch strings.ToUpper(s) {
	case "HIGH":
		return schema.SeverityError
	case "MEDIUM":
		return schema.SeverityWarning
	default:
		return schema.SeverityInfo
	}
}
