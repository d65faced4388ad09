package outwriter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nishalpattan/code-review-analyzer/schema"
)

// reportIssueLimit is how many issues of each tool the report lists.
const reportIssueLimit = 5

// writeJobReport writes the plain text report of a job, suitable for sharing by mail.
func writeJobReport(w io.Writer, job *schema.AnalysisJob, repo schema.Repository, fmtFloat func(float64) string) error {
	generated := time.Now()
	if job.CompletedAt != nil {
		generated = *job.CompletedAt
	}

	var b strings.Builder
	title := fmt.Sprintf("Code Analysis Report - %s", repo.Name)
	fmt.Fprintf(&b, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	fmt.Fprintf(&b, "Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Job: %s (%s)\n", job.ID, job.Status)
	if job.CommitHash != "" {
		fmt.Fprintf(&b, "Commit: %s\n", job.CommitHash)
	}

	b.WriteString("\nSUMMARY SCORES:\n")
	fmt.Fprintf(&b, "📊 Confidence Score: %s/100\n", formatOptional(job.Scores.Confidence, fmtFloat))
	fmt.Fprintf(&b, "📊 Quality Score: %s/100\n", formatOptional(job.Scores.Quality, fmtFloat))

	b.WriteString("\nDETAILED METRICS:\n")
	fmt.Fprintf(&b, "🔍 Lint Score: %s/10\n", toolMetric(job, schema.ToolLint, schema.MetricScore, fmtFloat))
	fmt.Fprintf(&b, "🚨 Security Issues: %s\n", toolIssueCount(job, schema.ToolSecurity))
	fmt.Fprintf(&b, "🔄 Average Complexity: %s\n", toolMetric(job, schema.ToolComplexity, schema.MetricAverageComplexity, fmtFloat))
	fmt.Fprintf(&b, "🎨 Style Issues: %s\n", toolIssueCount(job, schema.ToolStyle))
	fmt.Fprintf(&b, "💀 Dead Code Lines: %s\n", toolMetric(job, schema.ToolDeadCode, schema.MetricDeadCodeLines, fmtFloat))

	b.WriteString("\nPROJECT STATISTICS:\n")
	fmt.Fprintf(&b, "📁 Total Files: %d\n", job.TotalFiles)
	fmt.Fprintf(&b, "📝 Total Lines: %d\n", job.TotalLines)
	fmt.Fprintf(&b, "⏱️ Analysis Duration: %s seconds\n", fmtFloat(job.Duration().Seconds()))

	byTool := job.IssuesByTool()

	b.WriteString("\nSECURITY ANALYSIS:\n")
	writeIssueSection(&b, byTool[schema.ToolSecurity], "security issues", "✅ No security issues found!",
		func(issue schema.Issue) string {
			return fmt.Sprintf("%s (Severity: %s)", issue.Message, issue.Severity)
		})

	b.WriteString("\nCODE QUALITY ISSUES:\n")
	writeIssueSection(&b, byTool[schema.ToolLint], "code quality issues", "✅ No major code quality issues found!",
		func(issue schema.Issue) string {
			return fmt.Sprintf("%s (Line: %d)", issue.Message, issue.Line)
		})

	if job.Error != nil {
		b.WriteString("\nFAILURE:\n")
		fmt.Fprintf(&b, "%s: %s\n", job.Error.Kind, job.Error.Reason)
		for _, t := range job.Error.Tools {
			fmt.Fprintf(&b, "  - %s (%s): %s\n", t.Tool, t.Status, t.Reason)
		}
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	b.WriteString(recommendation(job.Scores.Confidence))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// writeIssueSection lists the first issues of one tool.
func writeIssueSection(b *strings.Builder, issues []schema.Issue, noun, none string, describe func(schema.Issue) string) {
	if len(issues) == 0 {
		b.WriteString(none + "\n")
		return
	}
	fmt.Fprintf(b, "Found %d %s:\n", len(issues), noun)
	for i, issue := range issues[:min(len(issues), reportIssueLimit)] {
		fmt.Fprintf(b, "  %d. %s\n", i+1, describe(issue))
	}
	if len(issues) > reportIssueLimit {
		fmt.Fprintf(b, "  ... and %d more issues\n", len(issues)-reportIssueLimit)
	}
}

// recommendation turns the confidence score into advice.
func recommendation(confidence *float64) string {
	switch {
	case confidence == nil:
		return "❌ The analysis did not produce a score. Check that the analyzers are installed."
	case *confidence >= 80:
		return "🎉 Excellent code quality! Keep up the good work."
	case *confidence >= 60:
		return "👍 Good code quality with room for improvement."
	default:
		return "⚠️ Code quality needs attention. Consider addressing the issues found."
	}
}

// toolMetric formats a metric reported by a tool that ran to completion.
func toolMetric(job *schema.AnalysisJob, tool, metric string, fmtFloat func(float64) string) string {
	t := findTool(job, tool)
	if t == nil || t.Status != schema.StatusOK {
		return notAvailable
	}
	v, ok := t.Metrics[metric]
	if !ok {
		return notAvailable
	}
	return fmtFloat(v)
}

// toolIssueCount formats the number of issues of a tool that ran to completion.
func toolIssueCount(job *schema.AnalysisJob, tool string) string {
	t := findTool(job, tool)
	if t == nil || t.Status != schema.StatusOK {
		return notAvailable
	}
	return fmt.Sprintf("%d", t.IssueCount)
}
