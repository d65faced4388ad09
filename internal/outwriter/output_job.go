package outwriter

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// fileTableColumns is the width taken by every column of the file table except the path.
const fileTableColumns = 60

// jobView is the JSON document of one job.
type jobView struct {
	Repository      schema.Repository `json:"repository"`
	ConfidenceLabel string            `json:"confidence_label,omitempty"`
	QualityLabel    string            `json:"quality_label,omitempty"`
	DurationSeconds float64           `json:"duration_seconds"`
	*schema.AnalysisJob
}

// WriteJobResult outputs one job, dispatching based on the output format configured.
func WriteJobResult(job *schema.AnalysisJob, repo schema.Repository, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJobJSON(w, job, repo)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJobIssuesCSV(w, job, intFmt)
		}, "Wrote CSV")
	case schema.ReportOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJobReport(w, job, repo, fmtFloat)
		}, "Wrote report")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJobTable(w, job, repo, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
}

// writeJobJSON writes the job with its repository and score labels.
func writeJobJSON(w io.Writer, job *schema.AnalysisJob, repo schema.Repository) error {
	view := jobView{
		Repository:      repo,
		DurationSeconds: job.Duration().Seconds(),
		AnalysisJob:     job,
	}
	if job.Scores.Confidence != nil {
		view.ConfidenceLabel = contract.GetPlainLabel(*job.Scores.Confidence)
	}
	if job.Scores.Quality != nil {
		view.QualityLabel = contract.GetPlainLabel(*job.Scores.Quality)
	}
	return writeJSON(w, view)
}

// writeJobIssuesCSV writes one row per merged issue, in merge order.
func writeJobIssuesCSV(w io.Writer, job *schema.AnalysisJob, intFmt string) error {
	header := []string{"job_id", "rank", "tool", "file", "line", "column", "severity", "rule", "message"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, issue := range job.Issues {
			column := ""
			if issue.Column != nil {
				column = fmt.Sprintf(intFmt, *issue.Column)
			}
			rec := []string{
				job.ID,
				strconv.Itoa(i + 1),
				issue.Tool,
				issue.Path,
				fmt.Sprintf(intFmt, issue.Line),
				column,
				string(issue.Severity),
				issue.Rule,
				issue.Message,
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeJobTable generates and writes the human-readable summary, tool table and file table.
func writeJobTable(w io.Writer, job *schema.AnalysisJob, repo schema.Repository, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	if _, err := fmt.Fprintf(w, "Job %s for %s (%s)\n", job.ID, repo.Name, job.Status); err != nil {
		return err
	}
	if job.CommitHash != "" {
		if _, err := fmt.Fprintf(w, "Commit: %s\n", job.CommitHash); err != nil {
			return err
		}
	}
	if job.Error != nil {
		if _, err := fmt.Fprintf(w, "Error: %s\n", job.Error.Error()); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "Confidence: %s (%s)  Quality: %s (%s)\n",
			formatOptional(job.Scores.Confidence, fmtFloat), scoreLabel(job.Scores.Confidence, true),
			formatOptional(job.Scores.Quality, fmtFloat), scoreLabel(job.Scores.Quality, true)); err != nil {
			return err
		}
	}

	if err := writeToolTable(w, job, intFmt); err != nil {
		return err
	}
	if len(job.Files) > 0 {
		if err := writeFileTable(w, job, cfg, fmtFloat, intFmt); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Analyzed %d files (%d lines) with %d issues in %v\n",
		job.TotalFiles, job.TotalLines, len(job.Issues), job.Duration())
	return err
}

// writeToolTable writes one row per attempted tool.
func writeToolTable(w io.Writer, job *schema.AnalysisJob, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Tool", "Status", "Issues", "Duration", "Error"})

	var data [][]string
	for _, t := range job.Tools {
		data = append(data, []string{
			t.Tool,
			string(t.Status),
			fmt.Sprintf(intFmt, t.IssueCount),
			formatDurationMs(t.DurationMs),
			t.Error,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeFileTable writes the files with the most issues first, up to the result limit.
func writeFileTable(w io.Writer, job *schema.AnalysisJob, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	files := slices.Clone(job.Files)
	slices.SortStableFunc(files, func(a, b schema.FileMetrics) int {
		return cmp.Compare(b.TotalIssues(), a.TotalIssues())
	})
	if cfg.ResultLimit > 0 && len(files) > cfg.ResultLimit {
		files = files[:cfg.ResultLimit]
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Path", "Errors", "Warnings", "Info", "LOC", "Complexity"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg, fileTableColumns)
	var data [][]string
	for i, f := range files {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(f.Path, pathWidth),
			fmt.Sprintf(intFmt, f.IssuesBySeverity[schema.SeverityError]),
			fmt.Sprintf(intFmt, f.IssuesBySeverity[schema.SeverityWarning]),
			fmt.Sprintf(intFmt, f.IssuesBySeverity[schema.SeverityInfo]),
			formatOptionalInt(f.LinesOfCode),
			formatOptional(f.Complexity, fmtFloat),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing top %d of %d files\n", len(files), len(job.Files))
	return err
}

// findTool returns the summary of the named tool, or nil if it was not attempted.
func findTool(job *schema.AnalysisJob, name string) *schema.ToolSummary {
	for i := range job.Tools {
		if job.Tools[i].Tool == name {
			return &job.Tools[i]
		}
	}
	return nil
}
