package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"

	"github.com/olekukonko/tablewriter"
)

// urlTableColumns is the width taken by every column of the repository table except the URL.
const urlTableColumns = 55

// jobSummary is the JSON document of one listed job.
type jobSummary struct {
	ID              string           `json:"id"`
	RepositoryID    int64            `json:"repository_id"`
	CommitHash      string           `json:"commit_hash,omitempty"`
	Status          schema.JobStatus `json:"status"`
	CreatedAt       string           `json:"created_at"`
	ConfidenceScore *float64         `json:"confidence_score"`
	QualityScore    *float64         `json:"quality_score"`
	IssueCount      int              `json:"issue_count"`
	DurationSeconds float64          `json:"duration_seconds"`
	ErrorKind       schema.ErrorKind `json:"error_kind,omitempty"`
}

func summarizeJob(job *schema.AnalysisJob) jobSummary {
	s := jobSummary{
		ID:              job.ID,
		RepositoryID:    job.RepositoryID,
		CommitHash:      job.CommitHash,
		Status:          job.Status,
		CreatedAt:       formatTime(&job.CreatedAt),
		ConfidenceScore: job.Scores.Confidence,
		QualityScore:    job.Scores.Quality,
		IssueCount:      jobIssueCount(job),
		DurationSeconds: job.Duration().Seconds(),
	}
	if job.Error != nil {
		s.ErrorKind = job.Error.Kind
	}
	return s
}

// jobIssueCount totals the issues of a job from its tool summaries, which
// listed jobs carry even when their issues are not loaded.
func jobIssueCount(job *schema.AnalysisJob) int {
	if len(job.Issues) > 0 {
		return len(job.Issues)
	}
	total := 0
	for _, t := range job.Tools {
		total += t.IssueCount
	}
	return total
}

// WriteJobList outputs a list of jobs, dispatching based on the output format configured.
func WriteJobList(jobs []*schema.AnalysisJob, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			out := make([]jobSummary, len(jobs))
			for i, job := range jobs {
				out[i] = summarizeJob(job)
			}
			return writeJSON(w, out)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJobListCSV(w, jobs, fmtFloat, intFmt)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJobListTable(w, jobs, fmtFloat, intFmt)
		}, "Wrote table")
	}
}

func writeJobListCSV(w io.Writer, jobs []*schema.AnalysisJob, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"job_id", "repository_id", "commit", "status", "created_at", "confidence", "quality", "issues", "duration_seconds", "error_kind"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, job := range jobs {
			s := summarizeJob(job)
			rec := []string{
				s.ID,
				strconv.FormatInt(s.RepositoryID, 10),
				s.CommitHash,
				string(s.Status),
				s.CreatedAt,
				formatOptional(s.ConfidenceScore, fmtFloat),
				formatOptional(s.QualityScore, fmtFloat),
				fmt.Sprintf(intFmt, s.IssueCount),
				fmtFloat(s.DurationSeconds),
				string(s.ErrorKind),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeJobListTable(w io.Writer, jobs []*schema.AnalysisJob, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Job", "Repo", "Status", "Confidence", "Quality", "Label", "Issues", "Created"})

	var data [][]string
	for _, job := range jobs {
		s := summarizeJob(job)
		data = append(data, []string{
			s.ID,
			strconv.FormatInt(s.RepositoryID, 10),
			string(s.Status),
			formatOptional(s.ConfidenceScore, fmtFloat),
			formatOptional(s.QualityScore, fmtFloat),
			scoreLabel(s.ConfidenceScore, true),
			fmt.Sprintf(intFmt, s.IssueCount),
			s.CreatedAt,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d jobs\n", len(jobs))
	return err
}

// WriteRepositoryList outputs registered repositories, dispatching based on the output format configured.
func WriteRepositoryList(repos []schema.Repository, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if repos == nil {
				repos = []schema.Repository{}
			}
			return writeJSON(w, repos)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRepositoryCSV(w, repos)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRepositoryTable(w, repos, cfg)
		}, "Wrote table")
	}
}

func writeRepositoryCSV(w io.Writer, repos []schema.Repository) error {
	header := []string{"id", "name", "owner", "url", "branch", "language", "description", "created_at"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range repos {
			rec := []string{
				strconv.FormatInt(r.ID, 10),
				r.Name,
				r.Owner,
				r.URL,
				r.Branch,
				r.Language,
				r.Description,
				formatTime(&r.CreatedAt),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeRepositoryTable(w io.Writer, repos []schema.Repository, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Owner", "URL", "Branch", "Language"})

	urlWidth := GetMaxTablePathWidth(cfg, urlTableColumns)
	var data [][]string
	for _, r := range repos {
		data = append(data, []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Owner,
			contract.TruncatePath(r.URL, urlWidth),
			r.Branch,
			r.Language,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d repositories\n", len(repos))
	return err
}
