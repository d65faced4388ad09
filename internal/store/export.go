package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/internal/parquet"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// ExportFiles are the Parquet files written by ExecuteExport.
type ExportFiles struct {
	Jobs        string
	Issues      string
	FileMetrics string
}

// ExportPaths derives the Parquet file names from the output prefix.
func ExportPaths(outputFile string) ExportFiles {
	return ExportFiles{
		Jobs:        outputFile + ".jobs.parquet",
		Issues:      outputFile + ".issues.parquet",
		FileMetrics: outputFile + ".file_metrics.parquet",
	}
}

// ExecuteExport writes every stored job, issue and file rollup to Parquet files
// next to outputFile and reports progress on w.
func ExecuteExport(js contract.JobStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if js == nil {
		return errors.New("job store is not initialized")
	}

	status, err := js.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalJobs == 0 {
		return errors.New("no analysis jobs found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total jobs: %d\n", status.TotalJobs)

	jobs, err := js.GetAllJobRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve jobs: %w", err)
	}
	issues, err := js.GetAllIssueRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve issues: %w", err)
	}
	files, err := js.GetAllFileMetricsRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve file metrics: %w", err)
	}

	paths := ExportPaths(outputFile)
	if err := parquet.WriteJobsParquet(parquet.ConvertJobRecords(jobs), paths.Jobs); err != nil {
		return fmt.Errorf("failed to write jobs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d jobs to: %s\n", len(jobs), paths.Jobs)

	if err := parquet.WriteIssuesParquet(parquet.ConvertIssueRecords(issues), paths.Issues); err != nil {
		return fmt.Errorf("failed to write issues: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d issues to: %s\n", len(issues), paths.Issues)

	if err := parquet.WriteFileMetricsParquet(parquet.ConvertFileMetricsRecords(files), paths.FileMetrics); err != nil {
		return fmt.Errorf("failed to write file metrics: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d file records to: %s\n", len(files), paths.FileMetrics)
	return nil
}

// GetAllJobRecords retrieves every stored job as a flat record, oldest first.
func (s *SQLStore) GetAllJobRecords() ([]schema.JobRecord, error) {
	jobs, err := s.ListJobs(0, 0)
	if err != nil {
		return nil, err
	}
	slices.Reverse(jobs)

	records := make([]schema.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		record := schema.JobRecord{
			JobID:           job.ID,
			RepositoryID:    job.RepositoryID,
			CommitHash:      job.CommitHash,
			Status:          string(job.Status),
			CreatedAt:       job.CreatedAt,
			StartedAt:       job.StartedAt,
			CompletedAt:     job.CompletedAt,
			ConfidenceScore: job.Scores.Confidence,
			QualityScore:    job.Scores.Quality,
			TotalFiles:      int32(job.TotalFiles),
			TotalLines:      int32(job.TotalLines),
		}
		if job.Error != nil {
			kind, reason := string(job.Error.Kind), job.Error.Reason
			record.ErrorKind, record.ErrorReason = &kind, &reason
		}
		records = append(records, record)
	}
	return records, nil
}

// GetAllIssueRecords retrieves every stored issue, grouped by job in merge order.
func (s *SQLStore) GetAllIssueRecords() ([]schema.IssueRecord, error) {
	rows, err := s.db.Query(s.q(`SELECT job_id, seq, tool, file_path, line_number, column_number, severity, rule_id, message
		FROM %s ORDER BY job_id, seq`, issuesTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.IssueRecord
	for rows.Next() {
		var (
			record schema.IssueRecord
			column sql.NullInt32
		)
		if err := rows.Scan(&record.JobID, &record.Seq, &record.Tool, &record.Path, &record.Line, &column,
			&record.Severity, &record.Rule, &record.Message); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		if column.Valid {
			c := column.Int32
			record.Column = &c
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}
	return records, nil
}

// GetAllFileMetricsRecords retrieves every stored per-file rollup.
func (s *SQLStore) GetAllFileMetricsRecords() ([]schema.FileMetricsRecord, error) {
	rows, err := s.db.Query(s.q(`SELECT job_id, file_path, lines_of_code, complexity, maintainability,
		error_count, warning_count, info_count, issues_by_tool
		FROM %s ORDER BY job_id, file_path`, fileMetricsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query file metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.FileMetricsRecord
	for rows.Next() {
		var (
			record                      schema.FileMetricsRecord
			loc                         sql.NullInt32
			complexity, maintainability sql.NullFloat64
		)
		if err := rows.Scan(&record.JobID, &record.Path, &loc, &complexity, &maintainability,
			&record.ErrorCount, &record.WarningCount, &record.InfoCount, &record.IssuesByTool); err != nil {
			return nil, fmt.Errorf("failed to scan file metrics: %w", err)
		}
		if loc.Valid {
			n := loc.Int32
			record.LinesOfCode = &n
		}
		if complexity.Valid {
			v := complexity.Float64
			record.Complexity = &v
		}
		if maintainability.Valid {
			v := maintainability.Float64
			record.Maintainability = &v
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file metrics: %w", err)
	}
	return records, nil
}
