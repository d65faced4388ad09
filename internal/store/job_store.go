package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

const jobColumns = `job_id, repository_id, commit_hash, status, created_at, started_at, completed_at,
	confidence_score, quality_score, categories, tools, total_files, total_lines,
	error_kind, error_reason, error_tools`

// SaveJob stores a terminal job with its issues and file metrics in one
// transaction. A job is written once; saving the same id again returns
// contract.ErrJobAlreadySaved.
func (s *SQLStore) SaveJob(job *schema.AnalysisJob) error {
	if job == nil {
		return errors.New("job must not be nil")
	}
	if !job.Status.IsTerminal() {
		return fmt.Errorf("job %s is %s; only finished jobs are stored", job.ID, job.Status)
	}

	tools, err := json.Marshal(job.Tools)
	if err != nil {
		return fmt.Errorf("failed to marshal tool summaries: %w", err)
	}
	var categories, errorKind, errorReason, errorTools sql.NullString
	if len(job.Scores.Categories) > 0 {
		data, err := json.Marshal(job.Scores.Categories)
		if err != nil {
			return fmt.Errorf("failed to marshal categories: %w", err)
		}
		categories = sql.NullString{String: string(data), Valid: true}
	}
	if job.Error != nil {
		errorKind = sql.NullString{String: string(job.Error.Kind), Valid: true}
		errorReason = sql.NullString{String: job.Error.Reason, Valid: true}
		if len(job.Error.Tools) > 0 {
			data, err := json.Marshal(job.Error.Tools)
			if err != nil {
				return fmt.Errorf("failed to marshal tool failures: %w", err)
			}
			errorTools = sql.NullString{String: string(data), Valid: true}
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing int
	if err := tx.QueryRow(s.q("SELECT COUNT(*) FROM %s WHERE job_id = ?", jobsTable), job.ID).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check job %s: %w", job.ID, err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: %s", contract.ErrJobAlreadySaved, job.ID)
	}

	_, err = tx.Exec(s.q(`INSERT INTO %s (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, jobsTable),
		job.ID, job.RepositoryID, job.CommitHash, string(job.Status),
		formatTime(job.CreatedAt, s.backend), formatNullTime(job.StartedAt, s.backend), formatNullTime(job.CompletedAt, s.backend),
		job.Scores.Confidence, job.Scores.Quality, categories, string(tools), job.TotalFiles, job.TotalLines,
		errorKind, errorReason, errorTools,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}

	if len(job.Issues) > 0 {
		stmt, err := tx.Prepare(s.q(`INSERT INTO %s (job_id, seq, tool, file_path, line_number, column_number, severity, rule_id, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, issuesTable))
		if err != nil {
			return fmt.Errorf("failed to prepare issue insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()
		for seq, issue := range job.Issues {
			if _, err := stmt.Exec(job.ID, seq, issue.Tool, issue.Path, issue.Line, issue.Column,
				string(issue.Severity), issue.Rule, issue.Message); err != nil {
				return fmt.Errorf("failed to insert issue %d of job %s: %w", seq, job.ID, err)
			}
		}
	}

	if len(job.Files) > 0 {
		stmt, err := tx.Prepare(s.q(`INSERT INTO %s (job_id, file_path, lines_of_code, complexity, maintainability,
			error_count, warning_count, info_count, issues_by_tool)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, fileMetricsTable))
		if err != nil {
			return fmt.Errorf("failed to prepare file metrics insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()
		for _, f := range job.Files {
			byTool, err := json.Marshal(f.IssuesByTool)
			if err != nil {
				return fmt.Errorf("failed to marshal issue counts of %s: %w", f.Path, err)
			}
			if _, err := stmt.Exec(job.ID, f.Path, f.LinesOfCode, f.Complexity, f.Maintainability,
				f.IssuesBySeverity[schema.SeverityError], f.IssuesBySeverity[schema.SeverityWarning], f.IssuesBySeverity[schema.SeverityInfo],
				string(byTool)); err != nil {
				return fmt.Errorf("failed to insert file metrics of %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob loads a stored job with its issues and file metrics, or returns
// contract.ErrJobNotFound.
func (s *SQLStore) GetJob(id string) (*schema.AnalysisJob, error) {
	row := s.db.QueryRow(s.q("SELECT "+jobColumns+" FROM %s WHERE job_id = ?", jobsTable), id)
	job, err := s.scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", contract.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if job.Issues, err = s.loadIssues(id); err != nil {
		return nil, err
	}
	if job.Files, err = s.loadFiles(id); err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns the most recent jobs without their issues and file metrics.
// A zero repoID lists every repository; a non-positive limit lists everything.
func (s *SQLStore) ListJobs(repoID int64, limit int) ([]*schema.AnalysisJob, error) {
	query := "SELECT " + jobColumns + " FROM %s"
	var args []any
	if repoID != 0 {
		query += " WHERE repository_id = ?"
		args = append(args, repoID)
	}
	query += " ORDER BY created_at DESC, job_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(s.q(query, jobsTable), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*schema.AnalysisJob
	for rows.Next() {
		job, err := s.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}
	return jobs, nil
}

func (s *SQLStore) scanJob(row rowScanner) (*schema.AnalysisJob, error) {
	var (
		job                                                    schema.AnalysisJob
		status                                                 string
		commit, categories, errorKind, errorReason, errorTools sql.NullString
		tools                                                  string
		confidence, quality                                    sql.NullFloat64
		createdAt, startedAt, completedAt                      = newTimeColumn(s.backend), newTimeColumn(s.backend), newTimeColumn(s.backend)
	)
	if err := row.Scan(&job.ID, &job.RepositoryID, &commit, &status, createdAt.dest(), startedAt.dest(), completedAt.dest(),
		&confidence, &quality, &categories, &tools, &job.TotalFiles, &job.TotalLines,
		&errorKind, &errorReason, &errorTools); err != nil {
		return nil, err
	}
	job.CommitHash = commit.String
	job.Status = schema.JobStatus(status)

	var err error
	if job.CreatedAt, err = createdAt.required(); err != nil {
		return nil, err
	}
	if job.StartedAt, err = startedAt.value(); err != nil {
		return nil, err
	}
	if job.CompletedAt, err = completedAt.value(); err != nil {
		return nil, err
	}

	if confidence.Valid {
		job.Scores.Confidence = &confidence.Float64
	}
	if quality.Valid {
		job.Scores.Quality = &quality.Float64
	}
	if categories.Valid {
		if err := json.Unmarshal([]byte(categories.String), &job.Scores.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories of job %s: %w", job.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(tools), &job.Tools); err != nil {
		return nil, fmt.Errorf("failed to decode tool summaries of job %s: %w", job.ID, err)
	}
	if errorKind.Valid {
		job.Error = &schema.JobError{Kind: schema.ErrorKind(errorKind.String), Reason: errorReason.String}
		if errorTools.Valid {
			if err := json.Unmarshal([]byte(errorTools.String), &job.Error.Tools); err != nil {
				return nil, fmt.Errorf("failed to decode tool failures of job %s: %w", job.ID, err)
			}
		}
	}
	return &job, nil
}

func (s *SQLStore) loadIssues(jobID string) ([]schema.Issue, error) {
	rows, err := s.db.Query(s.q(`SELECT tool, file_path, line_number, column_number, severity, rule_id, message
		FROM %s WHERE job_id = ? ORDER BY seq`, issuesTable), jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues of job %s: %w", jobID, err)
	}
	defer func() { _ = rows.Close() }()

	var issues []schema.Issue
	for rows.Next() {
		var (
			issue    schema.Issue
			column   sql.NullInt64
			severity string
		)
		if err := rows.Scan(&issue.Tool, &issue.Path, &issue.Line, &column, &severity, &issue.Rule, &issue.Message); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.Severity = schema.Severity(severity)
		if column.Valid {
			c := int(column.Int64)
			issue.Column = &c
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}
	return issues, nil
}

func (s *SQLStore) loadFiles(jobID string) ([]schema.FileMetrics, error) {
	rows, err := s.db.Query(s.q(`SELECT file_path, lines_of_code, complexity, maintainability,
		error_count, warning_count, info_count, issues_by_tool
		FROM %s WHERE job_id = ? ORDER BY file_path`, fileMetricsTable), jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query file metrics of job %s: %w", jobID, err)
	}
	defer func() { _ = rows.Close() }()

	var files []schema.FileMetrics
	for rows.Next() {
		var (
			f                                   schema.FileMetrics
			loc                                 sql.NullInt64
			complexity, maintainability         sql.NullFloat64
			errorCount, warningCount, infoCount int
			byTool                              string
		)
		if err := rows.Scan(&f.Path, &loc, &complexity, &maintainability, &errorCount, &warningCount, &infoCount, &byTool); err != nil {
			return nil, fmt.Errorf("failed to scan file metrics: %w", err)
		}
		if loc.Valid {
			n := int(loc.Int64)
			f.LinesOfCode = &n
		}
		if complexity.Valid {
			f.Complexity = &complexity.Float64
		}
		if maintainability.Valid {
			f.Maintainability = &maintainability.Float64
		}
		f.IssuesBySeverity = map[schema.Severity]int{
			schema.SeverityError:   errorCount,
			schema.SeverityWarning: warningCount,
			schema.SeverityInfo:    infoCount,
		}
		if err := json.Unmarshal([]byte(byTool), &f.IssuesByTool); err != nil {
			return nil, fmt.Errorf("failed to decode issue counts of %s: %w", f.Path, err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file metrics: %w", err)
	}
	return files, nil
}
