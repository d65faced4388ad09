// Package parquet provides data structures and functions for exporting stored
// analysis jobs to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/parquet-go/parquet-go"
)

// Job represents one finished analysis job.
// This struct maps to the analysis_jobs database table.
type Job struct {
	// JobID is the unique identifier of the job
	JobID string `parquet:"job_id,snappy"`

	// RepositoryID references the analyzed repository
	RepositoryID int64 `parquet:"repository_id,snappy"`

	// CommitHash is the analyzed commit (empty when unknown)
	CommitHash string `parquet:"commit_hash,snappy"`

	// Status is completed or failed
	Status string `parquet:"status,snappy,dict"`

	// CreatedAt is when the job was submitted (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`

	// StartedAt is when the adapters started (nullable)
	StartedAt *time.Time `parquet:"started_at,optional,snappy"`

	// CompletedAt is when the job reached its terminal state (nullable)
	CompletedAt *time.Time `parquet:"completed_at,optional,snappy"`

	// ConfidenceScore is the 0-100 confidence score (nullable, absent for failed jobs)
	ConfidenceScore *float64 `parquet:"confidence_score,optional,snappy"`

	// QualityScore is the 0-100 quality score (nullable, absent for failed jobs)
	QualityScore *float64 `parquet:"quality_score,optional,snappy"`

	TotalFiles int32 `parquet:"total_files,snappy"`
	TotalLines int32 `parquet:"total_lines,snappy"`

	// ErrorKind classifies the failure of a failed job (nullable)
	ErrorKind *string `parquet:"error_kind,optional,snappy,dict"`

	// ErrorReason is the human-readable failure reason (nullable)
	ErrorReason *string `parquet:"error_reason,optional,snappy"`
}

// Issue represents one finding of a job.
// This struct maps to the job_issues database table.
type Issue struct {
	JobID string `parquet:"job_id,snappy,dict"`

	// Seq is the position of the issue in the merged, ordered issue list
	Seq int32 `parquet:"seq,snappy"`

	Tool     string `parquet:"tool,snappy,dict"`
	FilePath string `parquet:"file_path,snappy"`
	Line     int32  `parquet:"line,snappy"`

	// Column is the 1-based column (nullable, not every tool reports one)
	Column *int32 `parquet:"column,optional,snappy"`

	Severity string `parquet:"severity,snappy,dict"`
	Rule     string `parquet:"rule,snappy,dict"`
	Message  string `parquet:"message,snappy"`
}

// FileMetrics represents the per-file rollup of a job.
// This struct maps to the job_file_metrics database table.
type FileMetrics struct {
	JobID    string `parquet:"job_id,snappy,dict"`
	FilePath string `parquet:"file_path,snappy"`

	// LinesOfCode, Complexity and Maintainability are only set when a tool measured them
	LinesOfCode     *int32   `parquet:"lines_of_code,optional,snappy"`
	Complexity      *float64 `parquet:"complexity,optional,snappy"`
	Maintainability *float64 `parquet:"maintainability,optional,snappy"`

	ErrorCount   int32 `parquet:"error_count,snappy"`
	WarningCount int32 `parquet:"warning_count,snappy"`
	InfoCount    int32 `parquet:"info_count,snappy"`

	// IssuesByTool is a JSON object of tool name to issue count
	IssuesByTool string `parquet:"issues_by_tool,snappy"`
}

// writeParquet writes rows to a new Parquet file, inferring the schema from T.
func writeParquet[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the struct tags
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteJobsParquet writes a slice of Job structs to a Parquet file.
func WriteJobsParquet(data []Job, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteIssuesParquet writes a slice of Issue structs to a Parquet file.
func WriteIssuesParquet(data []Issue, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFileMetricsParquet writes a slice of FileMetrics structs to a Parquet file.
func WriteFileMetricsParquet(data []FileMetrics, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertJobRecords converts schema.JobRecord to Job for Parquet export.
func ConvertJobRecords(records []schema.JobRecord) []Job {
	result := make([]Job, len(records))
	for i, record := range records {
		result[i] = Job{
			JobID:           record.JobID,
			RepositoryID:    record.RepositoryID,
			CommitHash:      record.CommitHash,
			Status:          record.Status,
			CreatedAt:       record.CreatedAt,
			StartedAt:       record.StartedAt,
			CompletedAt:     record.CompletedAt,
			ConfidenceScore: record.ConfidenceScore,
			QualityScore:    record.QualityScore,
			TotalFiles:      record.TotalFiles,
			TotalLines:      record.TotalLines,
			ErrorKind:       record.ErrorKind,
			ErrorReason:     record.ErrorReason,
		}
	}
	return result
}

// ConvertIssueRecords converts schema.IssueRecord to Issue for Parquet export.
func ConvertIssueRecords(records []schema.IssueRecord) []Issue {
	result := make([]Issue, len(records))
	for i, record := range records {
		result[i] = Issue{
			JobID:    record.JobID,
			Seq:      record.Seq,
			Tool:     record.Tool,
			FilePath: record.Path,
			Line:     record.Line,
			Column:   record.Column,
			Severity: record.Severity,
			Rule:     record.Rule,
			Message:  record.Message,
		}
	}
	return result
}

// ConvertFileMetricsRecords converts schema.FileMetricsRecord to FileMetrics for Parquet export.
func ConvertFileMetricsRecords(records []schema.FileMetricsRecord) []FileMetrics {
	result := make([]FileMetrics, len(records))
	for i, record := range records {
		result[i] = FileMetrics{
			JobID:           record.JobID,
			FilePath:        record.Path,
			LinesOfCode:     record.LinesOfCode,
			Complexity:      record.Complexity,
			Maintainability: record.Maintainability,
			ErrorCount:      record.ErrorCount,
			WarningCount:    record.WarningCount,
			InfoCount:       record.InfoCount,
			IssuesByTool:    record.IssuesByTool,
		}
	}
	return result
}
