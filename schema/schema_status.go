package schema

import "time"

// CacheStatus represents the status of the analyzer result cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// StoreStatus represents the status of the repository and job store.
type StoreStatus struct {
	Backend          string             `json:"backend"`
	Connected        bool               `json:"connected"`
	TotalRepos       int                `json:"total_repositories"`
	TotalJobs        int                `json:"total_jobs"`
	JobsByStatus     map[JobStatus]int  `json:"jobs_by_status"`
	LastJobID        string             `json:"last_job_id,omitempty"`
	LastJobTime      time.Time          `json:"last_job_time"`
	OldestJobTime    time.Time          `json:"oldest_job_time"`
	TableSizes       map[string]int64   `json:"table_sizes"`
	IssuesBySeverity map[Severity]int64 `json:"issues_by_severity,omitempty"`
}

// JobRecord is a flattened row of the jobs table, used for exports.
type JobRecord struct {
	JobID           string
	RepositoryID    int64
	CommitHash      string
	Status          string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ConfidenceScore *float64
	QualityScore    *float64
	TotalFiles      int32
	TotalLines      int32
	ErrorKind       *string
	ErrorReason     *string
}

// IssueRecord is a flattened row of the issues table, used for exports.
type IssueRecord struct {
	JobID    string
	Seq      int32
	Tool     string
	Path     string
	Line     int32
	Column   *int32
	Severity string
	Rule     string
	Message  string
}

// FileMetricsRecord is a flattened row of the file metrics table, used for exports.
type FileMetricsRecord struct {
	JobID           string
	Path            string
	LinesOfCode     *int32
	Complexity      *float64
	Maintainability *float64
	ErrorCount      int32
	WarningCount    int32
	InfoCount       int32
	IssuesByTool    string // JSON object of tool name to count
}
