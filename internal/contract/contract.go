// Package contract provides interfaces and shared utilities for the analyzer's internal architecture.
package contract

import (
	"context"

	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Analyzer is the one capability every integrated tool implements.
// Invoke must never panic or return a Go error for expected failure modes
// (tool not installed, non-zero exit, timeout); those become result statuses.
type Analyzer interface {
	// Name is the stable identifier of the adapter, e.g. "lint".
	Name() string

	// Categories lists the scoring categories this adapter feeds.
	Categories() []schema.Category

	// Invoke runs the tool read-only against the snapshot and normalizes its output.
	Invoke(ctx context.Context, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult
}

// ToolOutput is what an external process produced.
type ToolOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ToolRunner executes external analyzer binaries.
// This allows adapters to be tested without the real tools installed.
type ToolRunner interface {
	// Run executes name with args in dir. A non-zero exit is reported through
	// ToolOutput.ExitCode, not as an error. Context expiry returns the context error.
	Run(ctx context.Context, dir string, name string, args ...string) (ToolOutput, error)

	// LookPath resolves the executable or returns ErrToolNotInstalled.
	LookPath(name string) (string, error)
}

// Acquirer materializes a repository into a scratch directory.
type Acquirer interface {
	// Acquire places the repository tree at dest and returns the resolved commit hash, if any.
	// It fails with ErrSnapshotUnavailable before writing a tree that exceeds limits.
	Acquire(ctx context.Context, repo schema.Repository, commit string, dest string, limits SnapshotLimits) (string, error)
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetRepositoryStore() RepositoryStore
	GetJobStore() JobStore
	GetResultCache() ResultCache
}

// RepositoryStore manages registered repositories.
type RepositoryStore interface {
	CreateRepository(repo schema.Repository) (schema.Repository, error)
	GetRepository(id int64) (schema.Repository, error)
	FindRepositoryByURL(url string) (schema.Repository, error)
	ListRepositories(offset, limit int) ([]schema.Repository, error)
	DeleteRepository(id int64) error
	Close() error
}

// JobStore persists finished jobs. Writes are append-only per job id.
type JobStore interface {
	// SaveJob stores a terminal job with its nested tools, issues and file metrics.
	SaveJob(job *schema.AnalysisJob) error

	// GetJob loads a stored job or returns ErrJobNotFound.
	GetJob(id string) (*schema.AnalysisJob, error)

	// ListJobs returns the most recent jobs, optionally filtered by repository (0 means all).
	ListJobs(repoID int64, limit int) ([]*schema.AnalysisJob, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	GetAllJobRecords() ([]schema.JobRecord, error)
	GetAllIssueRecords() ([]schema.IssueRecord, error)
	GetAllFileMetricsRecords() ([]schema.FileMetricsRecord, error)

	// Close closes the underlying connection.
	Close() error
}

// ResultCache defines the interface for caching analyzer results by content key.
type ResultCache interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}
