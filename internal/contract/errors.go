package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Error kinds surfaced by the engine. Callers match them with errors.Is.
var (
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	ErrJobConflict         = errors.New("job conflict")
	ErrRepositoryNotFound  = errors.New("repository not found")
	ErrJobNotFound         = errors.New("job not found")
	ErrAllAdaptersFailed   = errors.New("all adapters failed")
	ErrConfig              = errors.New("config error")
	ErrCancelled           = errors.New("cancelled")
	ErrToolError           = errors.New("tool error")
	ErrToolTimeout         = errors.New("tool timeout")
	ErrToolNotInstalled    = errors.New("tool not installed")
	ErrIllegalTransition   = errors.New("illegal job transition")
	ErrJobAlreadySaved     = errors.New("job already saved")
	ErrEngineClosed        = errors.New("engine is shut down")
)

// ConflictError is returned when a repository already has an active job.
type ConflictError struct {
	RepositoryID int64
	ActiveJobID  string
	ActiveStatus schema.JobStatus
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: repository %d already has job %s in state %s", ErrJobConflict, e.RepositoryID, e.ActiveJobID, e.ActiveStatus)
}

// Unwrap lets errors.Is match ErrJobConflict.
func (e *ConflictError) Unwrap() error {
	return ErrJobConflict
}

// ToolFailureError describes one failed adapter. It matches ErrToolTimeout when
// the adapter ran out of time and ErrToolError otherwise.
func ToolFailureError(f schema.ToolFailure) error {
	kind := ErrToolError
	if f.Status == schema.StatusTimeout {
		kind = ErrToolTimeout
	}
	if f.Reason == "" {
		return fmt.Errorf("%s: %w", f.Tool, kind)
	}
	return fmt.Errorf("%s: %w: %s", f.Tool, kind, f.Reason)
}

// AdapterFailuresError is returned when no adapter of a job produced a result.
// It matches ErrAllAdaptersFailed and the error of every failed adapter.
type AdapterFailuresError struct {
	Failures []error
}

// NewAdapterFailuresError collects the failed adapters of a job. Adapters that
// did not apply to the snapshot are not failures and are left out.
func NewAdapterFailuresError(failures []schema.ToolFailure) *AdapterFailuresError {
	e := &AdapterFailuresError{}
	for _, f := range failures {
		if f.Status == schema.StatusToolError || f.Status == schema.StatusTimeout {
			e.Failures = append(e.Failures, ToolFailureError(f))
		}
	}
	return e
}

// Error implements the error interface.
func (e *AdapterFailuresError) Error() string {
	if len(e.Failures) == 0 {
		return ErrAllAdaptersFailed.Error()
	}
	parts := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		parts[i] = err.Error()
	}
	return ErrAllAdaptersFailed.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrAllAdaptersFailed and each adapter failure.
func (e *AdapterFailuresError) Unwrap() []error {
	return append([]error{ErrAllAdaptersFailed}, e.Failures...)
}

// ConfigErrorf builds an error that matches ErrConfig.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// SnapshotErrorf builds an error that matches ErrSnapshotUnavailable.
func SnapshotErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSnapshotUnavailable, fmt.Sprintf(format, args...))
}

// KindOf maps an error to the failure kind recorded on a job.
func KindOf(err error) schema.ErrorKind {
	switch {
	case errors.Is(err, ErrSnapshotUnavailable):
		return schema.KindSnapshotUnavailable
	case errors.Is(err, ErrAllAdaptersFailed):
		return schema.KindAllAdaptersFailed
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return schema.KindCancelled
	default:
		return schema.KindInternal
	}
}

// NewJobError converts an error into the terminal error stored on a failed job.
func NewJobError(err error, tools []schema.ToolFailure) *schema.JobError {
	return &schema.JobError{
		Kind:   KindOf(err),
		Reason: err.Error(),
		Tools:  tools,
	}
}
