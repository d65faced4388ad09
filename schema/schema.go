// Package schema has the models and constants shared by every part of the code review analyzer.
package schema

import (
	"maps"
	"slices"
	"time"
)

// Snapshot is an immutable reference to a filesystem tree to be analyzed.
// The engine only reads it.
type Snapshot struct {
	RootPath      string   `json:"root_path"`
	CommitHash    string   `json:"commit_hash,omitempty"`
	ContentDigest string   `json:"content_digest,omitempty"` // sha256 over the listed files and their contents
	SizeBytes     int64    `json:"size_bytes"`
	FileCount     int      `json:"file_count"`
	Files         []string `json:"-"` // Sorted, slash-separated paths relative to RootPath
	ScratchDir    string   `json:"-"` // Writable directory for adapter reports, removed with the workspace
}

// ToolConfig holds the options recognized by every analyzer adapter.
type ToolConfig struct {
	Ruleset        []string `json:"ruleset,omitempty"`       // Rule ids to enable, or disable when prefixed with '-'
	TimeoutSeconds int      `json:"timeout_seconds"`         // Per-tool wall-clock budget
	ExcludePaths   []string `json:"exclude_paths,omitempty"` // Ordered glob patterns to skip
}

// Timeout returns the per-tool budget as a duration.
func (c ToolConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EnabledRules returns the ruleset entries that turn rules on.
func (c ToolConfig) EnabledRules() []string {
	var out []string
	for _, r := range c.Ruleset {
		if r != "" && r[0] != '-' {
			out = append(out, r)
		}
	}
	return out
}

// DisabledRules returns the ruleset entries that turn rules off, without the '-' prefix.
func (c ToolConfig) DisabledRules() []string {
	var out []string
	for _, r := range c.Ruleset {
		if len(r) > 1 && r[0] == '-' {
			out = append(out, r[1:])
		}
	}
	return out
}

// Issue is a single finding reported by one tool.
type Issue struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Column   *int     `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Tool     string   `json:"tool"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

// FileMeasure carries the size and complexity numbers a tool computed for one file.
type FileMeasure struct {
	Path            string   `json:"path"`
	LinesOfCode     *int     `json:"lines_of_code,omitempty"`
	Complexity      *float64 `json:"complexity,omitempty"`
	Maintainability *float64 `json:"maintainability,omitempty"`
}

// AnalyzerResult is the outcome of one adapter invocation for one job.
// It is created once and never modified afterwards.
type AnalyzerResult struct {
	Tool         string             `json:"tool"`
	Status       AnalyzerStatus     `json:"status"`
	RawOutput    string             `json:"-"`
	Issues       []Issue            `json:"issues"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	FileMeasures []FileMeasure      `json:"file_measures,omitempty"`
	Error        string             `json:"error,omitempty"`
	Duration     time.Duration      `json:"duration"`
}

// Metric returns the named metric and whether the tool reported it.
func (r AnalyzerResult) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

// OK reports whether the tool ran to completion.
func (r AnalyzerResult) OK() bool {
	return r.Status == StatusOK
}

// FileMetrics is the per-file rollup recomputed on every run.
type FileMetrics struct {
	Path             string           `json:"path"`
	LinesOfCode      *int             `json:"lines_of_code,omitempty"`
	Complexity       *float64         `json:"complexity,omitempty"`
	Maintainability  *float64         `json:"maintainability,omitempty"`
	IssuesByTool     map[string]int   `json:"issues_by_tool"`
	IssuesBySeverity map[Severity]int `json:"issues_by_severity"`
}

// TotalIssues returns the number of issues reported against the file by all tools.
func (f FileMetrics) TotalIssues() int {
	total := 0
	for _, n := range f.IssuesByTool {
		total += n
	}
	return total
}

// ToolSummary records what happened to one tool during a job.
type ToolSummary struct {
	Tool       string             `json:"tool"`
	Status     AnalyzerStatus     `json:"status"`
	IssueCount int                `json:"issue_count"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Error      string             `json:"error,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// Scores are the aggregate numbers of a completed job. Both are nil when the job failed.
type Scores struct {
	Confidence *float64             `json:"confidence_score"`
	Quality    *float64             `json:"quality_score"`
	Categories map[Category]float64 `json:"categories,omitempty"` // Normalized signals that contributed
}

// ToolFailure describes why one tool did not produce a usable result.
type ToolFailure struct {
	Tool   string         `json:"tool"`
	Status AnalyzerStatus `json:"status"`
	Reason string         `json:"reason"`
}

// JobError is the terminal error of a failed job.
type JobError struct {
	Kind   ErrorKind     `json:"kind"`
	Reason string        `json:"reason"`
	Tools  []ToolFailure `json:"tools,omitempty"`
}

// Error implements the error interface.
func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Reason
}

// AnalysisJob is one analysis of one repository snapshot.
type AnalysisJob struct {
	ID           string        `json:"id"`
	RepositoryID int64         `json:"repository_id"`
	CommitHash   string        `json:"commit_hash,omitempty"`
	Status       JobStatus     `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Scores       Scores        `json:"scores"`
	Tools        []ToolSummary `json:"tools"`
	Issues       []Issue       `json:"issues"`
	Files        []FileMetrics `json:"files"`
	TotalFiles   int           `json:"total_files"`
	TotalLines   int           `json:"total_lines"`
	Error        *JobError     `json:"error,omitempty"`
}

// Duration returns how long the job ran, or zero if it never started or has not finished.
func (j *AnalysisJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// IssuesByTool groups the merged issues by originating tool, preserving order.
func (j *AnalysisJob) IssuesByTool() map[string][]Issue {
	out := make(map[string][]Issue)
	for _, issue := range j.Issues {
		out[issue.Tool] = append(out[issue.Tool], issue)
	}
	return out
}

// ToolStatus returns the recorded status of the named tool and whether it was attempted.
func (j *AnalysisJob) ToolStatus(tool string) (AnalyzerStatus, bool) {
	for _, t := range j.Tools {
		if t.Tool == tool {
			return t.Status, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the job.
func (j *AnalysisJob) Clone() *AnalysisJob {
	clone := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		clone.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		clone.CompletedAt = &t
	}
	if j.Scores.Confidence != nil {
		v := *j.Scores.Confidence
		clone.Scores.Confidence = &v
	}
	if j.Scores.Quality != nil {
		v := *j.Scores.Quality
		clone.Scores.Quality = &v
	}
	if j.Scores.Categories != nil {
		clone.Scores.Categories = maps.Clone(j.Scores.Categories)
	}
	if j.Tools != nil {
		clone.Tools = make([]ToolSummary, len(j.Tools))
		for i, t := range j.Tools {
			t.Metrics = maps.Clone(t.Metrics)
			clone.Tools[i] = t
		}
	}
	clone.Issues = slices.Clone(j.Issues)
	if j.Files != nil {
		clone.Files = make([]FileMetrics, len(j.Files))
		for i, f := range j.Files {
			f.IssuesByTool = maps.Clone(f.IssuesByTool)
			f.IssuesBySeverity = maps.Clone(f.IssuesBySeverity)
			clone.Files[i] = f
		}
	}
	if j.Error != nil {
		e := *j.Error
		e.Tools = slices.Clone(j.Error.Tools)
		clone.Error = &e
	}
	return &clone
}

// Repository is a registered source of snapshots.
type Repository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Branch      string    `json:"branch"`
	Language    string    `json:"language"`
	Owner       string    `json:"owner,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
