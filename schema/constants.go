package schema

// Custom string types for type safety.
type (
	// JobStatus represents the lifecycle state of an analysis job.
	JobStatus string

	// AnalyzerStatus represents the outcome of a single analyzer invocation.
	AnalyzerStatus string

	// Severity represents how serious an issue is.
	Severity string

	// Category represents a scoring signal derived from one or more tools.
	Category string

	// ErrorKind classifies the reason a job failed.
	ErrorKind string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string
)

// All job states. Pending and running are active, completed and failed are terminal.
const (
	PendingStatus   JobStatus = "pending"
	RunningStatus   JobStatus = "running"
	CompletedStatus JobStatus = "completed"
	FailedStatus    JobStatus = "failed"
)

// All analyzer outcomes.
const (
	StatusOK            AnalyzerStatus = "ok"
	StatusToolError     AnalyzerStatus = "toolError"
	StatusTimeout       AnalyzerStatus = "timeout"
	StatusNotApplicable AnalyzerStatus = "notApplicable"
)

// All issue severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// All scoring categories.
const (
	CategoryLint            Category = "lint"
	CategorySecurity        Category = "security"
	CategoryComplexity      Category = "complexity"
	CategoryCoverage        Category = "coverage"
	CategoryStyle           Category = "style"
	CategoryDocumentation   Category = "documentation"
	CategoryMaintainability Category = "maintainability"
	CategoryDeadCode        Category = "dead_code"
)

// All job failure kinds.
const (
	KindSnapshotUnavailable ErrorKind = "SnapshotUnavailable"
	KindAllAdaptersFailed   ErrorKind = "AllAdaptersFailed"
	KindCancelled           ErrorKind = "Cancelled"
	KindInternal            ErrorKind = "Internal"
)

// Names of the built-in analyzer adapters.
const (
	ToolLint       = "lint"
	ToolSecurity   = "security"
	ToolComplexity = "complexity"
	ToolStyle      = "style"
	ToolDeadCode   = "deadcode"
	ToolCoverage   = "coverage"
	ToolDocs       = "docs"
)

// Metric names reported by the built-in adapters.
const (
	MetricScore                = "score"
	MetricIssueCount           = "issue_count"
	MetricHighIssues           = "high_issues"
	MetricMediumIssues         = "medium_issues"
	MetricLowIssues            = "low_issues"
	MetricAverageComplexity    = "average_complexity"
	MetricTotalFunctions       = "total_functions"
	MetricMaintainabilityIndex = "maintainability_index"
	MetricDeadCodeLines        = "dead_code_lines"
	MetricCoveragePercent      = "coverage_percent"
	MetricCommentRatio         = "comment_ratio"
	MetricLinesOfCode          = "lines_of_code"
)

// All output modes supported.
const (
	TextOut   OutputMode = "text" // default
	JSONOut   OutputMode = "json"
	CSVOut    OutputMode = "csv"
	ReportOut OutputMode = "report"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllCategories lists every scoring category in display order.
var AllCategories = []Category{
	CategoryLint,
	CategorySecurity,
	CategoryComplexity,
	CategoryCoverage,
	CategoryStyle,
	CategoryDocumentation,
	CategoryMaintainability,
	CategoryDeadCode,
}

// ValidCategories lists all valid scoring categories.
var ValidCategories = map[Category]struct{}{
	CategoryLint:            {},
	CategorySecurity:        {},
	CategoryComplexity:      {},
	CategoryCoverage:        {},
	CategoryStyle:           {},
	CategoryDocumentation:   {},
	CategoryMaintainability: {},
	CategoryDeadCode:        {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:   {},
	JSONOut:   {},
	CSVOut:    {},
	ReportOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// IsTerminal reports whether no further transition is allowed out of the status.
func (s JobStatus) IsTerminal() bool {
	return s == CompletedStatus || s == FailedStatus
}

// IsActive reports whether the status blocks another job for the same repository.
func (s JobStatus) IsActive() bool {
	return s == PendingStatus || s == RunningStatus
}
