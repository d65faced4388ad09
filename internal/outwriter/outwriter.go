// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteJob prints one analysis job using the configured output format.
func (ow *OutWriter) WriteJob(job *schema.AnalysisJob, repo schema.Repository, cfg *contract.Config) error {
	return WriteJobResult(job, repo, cfg)
}

// WriteJobs prints a list of analysis jobs using the configured output format.
func (ow *OutWriter) WriteJobs(jobs []*schema.AnalysisJob, cfg *contract.Config) error {
	return WriteJobList(jobs, cfg)
}

// WriteRepositories prints registered repositories using the configured output format.
func (ow *OutWriter) WriteRepositories(repos []schema.Repository, cfg *contract.Config) error {
	return WriteRepositoryList(repos, cfg)
}

// WriteWeights prints the active scoring weights using the configured output format.
func (ow *OutWriter) WriteWeights(cfg *contract.Config) error {
	return WriteWeightDefinitions(cfg)
}

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and the space taken by the other columns.
func GetMaxTablePathWidth(cfg *contract.Config, otherColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for table borders, separators, and padding
	available := termWidth - otherColumns - 20
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
