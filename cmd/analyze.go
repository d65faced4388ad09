package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nishalpattan/code-review-analyzer/core"
	"github.com/nishalpattan/code-review-analyzer/internal/outwriter"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/spf13/cobra"
)

// analyzeCmd runs every enabled analyzer against one repository snapshot.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path|url]",
	Short: "Analyze a repository and print its confidence and quality scores.",
	Long: `Take a snapshot of a local directory or a git clone URL, run every enabled
analyzer against it and combine the results into a confidence score and a
quality score between 0 and 100.

The repository is registered on first use and the finished job is stored, so
it can be shown again with 'analyzer job show' or exported with
'analyzer store export'.

Analyzers (external tools that must be on PATH):
- lint        pylint
- security    bandit
- complexity  radon cc/mi
- style       flake8
- deadcode    vulture
- coverage    coverage.py (opt-in)
- docs        radon raw (opt-in)

Examples:
  # Analyze the current directory
  analyzer analyze

  # Analyze a branch of a remote repository and write a text report
  analyzer analyze https://github.com/acme/widgets.git --branch develop --output report

  # Enable the docs analyzer and skip tests
  analyzer analyze --enable docs --exclude "tests/*"

  # Fail the build when a score is too low
  analyzer analyze --fail-under "confidence:70,quality:60"`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: analyzeSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return executeAnalysis(rootCtx)
	},
}

// analyzeSetupWrapper defaults the source to the current directory.
func analyzeSetupWrapper(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	return sharedSetup(rootCtx, cmd, args)
}

// executeAnalysis registers the source if needed, runs one job to completion
// and renders it. Interrupts cancel the job and still print its failed state.
func executeAnalysis(ctx context.Context) error {
	start := time.Now()

	repo, err := core.EnsureRepository(storeManager.GetRepositoryStore(), cfg.Source, cfg.Branch)
	if err != nil {
		return err
	}

	engine, err := core.NewEngineFromStores(cfg, storeManager)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GlobalJobTimeout)
		defer cancel()
		_ = engine.Shutdown(shutdownCtx)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, err := engine.Run(ctx, repo.ID, cfg.CommitHash)
	if err != nil {
		return err
	}

	if err := outwriter.NewOutWriter().WriteJob(job, repo, cfg); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if cfg.Output == schema.TextOut {
		fmt.Fprintf(os.Stderr, "Job %s finished in %v\n", job.ID, time.Since(start).Round(time.Millisecond))
	}

	if job.Status == schema.FailedStatus && job.Error != nil {
		return fmt.Errorf("analysis failed (%s): %s", job.Error.Kind, job.Error.Reason)
	}

	violations := core.CheckThresholds(job, cfg.FailUnder)
	core.PrintCheckResult(os.Stderr, violations, cfg.FailUnder)
	if len(violations) > 0 {
		return fmt.Errorf("%d score(s) below the --fail-under threshold", len(violations))
	}
	return nil
}
