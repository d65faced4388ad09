package cmd

import (
	"github.com/nishalpattan/code-review-analyzer/internal/outwriter"
	"github.com/spf13/cobra"
)

// jobCmd inspects stored analysis jobs.
var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect stored analysis jobs",
	Long: `Show and list finished analysis jobs from the store.

Examples:
  analyzer job list --repository 1 --limit 10
  analyzer job show 6f1c3a0e-5d1b-4a8f-9a43-0f6b0d2f1c11 --output report`,
}

// jobShowCmd renders one stored job.
var jobShowCmd = &cobra.Command{
	Use:     "show <job-id>",
	Short:   "Show a stored job with its scores, tool summaries and issues",
	Args:    cobra.ExactArgs(1),
	PreRunE: catalogSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		job, err := storeManager.GetJobStore().GetJob(args[0])
		if err != nil {
			return err
		}
		repo, err := storeManager.GetRepositoryStore().GetRepository(job.RepositoryID)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteJob(job, repo, cfg)
	},
}

// jobListCmd lists the most recent stored jobs.
var jobListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the most recent stored jobs",
	Args:    cobra.NoArgs,
	PreRunE: catalogSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repoID, _ := cmd.Flags().GetInt64("repository")
		jobs, err := storeManager.GetJobStore().ListJobs(repoID, cfg.ResultLimit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteJobs(jobs, cfg)
	},
}
