package cmd

import (
	"fmt"
	"strconv"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/internal/outwriter"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/spf13/cobra"
)

// catalogSetupWrapper validates the configuration and opens the stores.
// Positional arguments of catalog commands are ids, never analysis sources.
func catalogSetupWrapper(cmd *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, cmd, nil)
}

// parseID parses a positive numeric id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid repository id %q", arg)
	}
	return id, nil
}

// repoCmd manages registered repositories.
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage registered repositories",
	Long: `Register, list and delete the repositories that analysis jobs run against.

A repository is a clone URL or a local path. Its name and owner are derived
from the URL when they are not given.

Examples:
  analyzer repo add https://github.com/acme/widgets.git --branch develop
  analyzer repo list --offset 25
  analyzer repo delete 3`,
}

// repoAddCmd registers a repository.
var repoAddCmd = &cobra.Command{
	Use:     "add <url|path>",
	Short:   "Register a repository",
	Args:    cobra.ExactArgs(1),
	PreRunE: catalogSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		branch, _ := cmd.Flags().GetString("branch")
		description, _ := cmd.Flags().GetString("description")

		repo, err := storeManager.GetRepositoryStore().CreateRepository(schema.Repository{
			URL:         args[0],
			Name:        name,
			Branch:      branch,
			Description: description,
		})
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteRepositories([]schema.Repository{repo}, cfg)
	},
}

// repoListCmd lists registered repositories.
var repoListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List registered repositories",
	Args:    cobra.NoArgs,
	PreRunE: catalogSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		if offset < 0 {
			return contract.ConfigErrorf("offset must not be negative (received %d)", offset)
		}
		repos, err := storeManager.GetRepositoryStore().ListRepositories(offset, cfg.ResultLimit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteRepositories(repos, cfg)
	},
}

// repoDeleteCmd removes a repository and its stored jobs.
var repoDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a repository together with its stored jobs",
	Args:    cobra.ExactArgs(1),
	PreRunE: catalogSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := storeManager.GetRepositoryStore().DeleteRepository(id); err != nil {
			return err
		}
		cmd.Printf("Repository %d deleted.\n", id)
		return nil
	},
}
