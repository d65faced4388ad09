package cmd

import (
	"github.com/nishalpattan/code-review-analyzer/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Code Review Analyzer MCP server",
	Long: `Launch an MCP server on stdio that allows AI agents to register repositories,
submit analysis jobs and fetch their results via standard tools.

Tools:
  add_repository, list_repositories, submit_analysis, get_analysis, cancel_analysis`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// Logs already go to stderr, so stdout stays reserved for the protocol.
		return sharedSetup(rootCtx, cmd, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
