package cmd

import (
	"github.com/nishalpattan/code-review-analyzer/internal/outwriter"
	"github.com/spf13/cobra"
)

// weightsCmd prints the scoring weights that analyze would use.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Print the active scoring weights and normalization penalties.",
	Long: `Display the weights of the confidence and quality scores after applying the
config file, and the penalties used to normalize raw tool output.

Custom weights live in .analyzer.yaml:

  weights:
    quality:
      lint: 0.4
      complexity: 0.3
      style: 0.3

A custom set replaces the default set of that score and must sum to 1.0.

Examples:
  analyzer weights
  analyzer weights --output json`,
	Args:    cobra.NoArgs,
	PreRunE: configOnlySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return outwriter.NewOutWriter().WriteWeights(cfg)
	},
}
