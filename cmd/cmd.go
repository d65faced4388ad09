// Package cmd defines the command-line interface for the code review analyzer.
package cmd

import (
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoDeleteCmd)

	jobCmd.AddCommand(jobShowCmd)
	jobCmd.AddCommand(jobListCmd)

	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or report")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log engine progress at debug level on stderr")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of analysis jobs run at once")
	rootCmd.PersistentFlags().Int("max-concurrent-adapters", contract.DefaultMaxConcurrentAdapters, "Number of analyzers run at once within a job")
	rootCmd.PersistentFlags().Int("global-job-timeout", contract.DefaultGlobalJobTimeoutSeconds, "Deadline of a whole job in seconds")
	rootCmd.PersistentFlags().String("workspace-dir", "", "Base directory for per-job scratch space (default: OS temp dir)")
	rootCmd.PersistentFlags().Int("max-repo-size-mb", contract.DefaultMaxRepoSizeMB, "Largest snapshot accepted, in MB")
	rootCmd.PersistentFlags().Int("max-file-count", contract.DefaultMaxFileCount, "Largest number of files accepted in a snapshot")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the store (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Result cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for the result cache (a SQLite file must differ from the store file)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of analyzeCmd to Viper
	analyzeCmd.Flags().String("branch", "", "Branch to clone for remote repositories (default: main)")
	analyzeCmd.Flags().String("commit", "", "Commit to analyze (default: branch head)")
	analyzeCmd.Flags().String("exclude", "", "Comma-separated glob patterns ignored by every analyzer")
	analyzeCmd.Flags().String("enable", "", "Comma-separated analyzers to enable (e.g., coverage,docs)")
	analyzeCmd.Flags().String("disable", "", "Comma-separated analyzers to disable")
	analyzeCmd.Flags().Int("tool-timeout", 0, "Per-analyzer timeout in seconds (default: 120)")
	analyzeCmd.Flags().String("fail-under", "", "Minimum scores for CI/CD gating (format: 'confidence:70,quality:60')")
	analyzeCmd.Flags().Bool("no-cache", false, "Run every analyzer even when a cached result exists")
	if err := viper.BindPFlags(analyzeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analyze flags", err)
	}

	// Catalog flags are read from the command, not from Viper, to keep their names local.
	repoAddCmd.Flags().String("name", "", "Display name (default: derived from the URL)")
	repoAddCmd.Flags().String("branch", "", "Branch to analyze (default: main)")
	repoAddCmd.Flags().String("description", "", "Free-form description")
	repoListCmd.Flags().Int("offset", 0, "Number of repositories to skip")
	jobListCmd.Flags().Int64("repository", 0, "Only list jobs of this repository id")

	storeClearCmd.Flags().Bool("cache", false, "Only remove cached analyzer results")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
