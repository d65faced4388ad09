package cmd

import (
	"fmt"
	"os"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/internal/store"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// readBackends loads the store and cache backends from file, env and flags.
func readBackends() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	storeBackend := schema.DatabaseBackend(viper.GetString("store-backend"))
	storeConn := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(storeBackend, storeConn); err != nil {
		return err
	}
	cacheBackend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	cacheConn := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(cacheBackend, cacheConn); err != nil {
		return err
	}

	cfg.StoreBackend, cfg.StoreDBConnect = storeBackend, storeConn
	cfg.CacheBackend, cfg.CacheDBConnect = cacheBackend, cacheConn
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetup loads minimal configuration needed for store operations and opens
// the stores. It skips tool and weight validation.
func storeSetup() error {
	if err := readBackends(); err != nil {
		return err
	}
	if err := store.InitStores(cfg.StoreBackend, cfg.StoreDBConnect, cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetupWrapper reads the backends without opening the stores,
// so that migrations can run on a fresh database.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := readBackends(); err != nil {
		return err
	}
	if cfg.StoreBackend == schema.SQLiteBackend {
		cfg.StoreDBConnect = sqlitePath(cfg.StoreDBConnect, contract.GetStoreDBFilePath())
	}
	return nil
}

// sqlitePath returns the configured SQLite file, or the default one.
func sqlitePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// storeCmd focused on store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by analyze. This avoids tool and weight validation
// for simple maintenance operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored repositories, analysis jobs and the result cache",
	Long: `Manage the databases that hold registered repositories, finished analysis jobs
and cached analyzer results.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status  - Show store and cache statistics
  clear   - Remove all stored data (or only the cache)
  migrate - Run database schema migrations
  export  - Export jobs, issues and file metrics to Parquet

Examples:
  # Check store status
  analyzer store status

  # Export for analysis in pandas/DuckDB
  analyzer store export --output-file review-data`,
}

// storeStatusCmd shows store and cache status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store and cache statistics and connection details",
	Long: `Show detailed information about the repository and job store and the
analyzer result cache.

Displays:
- Backend type and connection status
- Number of repositories and jobs, by status
- Issue totals by severity
- Cache entries and size

Examples:
  # Check status of the default SQLite databases
  analyzer store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetJobStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStoreStatus(os.Stdout, status)

		cache := storeManager.GetResultCache()
		if cache == nil {
			return
		}
		cacheStatus, err := cache.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		fmt.Println()
		store.PrintCacheStatus(os.Stdout, cacheStatus)
	},
}

// storeClearCmd clears the store or the cache.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored repositories and jobs, or only cached results",
	Long: `Delete stored data from the configured backend.

Without --cache this removes every registered repository, every stored job
with its issues and file metrics. With --cache only cached analyzer results
are removed.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the tables

Examples:
  # Export before clearing
  analyzer store export --output-file backup
  analyzer store clear

  # Drop cached analyzer results after upgrading a tool
  analyzer store clear --cache`,
	PreRunE: storeSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if onlyCache, _ := cmd.Flags().GetBool("cache"); onlyCache {
			if err := store.ClearCache(cfg.CacheBackend, sqlitePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath()), cfg.CacheDBConnect); err != nil {
				contract.LogFatal("Failed to clear cache", err)
			}
			fmt.Println("Cache cleared successfully.")
			return
		}
		if err := store.ClearStore(cfg.StoreBackend, sqlitePath(cfg.StoreDBConnect, contract.GetStoreDBFilePath()), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeMigrateCmd runs database migrations for the store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the repository and job store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  analyzer store migrate

  # Rollback to initial state
  analyzer store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := store.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(result)
	},
}

// storeExportCmd exports stored jobs to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export jobs, issues and file metrics to Parquet for BI tools",
	Long: `Export all stored analysis data to Parquet format for use with analytics tools.

Writes three datasets next to the --output-file prefix:
- <prefix>.jobs.parquet         - one row per job with scores and failure reason
- <prefix>.issues.parquet       - every merged issue in merge order
- <prefix>.file_metrics.parquet - per-file rollups

Requires: --output-file parameter

Examples:
  # Export all data
  analyzer store export --output-file review-data

  # Use with DuckDB for analysis
  duckdb -c "SELECT status, avg(quality_score) FROM read_parquet('review-data.jobs.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ExecuteExport(storeManager.GetJobStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export store data", err)
		}
	},
}
