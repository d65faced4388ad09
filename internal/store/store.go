// Package store persists repositories, finished analysis jobs and cached analyzer results.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Table names.
const (
	resultCacheTable  = "analyzer_result_cache"
	repositoriesTable = "repositories"
	jobsTable         = "analysis_jobs"
	issuesTable       = "job_issues"
	fileMetricsTable  = "job_file_metrics"
)

// storeTables lists the tables of the repository and job store, children first.
var storeTables = []string{fileMetricsTable, issuesTable, jobsTable, repositoriesTable}

// StoreManager hands out the stores opened by InitStores.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	sql          *SQLStore
	cache        contract.ResultCache
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetRepositoryStore returns the repository store.
func (mgr *StoreManager) GetRepositoryStore() contract.RepositoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	if mgr.sql == nil {
		return nil
	}
	return mgr.sql
}

// GetJobStore returns the job store.
func (mgr *StoreManager) GetJobStore() contract.JobStore {
	mgr.RLock()
	defer mgr.RUnlock()
	if mgr.sql == nil {
		return nil
	}
	return mgr.sql
}

// GetResultCache returns the analyzer result cache.
func (mgr *StoreManager) GetResultCache() contract.ResultCache {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.cache
}

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores opens the repository and job store and the result cache.
// cacheBackend can be empty to disable result caching.
func InitStores(storeBackend schema.DatabaseBackend, storeConnStr string, cacheBackend schema.DatabaseBackend, cacheConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		sqlStore, err := NewSQLStore(storeBackend, storeConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize store: %w", err)
			return
		}

		var cache contract.ResultCache
		if cacheBackend != "" {
			cache, err = NewResultCache(resultCacheTable, cacheBackend, cacheConnStr)
			if err != nil {
				_ = sqlStore.Close()
				initErr = fmt.Errorf("failed to initialize result cache: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.sql = sqlStore
		Manager.cache = cache
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.sql != nil {
			_ = Manager.sql.Close()
		}
		if Manager.cache != nil {
			_ = Manager.cache.Close()
		}
	})
}

// ClearStore removes every repository and job for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend:
		return clearSQLTables("mysql", connStr, backend, storeTables...)
	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", connStr, backend, storeTables...)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// ClearCache removes every cached analyzer result for the specified backend.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend:
		return clearSQLTables("mysql", connStr, backend, resultCacheTable)
	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", connStr, backend, resultCacheTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

func removeSQLiteFile(dbFilePath string) error {
	if dbFilePath == "" {
		return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
	}
	// Remove the file; ignore if it doesn't exist
	if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
	}
	return nil
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(driverName, connStr string, backend schema.DatabaseBackend, tables ...string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
