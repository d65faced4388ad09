package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// SQLStore keeps registered repositories and finished jobs in one SQL database.
// The none backend is served by a private in-memory SQLite database, so nothing
// outlives the process.
type SQLStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend // SQL dialect in use
	label   schema.DatabaseBackend // Backend reported by GetStatus
	connStr string

	closeOnce sync.Once
	closeErr  error
}

var (
	_ contract.RepositoryStore = &SQLStore{} // Compile-time check
	_ contract.JobStore        = &SQLStore{} // Compile-time check
)

// NewSQLStore opens the store of the backend and creates its tables if needed.
func NewSQLStore(backend schema.DatabaseBackend, connStr string) (*SQLStore, error) {
	label := backend
	if backend == schema.NoneBackend {
		backend, connStr = schema.SQLiteBackend, ":memory:"
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	db, err := openDB(backend, connStr, defaultStorePath())
	if err != nil {
		return nil, err
	}

	stmts, err := schemaStatements(backend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create store tables: %w", err)
		}
	}

	return &SQLStore{db: db, backend: backend, label: label, connStr: connStr}, nil
}

// Close closes the underlying connection. Later calls return the first result.
func (s *SQLStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// table returns the quoted name of a table.
func (s *SQLStore) table(name string) string {
	return quoteTableName(name, s.backend)
}

// q formats a query with quoted table names and rebinds its placeholders.
func (s *SQLStore) q(format string, tables ...string) string {
	args := make([]any, len(tables))
	for i, t := range tables {
		args[i] = s.table(t)
	}
	return rebind(fmt.Sprintf(format, args...), s.backend)
}
