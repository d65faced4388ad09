package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// Defaults of a newly registered repository.
const (
	defaultBranch   = "main"
	defaultLanguage = "python"
)

const repositoryColumns = "id, name, url, branch, language, owner, description, created_at, updated_at"

// CreateRepository registers a repository. Name and owner are derived from the
// URL when missing; the branch defaults to main and the language to python.
func (s *SQLStore) CreateRepository(repo schema.Repository) (schema.Repository, error) {
	repo.URL = strings.TrimSpace(repo.URL)
	if repo.URL == "" {
		return schema.Repository{}, errors.New("repository url must not be empty")
	}

	info := schema.ExtractRepoInfo(repo.URL)
	if repo.Name == "" {
		repo.Name = info.Name
	}
	if repo.Owner == "" {
		repo.Owner = info.Owner
	}
	if repo.Branch == "" {
		repo.Branch = defaultBranch
	}
	if repo.Language == "" {
		repo.Language = defaultLanguage
	}
	now := time.Now().UTC()
	repo.CreatedAt, repo.UpdatedAt = now, now

	args := []any{
		repo.Name, repo.URL, repo.Branch, repo.Language, repo.Owner, repo.Description,
		formatTime(now, s.backend), formatTime(now, s.backend),
	}
	insert := s.q(`INSERT INTO %s (name, url, branch, language, owner, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, repositoriesTable)

	switch s.backend {
	case schema.PostgreSQLBackend:
		if err := s.db.QueryRow(insert+" RETURNING id", args...).Scan(&repo.ID); err != nil {
			return schema.Repository{}, fmt.Errorf("failed to insert repository: %w", err)
		}
	default: // SQLite and MySQL
		res, err := s.db.Exec(insert, args...)
		if err != nil {
			return schema.Repository{}, fmt.Errorf("failed to insert repository: %w", err)
		}
		if repo.ID, err = res.LastInsertId(); err != nil {
			return schema.Repository{}, fmt.Errorf("failed to read repository id: %w", err)
		}
	}
	return repo, nil
}

// GetRepository loads a repository or returns contract.ErrRepositoryNotFound.
func (s *SQLStore) GetRepository(id int64) (schema.Repository, error) {
	row := s.db.QueryRow(s.q("SELECT "+repositoryColumns+" FROM %s WHERE id = ?", repositoriesTable), id)
	repo, err := s.scanRepository(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Repository{}, fmt.Errorf("%w: %d", contract.ErrRepositoryNotFound, id)
	}
	return repo, err
}

// FindRepositoryByURL returns the oldest repository registered with the URL.
func (s *SQLStore) FindRepositoryByURL(url string) (schema.Repository, error) {
	url = strings.TrimSpace(url)
	row := s.db.QueryRow(s.q("SELECT "+repositoryColumns+" FROM %s WHERE url = ? ORDER BY id LIMIT 1", repositoriesTable), url)
	repo, err := s.scanRepository(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Repository{}, fmt.Errorf("%w: %s", contract.ErrRepositoryNotFound, url)
	}
	return repo, err
}

// ListRepositories returns repositories ordered by id. A non-positive limit
// selects contract.DefaultResultLimit.
func (s *SQLStore) ListRepositories(offset, limit int) ([]schema.Repository, error) {
	offset = max(offset, 0)
	if limit <= 0 {
		limit = contract.DefaultResultLimit
	}

	rows, err := s.db.Query(s.q("SELECT "+repositoryColumns+" FROM %s ORDER BY id LIMIT ? OFFSET ?", repositoriesTable), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []schema.Repository
	for rows.Next() {
		repo, err := s.scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repositories: %w", err)
	}
	return repos, nil
}

// DeleteRepository removes a repository together with its stored jobs.
func (s *SQLStore) DeleteRepository(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(s.q("DELETE FROM %s WHERE id = ?", repositoriesTable), id)
	if err != nil {
		return fmt.Errorf("failed to delete repository %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to delete repository %d: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("%w: %d", contract.ErrRepositoryNotFound, id)
	}

	for _, child := range []string{issuesTable, fileMetricsTable} {
		query := s.q("DELETE FROM %s WHERE job_id IN (SELECT job_id FROM %s WHERE repository_id = ?)", child, jobsTable)
		if _, err := tx.Exec(query, id); err != nil {
			return fmt.Errorf("failed to delete jobs of repository %d: %w", id, err)
		}
	}
	if _, err := tx.Exec(s.q("DELETE FROM %s WHERE repository_id = ?", jobsTable), id); err != nil {
		return fmt.Errorf("failed to delete jobs of repository %d: %w", id, err)
	}

	return tx.Commit()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) scanRepository(row rowScanner) (schema.Repository, error) {
	var (
		repo                  schema.Repository
		language, owner, desc sql.NullString
		createdAt, updatedAt  = newTimeColumn(s.backend), newTimeColumn(s.backend)
	)
	if err := row.Scan(&repo.ID, &repo.Name, &repo.URL, &repo.Branch, &language, &owner, &desc, createdAt.dest(), updatedAt.dest()); err != nil {
		return schema.Repository{}, err
	}
	repo.Language, repo.Owner, repo.Description = language.String, owner.String, desc.String

	var err error
	if repo.CreatedAt, err = createdAt.required(); err != nil {
		return schema.Repository{}, err
	}
	if repo.UpdatedAt, err = updatedAt.required(); err != nil {
		return schema.Repository{}, err
	}
	return repo, nil
}
