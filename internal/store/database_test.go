//go:build database

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest) (host, port string) {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err = c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, req.ExposedPorts[0])
	require.NoError(t, err)
	return host, mapped.Port()
}

// exerciseBackend runs the same store and cache scenario against a server backend.
func exerciseBackend(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	result, err := Migrate(backend, connStr, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.ToVersion)

	s, err := NewSQLStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	repo, err := s.CreateRepository(schema.Repository{URL: "https://github.com/acme/widgets"})
	require.NoError(t, err)
	assert.Positive(t, repo.ID)

	created := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveJob(completedJob("job-a", repo.ID, created)))
	require.NoError(t, s.SaveJob(failedJob("job-b", repo.ID, created.Add(time.Minute))))
	assert.ErrorIs(t, s.SaveJob(completedJob("job-a", repo.ID, created)), contract.ErrJobAlreadySaved)

	got, err := s.GetJob("job-a")
	require.NoError(t, err)
	assert.Len(t, got.Issues, 2)
	assert.Len(t, got.Files, 2)
	assert.True(t, got.CreatedAt.Equal(created))

	jobs, err := s.ListJobs(repo.ID, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-b", jobs[0].ID)

	status, err := s.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalJobs)
	assert.Equal(t, "job-b", status.LastJobID)

	require.NoError(t, s.DeleteRepository(repo.ID))
	jobs, err = s.ListJobs(0, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	cache, err := NewResultCache(resultCacheTable, backend, connStr)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()
	require.NoError(t, cache.Set("lint:abc", []byte("{}"), 1, 1000))
	require.NoError(t, cache.Set("lint:abc", []byte(`{"v":2}`), 2, 2000))
	value, version, _, err := cache.Get("lint:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), value)
	assert.Equal(t, 2, version)

	require.NoError(t, ClearCache(backend, "", connStr))
	require.NoError(t, ClearStore(backend, "", connStr))
}

func TestStoreWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "analyzer",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	})

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/analyzer?parseTime=true&multiStatements=true", host, port)
	exerciseBackend(t, schema.MySQLBackend, connStr)
}

func TestStoreWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	})

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port)
	exerciseBackend(t, schema.PostgreSQLBackend, connStr)
}
