package store

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_NoneBackend(t *testing.T) {
	cache, err := NewResultCache(resultCacheTable, schema.NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, cache.Set("key", []byte("value"), 1, 100))
	_, _, _, err = cache.Get("key")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := cache.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, cache.Close())
}

func TestResultCache_InvalidTableName(t *testing.T) {
	_, err := NewResultCache("bad-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
}

func TestResultCache_SQLite(t *testing.T) {
	cache, err := NewResultCache(resultCacheTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	_, _, _, err = cache.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, cache.Set("lint:abc", []byte(`{"tool":"lint"}`), 1, 1000))
	value, version, ts, err := cache.Get("lint:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"tool":"lint"}`), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(1000), ts)

	// Set replaces the existing entry.
	require.NoError(t, cache.Set("lint:abc", []byte(`{"tool":"lint","v":2}`), 2, 2000))
	value, version, ts, err = cache.Get("lint:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"tool":"lint","v":2}`), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(2000), ts)

	require.NoError(t, cache.Set("style:abc", []byte(`{}`), 1, 500))

	status, err := cache.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(500, 0), status.OldestEntryTime)
	assert.Positive(t, status.TableSizeBytes)

	var buf bytes.Buffer
	PrintCacheStatus(&buf, status)
	assert.Contains(t, buf.String(), "Cache Backend: sqlite")
	assert.Contains(t, buf.String(), "Total Entries: 2")
}

func TestGetCreateCacheTableQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "cache_value BLOB"},
		{schema.MySQLBackend, "cache_value LONGBLOB"},
		{schema.PostgreSQLBackend, "cache_value BYTEA"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Contains(t, getCreateCacheTableQuery(resultCacheTable, tt.backend), tt.want)
		})
	}
}
