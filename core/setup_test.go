package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/internal/store"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineFromStores(t *testing.T) {
	st, err := store.NewSQLStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	t.Run("wires the enabled adapters", func(t *testing.T) {
		mgr := &store.MockStoreManager{}
		mgr.On("GetRepositoryStore").Return(st)
		mgr.On("GetJobStore").Return(st)
		mgr.On("GetResultCache").Return(nil)

		e, err := NewEngineFromStores(testEngineConfig(t), mgr)
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = e.Shutdown(ctx)
		})
		assert.Equal(t, contract.DefaultEnabledTools, e.orch.Adapters())
		mgr.AssertExpectations(t)
	})

	t.Run("nil manager", func(t *testing.T) {
		_, err := NewEngineFromStores(testEngineConfig(t), nil)
		assert.Error(t, err)
	})

	t.Run("missing repository store", func(t *testing.T) {
		mgr := &store.MockStoreManager{}
		mgr.On("GetRepositoryStore").Return(nil)
		mgr.On("GetJobStore").Return(nil)
		mgr.On("GetResultCache").Return(nil)

		_, err := NewEngineFromStores(testEngineConfig(t), mgr)
		assert.Error(t, err)
	})
}

func TestEnsureRepository(t *testing.T) {
	st, err := store.NewSQLStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	t.Run("registers a remote url once", func(t *testing.T) {
		url := "https://github.com/acme/widgets.git"
		first, err := EnsureRepository(st, url, "develop")
		require.NoError(t, err)
		assert.Equal(t, "widgets", first.Name)
		assert.Equal(t, "develop", first.Branch)

		again, err := EnsureRepository(st, "  "+url+" ", "")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("local paths are absolute", func(t *testing.T) {
		dir := t.TempDir()
		wd, err := os.Getwd()
		require.NoError(t, err)
		rel, err := filepath.Rel(wd, dir)
		require.NoError(t, err)

		repo, err := EnsureRepository(st, rel, "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(repo.URL))
		assert.Equal(t, filepath.Base(dir), repo.Name)
		assert.Equal(t, "main", repo.Branch)

		again, err := EnsureRepository(st, dir, "")
		require.NoError(t, err)
		assert.Equal(t, repo.ID, again.ID)
	})

	t.Run("empty source", func(t *testing.T) {
		_, err := EnsureRepository(st, " ", "")
		assert.Error(t, err)
	})
}
