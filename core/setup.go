package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/core/analyzers"
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"go.uber.org/zap"
)

// NewEngineFromStores builds the built-in adapters enabled in cfg and wires them
// to the stores held by mgr and to the local process runner.
func NewEngineFromStores(cfg *contract.Config, mgr contract.StoreManager) (*Engine, error) {
	if mgr == nil {
		return nil, errors.New("store manager is not initialized")
	}
	runner := contract.NewLocalToolRunner()
	adapters, err := analyzers.FromConfig(cfg, runner)
	if err != nil {
		return nil, err
	}
	return NewEngine(cfg, adapters, Deps{
		Repositories: mgr.GetRepositoryStore(),
		Jobs:         mgr.GetJobStore(),
		Cache:        mgr.GetResultCache(),
		Acquirer:     contract.NewLocalAcquirer(runner),
	})
}

// EnsureRepository returns the repository registered for source, registering it
// first when needed. Local paths are made absolute so that the same directory
// always maps to the same repository.
func EnsureRepository(repos contract.RepositoryStore, source, branch string) (schema.Repository, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return schema.Repository{}, errors.New("a repository path or clone URL is required")
	}
	if !schema.IsRemoteLocation(source) {
		abs, err := filepath.Abs(source)
		if err != nil {
			return schema.Repository{}, fmt.Errorf("failed to resolve %s: %w", source, err)
		}
		source = abs
	}

	repo, err := repos.FindRepositoryByURL(source)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, contract.ErrRepositoryNotFound) {
		return schema.Repository{}, err
	}

	repo, err = repos.CreateRepository(schema.Repository{URL: source, Branch: branch})
	if err != nil {
		return schema.Repository{}, err
	}
	contract.Logger().Info("repository registered", zap.Int64("id", repo.ID), zap.String("url", repo.URL))
	return repo, nil
}
