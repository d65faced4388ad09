package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"go.uber.org/zap"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a stored analyzer result stays usable.
const cacheTTL = 7 * 24 * time.Hour

// commander is implemented by adapters that drive an external executable.
type commander interface {
	Command() string
}

// resultCache reuses ok analyzer results for snapshots pinned to a commit.
// Entries are keyed by the commit and the snapshot's content digest, so local
// edits on top of a commit miss. A nil store disables it.
type resultCache struct {
	store contract.ResultCache
}

// lookup returns a cached result for the adapter, if a fresh one exists.
func (c resultCache) lookup(a contract.Analyzer, snap schema.Snapshot, cfg schema.ToolConfig) (schema.AnalyzerResult, bool) {
	if c.store == nil || snap.CommitHash == "" {
		return schema.AnalyzerResult{}, false
	}
	key := generateCacheKey(a, snapshotRevision(snap), cfg)
	if result := checkCacheHit(c.store, key); result != nil {
		return *result, true
	}
	return schema.AnalyzerResult{}, false
}

// save records an ok result. Failures are never cached so a retry runs the tool again.
func (c resultCache) save(a contract.Analyzer, snap schema.Snapshot, cfg schema.ToolConfig, result schema.AnalyzerResult) {
	if c.store == nil || snap.CommitHash == "" || !result.OK() {
		return
	}
	key := generateCacheKey(a, snapshotRevision(snap), cfg)
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.Logger().Warn("could not cache analyzer result", zap.String("tool", result.Tool), zap.Error(err))
	}
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.ResultCache, key string) *schema.AnalyzerResult {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion {
		entryTimestamp := time.Unix(ts, 0)
		if time.Since(entryTimestamp) <= cacheTTL {
			var result schema.AnalyzerResult
			if err := json.Unmarshal(data, &result); err == nil && result.OK() {
				return &result // Cache hit
			}
		}
	}

	return nil // Cache miss (stale or version mismatch)
}

// snapshotRevision identifies the analyzed tree: the commit, plus the content
// digest when one was computed.
func snapshotRevision(snap schema.Snapshot) string {
	if snap.ContentDigest == "" {
		return snap.CommitHash
	}
	return snap.CommitHash + "@" + snap.ContentDigest
}

// generateCacheKey creates a unique key from the tool, the revision and every
// option that changes what the tool reports. The timeout is left out.
func generateCacheKey(a contract.Analyzer, revision string, cfg schema.ToolConfig) string {
	command := ""
	if c, ok := a.(commander); ok {
		command = c.Command()
	}
	key := fmt.Sprintf("%s:%s:%s:%s:%s",
		a.Name(),
		command,
		revision,
		strings.Join(cfg.Ruleset, ","),
		strings.Join(cfg.ExcludePaths, ","),
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
