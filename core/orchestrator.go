package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// cancelledReason is the failure reason of an adapter stopped by job cancellation.
const cancelledReason = "cancelled"

// Orchestrator runs a fixed, ordered set of adapters against one snapshot and
// always returns one result per adapter, in registration order.
type Orchestrator struct {
	adapters      []contract.Analyzer
	configs       map[string]schema.ToolConfig
	maxConcurrent int
	cache         resultCache
}

// NewOrchestrator validates the adapter set. Adapter names must be unique and every
// adapter needs a positive timeout in configs. A nil cache disables result caching.
func NewOrchestrator(adapters []contract.Analyzer, configs map[string]schema.ToolConfig, maxConcurrent int, cache contract.ResultCache) (*Orchestrator, error) {
	if len(adapters) == 0 {
		return nil, contract.ConfigErrorf("at least one analyzer must be registered")
	}
	if maxConcurrent <= 0 {
		return nil, contract.ConfigErrorf("max-concurrent-adapters must be greater than 0 (received %d)", maxConcurrent)
	}

	seen := make(map[string]struct{}, len(adapters))
	owned := make(map[string]schema.ToolConfig, len(adapters))
	for _, a := range adapters {
		name := a.Name()
		if _, dup := seen[name]; dup {
			return nil, contract.ConfigErrorf("analyzer %q is registered twice", name)
		}
		seen[name] = struct{}{}

		cfg, ok := configs[name]
		if !ok {
			return nil, contract.ConfigErrorf("no configuration for analyzer %q", name)
		}
		if cfg.TimeoutSeconds <= 0 {
			return nil, contract.ConfigErrorf("timeout for tool %s must be greater than 0 (received %ds)", name, cfg.TimeoutSeconds)
		}
		owned[name] = cfg
	}

	return &Orchestrator{
		adapters:      append([]contract.Analyzer(nil), adapters...),
		configs:       owned,
		maxConcurrent: maxConcurrent,
		cache:         resultCache{store: cache},
	}, nil
}

// Adapters returns the registered adapter names in order.
func (o *Orchestrator) Adapters() []string {
	names := make([]string, len(o.adapters))
	for i, a := range o.adapters {
		names[i] = a.Name()
	}
	return names
}

// Run invokes every adapter with at most maxConcurrent running at once. Each
// invocation is bounded by its own timeout and by ctx, which carries the global
// job deadline. Run returns only after every adapter has a terminal result.
func (o *Orchestrator) Run(ctx context.Context, snap schema.Snapshot) []schema.AnalyzerResult {
	results := make([]schema.AnalyzerResult, len(o.adapters))

	var g errgroup.Group
	g.SetLimit(o.maxConcurrent)
	for i, a := range o.adapters {
		g.Go(func() error {
			results[i] = o.invoke(ctx, a, snap)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// invoke runs one adapter in its own goroutine and waits for its result or for expiry.
// An adapter that ignores expiry is abandoned; its late result is discarded.
func (o *Orchestrator) invoke(ctx context.Context, a contract.Analyzer, snap schema.Snapshot) schema.AnalyzerResult {
	name := a.Name()
	cfg := o.configs[name]
	logger := contract.Logger().With(zap.String("tool", name))
	start := time.Now()

	if cached, ok := o.cache.lookup(a, snap, cfg); ok {
		cached.Tool = name
		cached.Duration = time.Since(start)
		logger.Debug("analyzer result served from cache")
		return cached
	}

	var res schema.AnalyzerResult
	if ctx.Err() != nil {
		// The job expired or was cancelled while this adapter waited for a slot.
		res = interrupted(ctx, name, cfg.Timeout())
	} else {
		logger.Debug("analyzer started", zap.Duration("timeout", cfg.Timeout()))
		res = o.await(ctx, a, snap, cfg)
	}

	res.Tool = name
	res.Duration = time.Since(start)
	logger.Info("analyzer finished",
		zap.String("status", string(res.Status)),
		zap.Int("issues", len(res.Issues)),
		zap.Duration("duration", res.Duration),
		zap.String("error", res.Error),
	)

	o.cache.save(a, snap, cfg, res)
	return res
}

func (o *Orchestrator) await(ctx context.Context, a contract.Analyzer, snap schema.Snapshot, cfg schema.ToolConfig) schema.AnalyzerResult {
	actx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	done := make(chan schema.AnalyzerResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- schema.AnalyzerResult{
					Status: schema.StatusToolError,
					Error:  fmt.Sprintf("analyzer panicked: %v", r),
				}
			}
		}()
		done <- a.Invoke(actx, snap, cfg)
	}()

	select {
	case res := <-done:
		return res
	case <-actx.Done():
		// A result that raced with expiry still counts.
		select {
		case res := <-done:
			return res
		default:
			return interrupted(ctx, a.Name(), cfg.Timeout())
		}
	}
}

// interrupted builds the result of an adapter stopped before it reported.
// Cancelling the job is a tool error with reason "cancelled". Any deadline,
// the adapter's own or the job's, is a timeout.
func interrupted(parent context.Context, name string, timeout time.Duration) schema.AnalyzerResult {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return schema.AnalyzerResult{Tool: name, Status: schema.StatusToolError, Error: cancelledReason}
	case errors.Is(parent.Err(), context.DeadlineExceeded):
		return schema.AnalyzerResult{Tool: name, Status: schema.StatusTimeout, Error: "global job timeout reached"}
	default:
		return schema.AnalyzerResult{Tool: name, Status: schema.StatusTimeout, Error: fmt.Sprintf("did not finish within %s", timeout)}
	}
}
