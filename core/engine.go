package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nishalpattan/code-review-analyzer/core/normalize"
	"github.com/nishalpattan/code-review-analyzer/core/scoring"
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"go.uber.org/zap"
)

// Deps are the collaborators of an Engine. Jobs and Cache are optional.
type Deps struct {
	Repositories contract.RepositoryStore
	Jobs         contract.JobStore
	Cache        contract.ResultCache
	Acquirer     contract.Acquirer
}

// jobRun is the execution handle of a submitted job.
type jobRun struct {
	id     string
	repo   schema.Repository
	commit string
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}
	final  *schema.AnalysisJob // Terminal job, set before done is closed
}

// outcome is what a job produced before its terminal transition.
type outcome struct {
	snap       schema.Snapshot
	totalFiles int
	totalLines int
	merged     normalize.Merged
	scores     schema.Scores
	err        error
}

// Engine accepts analysis jobs and runs them on a bounded worker pool.
type Engine struct {
	cfg     *contract.Config
	orch    *Orchestrator
	scorer  *scoring.Scorer
	deps    Deps
	tracker *JobTracker
	slots   chan struct{}

	mu     sync.Mutex
	runs   map[string]*jobRun
	closed bool
	wg     sync.WaitGroup
}

// NewEngine validates the configuration and the adapter set. Any invalid weight,
// timeout or limit fails here, before a job can start.
func NewEngine(cfg *contract.Config, adapters []contract.Analyzer, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Repositories == nil {
		return nil, errors.New("engine needs a repository store")
	}
	if deps.Acquirer == nil {
		deps.Acquirer = contract.NewLocalAcquirer(contract.NewLocalToolRunner())
	}

	scorer, err := scoring.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	configs := make(map[string]schema.ToolConfig, len(adapters))
	for _, a := range adapters {
		tc := cfg.ToolConfigFor(a.Name())
		if tc.Timeout() > cfg.GlobalJobTimeout {
			return nil, contract.ConfigErrorf("timeout for tool %s (%s) exceeds the global job timeout (%s)", a.Name(), tc.Timeout(), cfg.GlobalJobTimeout)
		}
		configs[a.Name()] = tc
	}
	var cache contract.ResultCache
	if !cfg.NoCache {
		cache = deps.Cache
	}
	orch, err := NewOrchestrator(adapters, configs, cfg.MaxConcurrentAdapters, cache)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     cfg.Clone(),
		orch:    orch,
		scorer:  scorer,
		deps:    deps,
		tracker: NewJobTracker(),
		slots:   make(chan struct{}, cfg.Workers),
		runs:    make(map[string]*jobRun),
	}, nil
}

// Submit registers a pending job for the repository and schedules it. It returns
// a *contract.ConflictError while the repository has a pending or running job.
func (e *Engine) Submit(ctx context.Context, repoID int64, commit string) (*schema.AnalysisJob, error) {
	job, _, err := e.submit(ctx, repoID, commit)
	return job, err
}

func (e *Engine) submit(ctx context.Context, repoID int64, commit string) (*schema.AnalysisJob, *jobRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	repo, err := e.deps.Repositories.GetRepository(repoID)
	if err != nil {
		if errors.Is(err, contract.ErrRepositoryNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("load repository %d: %w", repoID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, nil, contract.ErrEngineClosed
	}

	job, err := e.tracker.Create(repo.ID, commit)
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithCancelCause(context.Background())
	run := &jobRun{
		id:     job.ID,
		repo:   repo,
		commit: commit,
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.runs[job.ID] = run
	e.wg.Add(1)
	go e.execute(run)

	contract.Logger().Info("job submitted",
		zap.String("job", job.ID),
		zap.Int64("repository", repo.ID),
		zap.String("commit", commit),
	)
	return job, run, nil
}

// Run submits a job and waits for it to finish. If ctx ends first the job is
// cancelled and its failed state is returned once cleanup is done.
func (e *Engine) Run(ctx context.Context, repoID int64, commit string) (*schema.AnalysisJob, error) {
	_, run, err := e.submit(ctx, repoID, commit)
	if err != nil {
		return nil, err
	}
	final, err := e.await(ctx, run)
	if err == nil {
		return final, nil
	}
	run.cancel(contract.ErrCancelled)
	return e.await(context.Background(), run)
}

// Cancel requests cancellation of a pending or running job. Cancelling a job that
// already finished is a no-op.
func (e *Engine) Cancel(id string) error {
	e.mu.Lock()
	run, ok := e.runs[id]
	e.mu.Unlock()
	if ok {
		run.cancel(contract.ErrCancelled)
		return nil
	}
	if _, err := e.Get(id); err != nil {
		return err
	}
	return nil
}

// Get returns the job from memory, falling back to the job store.
func (e *Engine) Get(id string) (*schema.AnalysisJob, error) {
	job, err := e.tracker.Get(id)
	if err == nil {
		return job, nil
	}
	if e.deps.Jobs != nil {
		return e.deps.Jobs.GetJob(id)
	}
	return nil, err
}

// Lookup returns the pending or running job of a repository, if any.
func (e *Engine) Lookup(repoID int64) (*schema.AnalysisJob, bool) {
	return e.tracker.Lookup(repoID)
}

// Wait blocks until the job is terminal or ctx ends.
func (e *Engine) Wait(ctx context.Context, id string) (*schema.AnalysisJob, error) {
	e.mu.Lock()
	run, ok := e.runs[id]
	e.mu.Unlock()
	if ok {
		return e.await(ctx, run)
	}
	return e.Get(id)
}

// await blocks until the run is terminal or ctx ends.
func (e *Engine) await(ctx context.Context, run *jobRun) (*schema.AnalysisJob, error) {
	select {
	case <-run.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if run.final != nil {
		return run.final.Clone(), nil
	}
	return e.Get(run.id)
}

// Shutdown stops accepting jobs and waits for running ones. When ctx ends first,
// the remaining jobs are cancelled and Shutdown still waits for their cleanup.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
	}

	e.mu.Lock()
	for _, run := range e.runs {
		run.cancel(fmt.Errorf("%w: engine shutting down", contract.ErrCancelled))
	}
	e.mu.Unlock()
	<-finished
	return ctx.Err()
}

// execute drives one job from pending to a terminal state.
func (e *Engine) execute(run *jobRun) {
	defer e.wg.Done()
	defer close(run.done)
	defer func() {
		e.mu.Lock()
		delete(e.runs, run.id)
		e.mu.Unlock()
		run.cancel(nil)
	}()

	select {
	case e.slots <- struct{}{}:
		defer func() { <-e.slots }()
	case <-run.ctx.Done():
		e.finish(run, outcome{err: cancelCause(run.ctx)})
		return
	}

	e.finish(run, e.analyze(run))
}

// analyze acquires the snapshot, runs the adapters and scores the results.
// The workspace is gone by the time it returns, whatever happened.
func (e *Engine) analyze(run *jobRun) (out outcome) {
	logger := contract.Logger().With(zap.String("job", run.id))

	ctx, cancel := context.WithTimeout(run.ctx, e.cfg.GlobalJobTimeout)
	defer cancel()

	ws, err := NewWorkspace(e.cfg.WorkspaceDir, run.id)
	if err != nil {
		return outcome{err: fmt.Errorf("create workspace: %w", err)}
	}
	defer func() { _ = ws.Release() }()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", zap.Any("panic", r))
			out = outcome{snap: out.snap, merged: out.merged, err: fmt.Errorf("unexpected fault during analysis: %v", r)}
		}
	}()

	snap, err := ws.Materialize(ctx, e.deps.Acquirer, run.repo, run.commit, LimitsFromConfig(e.cfg))
	if err != nil {
		switch {
		case errors.Is(context.Cause(run.ctx), contract.ErrCancelled):
			err = cancelCause(run.ctx)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			err = contract.SnapshotErrorf("snapshot was not ready within the global job timeout (%s)", e.cfg.GlobalJobTimeout)
		}
		return outcome{err: err}
	}
	out.snap = snap

	if _, err := e.tracker.Start(run.id); err != nil {
		return outcome{snap: snap, err: err}
	}
	logger.Info("job started",
		zap.Int("files", snap.FileCount),
		zap.Int64("bytes", snap.SizeBytes),
		zap.Strings("analyzers", e.orch.Adapters()),
	)

	results := e.orch.Run(ctx, snap)
	out.merged = normalize.Merge(results, snap.Files)

	if cause := context.Cause(run.ctx); errors.Is(cause, contract.ErrCancelled) {
		out.err = cause
		return out
	}
	if !out.merged.Succeeded() {
		out.err = contract.NewAdapterFailuresError(out.merged.Failures())
		return out
	}

	out.scores = e.scorer.Score(results)
	out.totalFiles, out.totalLines = SourceTotals(snap)
	return out
}

// finish applies the terminal transition and hands the job to the store. A job
// the store accepted is dropped from memory; Get reads it back from the store.
func (e *Engine) finish(run *jobRun, out outcome) {
	logger := contract.Logger().With(zap.String("job", run.id))

	var (
		job *schema.AnalysisJob
		err error
	)
	if out.err != nil {
		jobErr := contract.NewJobError(out.err, out.merged.Failures())
		job, err = e.tracker.Fail(run.id, jobErr, func(j *schema.AnalysisJob) {
			j.CommitHash = firstNonEmpty(out.snap.CommitHash, j.CommitHash)
			j.Tools = out.merged.Tools
		})
	} else {
		job, err = e.tracker.Complete(run.id, func(j *schema.AnalysisJob) {
			j.CommitHash = firstNonEmpty(out.snap.CommitHash, j.CommitHash)
			j.Scores = out.scores
			j.Tools = out.merged.Tools
			j.Issues = out.merged.Issues
			j.Files = out.merged.Files
			j.TotalFiles = out.totalFiles
			j.TotalLines = out.totalLines
		})
	}
	if err != nil {
		logger.Error("could not record job outcome", zap.Error(err))
		return
	}
	run.final = job

	fields := []zap.Field{zap.String("status", string(job.Status)), zap.Duration("duration", job.Duration())}
	if job.Error != nil {
		fields = append(fields, zap.String("kind", string(job.Error.Kind)), zap.String("reason", job.Error.Reason))
	}
	logger.Info("job finished", fields...)

	if e.deps.Jobs == nil {
		return
	}
	if err := e.deps.Jobs.SaveJob(job); err != nil {
		logger.Error("could not persist job", zap.Error(err))
		return
	}
	e.tracker.Forget(run.id)
}

// cancelCause returns the reason a job context ended, defaulting to ErrCancelled.
func cancelCause(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil && errors.Is(cause, contract.ErrCancelled) {
		return cause
	}
	return contract.ErrCancelled
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
