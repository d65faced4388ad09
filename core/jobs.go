package core

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// transitions lists the legal moves out of every non-terminal state.
var transitions = map[schema.JobStatus][]schema.JobStatus{
	schema.PendingStatus: {schema.RunningStatus, schema.FailedStatus},
	schema.RunningStatus: {schema.CompletedStatus, schema.FailedStatus},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to schema.JobStatus) bool {
	return slices.Contains(transitions[from], to)
}

// JobTracker owns the in-memory state of every job and enforces that a repository
// has at most one pending or running job at a time. Callers only ever see copies.
type JobTracker struct {
	mu     sync.Mutex
	jobs   map[string]*schema.AnalysisJob
	active map[int64]string // repository id -> job id
	now    func() time.Time
}

// NewJobTracker creates an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs:   make(map[string]*schema.AnalysisJob),
		active: make(map[int64]string),
		now:    time.Now,
	}
}

// Create registers a pending job for the repository. If the repository already
// has an active job, no job is created and a *contract.ConflictError is returned.
func (t *JobTracker) Create(repoID int64, commit string) (*schema.AnalysisJob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.active[repoID]; ok {
		return nil, &contract.ConflictError{
			RepositoryID: repoID,
			ActiveJobID:  id,
			ActiveStatus: t.jobs[id].Status,
		}
	}

	job := &schema.AnalysisJob{
		ID:           uuid.NewString(),
		RepositoryID: repoID,
		CommitHash:   commit,
		Status:       schema.PendingStatus,
		CreatedAt:    t.now(),
	}
	t.jobs[job.ID] = job
	t.active[repoID] = job.ID
	return job.Clone(), nil
}

// Start moves a pending job to running.
func (t *JobTracker) Start(id string) (*schema.AnalysisJob, error) {
	return t.Transition(id, schema.RunningStatus, nil)
}

// Complete moves a running job to completed after applying update.
func (t *JobTracker) Complete(id string, update func(*schema.AnalysisJob)) (*schema.AnalysisJob, error) {
	return t.Transition(id, schema.CompletedStatus, update)
}

// Fail moves a pending or running job to failed with the given terminal error.
func (t *JobTracker) Fail(id string, jobErr *schema.JobError, update func(*schema.AnalysisJob)) (*schema.AnalysisJob, error) {
	return t.Transition(id, schema.FailedStatus, func(job *schema.AnalysisJob) {
		if update != nil {
			update(job)
		}
		job.Error = jobErr
		job.Scores = schema.Scores{}
	})
}

// Transition applies update and moves the job to status to. Illegal moves,
// including any move out of a terminal state, return contract.ErrIllegalTransition
// and leave the job untouched.
func (t *JobTracker) Transition(id string, to schema.JobStatus, update func(*schema.AnalysisJob)) (*schema.AnalysisJob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrJobNotFound, id)
	}
	if !CanTransition(job.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s for job %s", contract.ErrIllegalTransition, job.Status, to, id)
	}

	if update != nil {
		update(job)
	}
	now := t.now()
	switch to {
	case schema.RunningStatus:
		job.StartedAt = &now
	case schema.CompletedStatus, schema.FailedStatus:
		job.CompletedAt = &now
		if t.active[job.RepositoryID] == id {
			delete(t.active, job.RepositoryID)
		}
	}
	job.Status = to
	return job.Clone(), nil
}

// Get returns a copy of the job or contract.ErrJobNotFound.
func (t *JobTracker) Get(id string) (*schema.AnalysisJob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

// Lookup returns the pending or running job of a repository, if any.
func (t *JobTracker) Lookup(repoID int64) (*schema.AnalysisJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.active[repoID]
	if !ok {
		return nil, false
	}
	return t.jobs[id].Clone(), true
}

// Forget drops a terminal job from memory. Active jobs are kept.
func (t *JobTracker) Forget(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok || !job.Status.IsTerminal() {
		return false
	}
	delete(t.jobs, id)
	return true
}
