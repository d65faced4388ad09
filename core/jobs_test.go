package core

import (
	"sync"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedJobs returns how many jobs the tracker holds in memory.
func trackedJobs(t *JobTracker) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to schema.JobStatus
		expected bool
	}{
		{schema.PendingStatus, schema.RunningStatus, true},
		{schema.PendingStatus, schema.FailedStatus, true},
		{schema.PendingStatus, schema.CompletedStatus, false},
		{schema.RunningStatus, schema.CompletedStatus, true},
		{schema.RunningStatus, schema.FailedStatus, true},
		{schema.RunningStatus, schema.PendingStatus, false},
		{schema.CompletedStatus, schema.FailedStatus, false},
		{schema.CompletedStatus, schema.RunningStatus, false},
		{schema.FailedStatus, schema.CompletedStatus, false},
		{schema.FailedStatus, schema.PendingStatus, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, CanTransition(tt.from, tt.to))
		})
	}
}

func TestJobTrackerLifecycle(t *testing.T) {
	tracker := NewJobTracker()

	job, err := tracker.Create(7, "abc123")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, schema.PendingStatus, job.Status)
	assert.Equal(t, int64(7), job.RepositoryID)
	assert.Equal(t, "abc123", job.CommitHash)
	assert.False(t, job.CreatedAt.IsZero())

	running, err := tracker.Start(job.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.RunningStatus, running.Status)
	require.NotNil(t, running.StartedAt)
	assert.Nil(t, running.CompletedAt)

	score := 88.0
	done, err := tracker.Complete(job.ID, func(j *schema.AnalysisJob) {
		j.Scores = schema.Scores{Confidence: &score, Quality: &score}
		j.TotalFiles = 3
	})
	require.NoError(t, err)
	assert.Equal(t, schema.CompletedStatus, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, 88.0, *done.Scores.Confidence)
	assert.Equal(t, 3, done.TotalFiles)

	_, active := tracker.Lookup(7)
	assert.False(t, active)
}

func TestJobTrackerTerminalStatesAreImmutable(t *testing.T) {
	tracker := NewJobTracker()
	job, err := tracker.Create(1, "")
	require.NoError(t, err)
	_, err = tracker.Fail(job.ID, &schema.JobError{Kind: schema.KindSnapshotUnavailable, Reason: "missing path"}, nil)
	require.NoError(t, err)

	_, err = tracker.Start(job.ID)
	assert.ErrorIs(t, err, contract.ErrIllegalTransition)
	_, err = tracker.Complete(job.ID, func(j *schema.AnalysisJob) { j.TotalFiles = 99 })
	assert.ErrorIs(t, err, contract.ErrIllegalTransition)
	_, err = tracker.Fail(job.ID, &schema.JobError{Kind: schema.KindInternal}, nil)
	assert.ErrorIs(t, err, contract.ErrIllegalTransition)

	stored, err := tracker.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.FailedStatus, stored.Status)
	assert.Equal(t, 0, stored.TotalFiles)
	assert.Equal(t, schema.KindSnapshotUnavailable, stored.Error.Kind)
	assert.Nil(t, stored.StartedAt)
}

func TestJobTrackerPendingCannotComplete(t *testing.T) {
	tracker := NewJobTracker()
	job, err := tracker.Create(1, "")
	require.NoError(t, err)

	_, err = tracker.Complete(job.ID, nil)

	assert.ErrorIs(t, err, contract.ErrIllegalTransition)
}

func TestJobTrackerFailClearsScores(t *testing.T) {
	tracker := NewJobTracker()
	job, err := tracker.Create(1, "")
	require.NoError(t, err)
	_, err = tracker.Start(job.ID)
	require.NoError(t, err)

	score := 50.0
	failed, err := tracker.Fail(job.ID, &schema.JobError{Kind: schema.KindAllAdaptersFailed, Reason: "all adapters failed"}, func(j *schema.AnalysisJob) {
		j.Scores.Confidence = &score
		j.Tools = []schema.ToolSummary{{Tool: "lint", Status: schema.StatusTimeout}}
	})
	require.NoError(t, err)

	assert.Nil(t, failed.Scores.Confidence)
	assert.Nil(t, failed.Scores.Quality)
	assert.Len(t, failed.Tools, 1)
}

func TestJobTrackerConflict(t *testing.T) {
	tracker := NewJobTracker()
	first, err := tracker.Create(42, "")
	require.NoError(t, err)

	second, err := tracker.Create(42, "")

	assert.Nil(t, second)
	require.ErrorIs(t, err, contract.ErrJobConflict)
	var conflict *contract.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ActiveJobID)
	assert.Equal(t, schema.PendingStatus, conflict.ActiveStatus)
	assert.Equal(t, 1, trackedJobs(tracker))

	// Other repositories are unaffected.
	_, err = tracker.Create(43, "")
	assert.NoError(t, err)

	// Once the first job is terminal the repository accepts a new one.
	_, err = tracker.Fail(first.ID, &schema.JobError{Kind: schema.KindCancelled, Reason: "cancelled"}, nil)
	require.NoError(t, err)
	_, err = tracker.Create(42, "")
	assert.NoError(t, err)
}

func TestJobTrackerConcurrentCreate(t *testing.T) {
	tracker := NewJobTracker()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for range 32 {
		wg.Go(func() {
			_, err := tracker.Create(5, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, contract.ErrJobConflict) {
				conflicts++
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 31, conflicts)
}

func TestJobTrackerReturnsCopies(t *testing.T) {
	tracker := NewJobTracker()
	job, err := tracker.Create(1, "")
	require.NoError(t, err)

	job.Status = schema.CompletedStatus
	job.Issues = append(job.Issues, schema.Issue{Path: "x.py"})

	stored, err := tracker.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.PendingStatus, stored.Status)
	assert.Empty(t, stored.Issues)

	active, ok := tracker.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, job.ID, active.ID)
}

func TestJobTrackerNotFound(t *testing.T) {
	tracker := NewJobTracker()

	_, err := tracker.Get("missing")
	assert.ErrorIs(t, err, contract.ErrJobNotFound)
	_, err = tracker.Start("missing")
	assert.ErrorIs(t, err, contract.ErrJobNotFound)
}

func TestJobTrackerForget(t *testing.T) {
	tracker := NewJobTracker()
	job, err := tracker.Create(1, "")
	require.NoError(t, err)

	assert.False(t, tracker.Forget(job.ID), "active jobs stay tracked")

	_, err = tracker.Fail(job.ID, &schema.JobError{Kind: schema.KindCancelled}, nil)
	require.NoError(t, err)
	assert.True(t, tracker.Forget(job.ID))
	assert.Zero(t, trackedJobs(tracker))
}
