package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus(t *testing.T) {
	assert.False(t, PendingStatus.IsTerminal())
	assert.False(t, RunningStatus.IsTerminal())
	assert.True(t, CompletedStatus.IsTerminal())
	assert.True(t, FailedStatus.IsTerminal())

	assert.True(t, PendingStatus.IsActive())
	assert.True(t, RunningStatus.IsActive())
	assert.False(t, CompletedStatus.IsActive())
	assert.False(t, FailedStatus.IsActive())
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultConfidenceWeights().Sum(), 1e-9)
	assert.InDelta(t, 1.0, DefaultQualityWeights().Sum(), 1e-9)
}

func TestDefaultQualityFavorsMaintainability(t *testing.T) {
	w := DefaultQualityWeights()
	assert.Greater(t, w[CategoryMaintainability], w[CategorySecurity])
	assert.Greater(t, w[CategoryLint], w[CategorySecurity])
}

func TestToolConfigRules(t *testing.T) {
	cfg := ToolConfig{Ruleset: []string{"W0611", "-C0103", "", "-", "-C0111"}, TimeoutSeconds: 3}
	assert.Equal(t, []string{"W0611"}, cfg.EnabledRules())
	assert.Equal(t, []string{"C0103", "C0111"}, cfg.DisabledRules())
	assert.Equal(t, 3*time.Second, cfg.Timeout())
}

func TestExtractRepoInfo(t *testing.T) {
	tests := []struct {
		location string
		expected RepoInfo
	}{
		{"https://github.com/octo/widgets.git", RepoInfo{Owner: "octo", Name: "widgets", Platform: GitHubPlatform}},
		{"https://github.com/octo/widgets/", RepoInfo{Owner: "octo", Name: "widgets", Platform: GitHubPlatform}},
		{"git@gitlab.com:group/service.git", RepoInfo{Owner: "group", Name: "service", Platform: GitLabPlatform}},
		{"/srv/checkouts/billing", RepoInfo{Name: "billing", Platform: LocalPlatform}},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractRepoInfo(tt.location))
		})
	}
}

func TestIsRemoteLocation(t *testing.T) {
	assert.True(t, IsRemoteLocation("https://github.com/a/b"))
	assert.True(t, IsRemoteLocation("git@github.com:a/b.git"))
	assert.False(t, IsRemoteLocation("./local/path"))
	assert.False(t, IsRemoteLocation("/abs/path"))
}

func TestAnalysisJobClone(t *testing.T) {
	now := time.Now()
	score := 72.5
	job := &AnalysisJob{
		ID:        "job-1",
		Status:    CompletedStatus,
		StartedAt: &now,
		Scores:    Scores{Confidence: &score, Categories: map[Category]float64{CategoryLint: 80}},
		Tools:     []ToolSummary{{Tool: ToolLint, Status: StatusOK, Metrics: map[string]float64{MetricScore: 8}}},
		Issues:    []Issue{{Path: "a.py", Line: 1, Tool: ToolLint}},
		Files:     []FileMetrics{{Path: "a.py", IssuesByTool: map[string]int{ToolLint: 1}}},
		Error:     &JobError{Kind: KindCancelled, Tools: []ToolFailure{{Tool: ToolLint}}},
	}

	clone := job.Clone()
	require.Equal(t, job, clone)

	*clone.Scores.Confidence = 10
	clone.Scores.Categories[CategoryLint] = 0
	clone.Tools[0].Metrics[MetricScore] = 0
	clone.Issues[0].Line = 99
	clone.Files[0].IssuesByTool[ToolLint] = 5
	clone.Error.Tools[0].Tool = "other"

	assert.Equal(t, 72.5, *job.Scores.Confidence)
	assert.Equal(t, 80.0, job.Scores.Categories[CategoryLint])
	assert.Equal(t, 8.0, job.Tools[0].Metrics[MetricScore])
	assert.Equal(t, 1, job.Issues[0].Line)
	assert.Equal(t, 1, job.Files[0].IssuesByTool[ToolLint])
	assert.Equal(t, ToolLint, job.Error.Tools[0].Tool)
}

func TestAnalysisJobHelpers(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	job := &AnalysisJob{
		StartedAt:   &start,
		CompletedAt: &end,
		Tools:       []ToolSummary{{Tool: ToolSecurity, Status: StatusTimeout}},
		Issues: []Issue{
			{Path: "a.py", Tool: ToolLint},
			{Path: "b.py", Tool: ToolSecurity},
			{Path: "c.py", Tool: ToolLint},
		},
	}

	assert.Equal(t, 90*time.Second, job.Duration())

	grouped := job.IssuesByTool()
	assert.Len(t, grouped[ToolLint], 2)
	assert.Equal(t, "c.py", grouped[ToolLint][1].Path)
	assert.Len(t, grouped[ToolSecurity], 1)

	status, ok := job.ToolStatus(ToolSecurity)
	assert.True(t, ok)
	assert.Equal(t, StatusTimeout, status)
	_, ok = job.ToolStatus(ToolStyle)
	assert.False(t, ok, "a tool that was never attempted is distinguishable from one with zero issues")
}

func TestJobErrorMessage(t *testing.T) {
	var nilErr *JobError
	assert.Equal(t, "", nilErr.Error())
	err := &JobError{Kind: KindSnapshotUnavailable, Reason: "path missing"}
	assert.Equal(t, "SnapshotUnavailable: path missing", err.Error())
}
