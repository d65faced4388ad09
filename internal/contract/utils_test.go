package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "smallest value possible", input: 0.0, expected: PoorValue},
		{name: "just before fair", input: 39.9, expected: PoorValue},
		{name: "exactly fair", input: 40.0, expected: FairValue},
		{name: "just before good", input: 59.9, expected: FairValue},
		{name: "exactly good", input: 60.0, expected: GoodValue},
		{name: "just before excellent", input: 79.9, expected: GoodValue},
		{name: "exactly excellent", input: 80.0, expected: ExcellentValue},
		{name: "perfect", input: 100.0, expected: ExcellentValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		label string
	}{
		{"poor", 30, PoorValue},
		{"fair", 50, FairValue},
		{"good", 70, GoodValue},
		{"excellent", 90, ExcellentValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, GetColorLabel(tt.score), tt.label)
		})
	}
}

func TestGetColorSeverity(t *testing.T) {
	for _, sev := range []schema.Severity{schema.SeverityError, schema.SeverityWarning, schema.SeverityInfo} {
		assert.Contains(t, GetColorSeverity(sev), string(sev))
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		file, err := SelectOutputFile(path)
		require.NoError(t, err)
		require.NoError(t, file.Close())
		assert.FileExists(t, path)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		_, err := SelectOutputFile(filepath.Join(t.TempDir(), "missing", "out.json"))
		assert.Error(t, err)
	})
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excludes []string
		expected bool
	}{
		{"no patterns", "main.py", nil, false},
		{"blank pattern", "main.py", []string{"  "}, false},
		{"extension suffix", "docs/readme.md", []string{".md"}, true},
		{"directory prefix", "vendor/lib/a.py", []string{"vendor/"}, true},
		{"nested directory prefix", "src/build/gen.py", []string{"build/"}, true},
		{"directory prefix no match", "src/vendored.py", []string{"vendor/"}, false},
		{"glob on base name", "pkg/api_pb2.py", []string{"*_pb2.py"}, true},
		{"glob on full path", "pkg/api.py", []string{"pkg/*.py"}, true},
		{"double star suffix", "tests/unit/test_api.py", []string{"tests/**"}, true},
		{"double star suffix exact dir", "tests", []string{"tests/**"}, true},
		{"double star suffix other dir", "testsuite/a.py", []string{"tests/**"}, false},
		{"double star prefix", "a/b/migrations/0001.py", []string{"**/migrations/*.py"}, true},
		{"double star prefix at root", "migrations/0001.py", []string{"**/migrations/*.py"}, true},
		{"double star prefix no match", "a/b/models.py", []string{"**/migrations/*.py"}, false},
		{"substring", "src/generated_code.py", []string{"generated"}, true},
		{"invalid glob is skipped", "a.py", []string{"[", "a.py"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldIgnore(tt.path, tt.excludes))
		})
	}
}

func TestDBFilePaths(t *testing.T) {
	store := GetStoreDBFilePath()
	cache := GetCacheDBFilePath()
	assert.NotEqual(t, store, cache)
	assert.True(t, strings.HasSuffix(store, ".code_analyzer.db"))
	assert.True(t, strings.HasSuffix(cache, ".code_analyzer_cache.db"))
	assert.True(t, strings.HasPrefix(GetWorkspaceDir(), os.TempDir()))
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.py", TruncatePath("short.py", 20))
	assert.Equal(t, "...c/d.py", TruncatePath("a/b/c/d.py", 9))
	assert.Equal(t, "a/b/c/d.py", TruncatePath("a/b/c/d.py", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}
