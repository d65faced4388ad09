package contract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const treeListing = "100644 blob 8f3a1c2e4b5d6f708192a3b4c5d6e7f801234567     120\tapp.py\n" +
	"100755 blob 1a2b3c4d5e6f708192a3b4c5d6e7f80123456789    2048\tbin/run.sh\n" +
	"120000 blob 2b3c4d5e6f708192a3b4c5d6e7f8012345678901      11\tlatest\n" +
	"160000 commit 3c4d5e6f708192a3b4c5d6e7f801234567890123       -\tvendor/lib\n"

func TestLocalAcquirer_CopiesLocalDirectory(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "pkg", "app.py"), "print('hi')\n")
	writeFile(t, filepath.Join(src, ".git", "HEAD"), "ref: refs/heads/main\n")
	require.NoError(t, os.Symlink("/etc/passwd", filepath.Join(src, "escape")))

	runner := new(MockToolRunner)
	runner.On("Run", mock.Anything, src, "git", "rev-parse", "HEAD").
		Return(ToolOutput{Stdout: []byte("abc123\n")}, nil)

	dest := filepath.Join(t.TempDir(), "src")
	commit, err := NewLocalAcquirer(runner).Acquire(context.Background(), schema.Repository{ID: 1, URL: src}, "", dest, SnapshotLimits{})
	require.NoError(t, err)
	assert.Equal(t, "abc123", commit)

	data, err := os.ReadFile(filepath.Join(dest, "pkg", "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(data))
	assert.NoDirExists(t, filepath.Join(dest, ".git"))
	assert.NoFileExists(t, filepath.Join(dest, "escape"))
}

func TestLocalAcquirer_NotAGitRepository(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.py"), "x = 1\n")

	runner := new(MockToolRunner)
	runner.On("Run", mock.Anything, src, "git", "rev-parse", "HEAD").
		Return(ToolOutput{ExitCode: 128, Stderr: []byte("not a git repository")}, nil)

	commit, err := NewLocalAcquirer(runner).Acquire(context.Background(), schema.Repository{URL: src}, "", filepath.Join(t.TempDir(), "src"), SnapshotLimits{})
	require.NoError(t, err)
	assert.Empty(t, commit)
}

func TestLocalAcquirer_MissingPath(t *testing.T) {
	runner := new(MockToolRunner)
	_, err := NewLocalAcquirer(runner).Acquire(context.Background(), schema.Repository{URL: filepath.Join(t.TempDir(), "nope")}, "", t.TempDir(), SnapshotLimits{})
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)

	_, err = NewLocalAcquirer(runner).Acquire(context.Background(), schema.Repository{}, "", t.TempDir(), SnapshotLimits{})
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
}

func TestLocalAcquirer_ClonesRemote(t *testing.T) {
	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "src")
	repo := schema.Repository{URL: "https://github.com/octo/widgets.git", Branch: "main"}

	runner := new(MockToolRunner)
	runner.On("Run", ctx, "", "git", "clone", "--quiet", "--no-checkout", "--depth", "1", "--branch", "main", repo.URL, dest).
		Return(ToolOutput{}, nil).Once()
	runner.On("Run", ctx, dest, "git", "ls-tree", "-r", "-l", "--full-tree", "HEAD").
		Return(ToolOutput{Stdout: []byte(treeListing)}, nil).Once()
	runner.On("Run", ctx, dest, "git", "checkout", "--quiet", "--force", "--detach", "HEAD").
		Return(ToolOutput{}, nil).Once()
	runner.On("Run", ctx, dest, "git", "rev-parse", "HEAD").
		Return(ToolOutput{Stdout: []byte("deadbeef\n")}, nil).Once()

	commit, err := NewLocalAcquirer(runner).Acquire(ctx, repo, "", dest, SnapshotLimits{})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", commit)
	runner.AssertExpectations(t)
}

func TestLocalAcquirer_ChecksOutCommit(t *testing.T) {
	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "src")
	repo := schema.Repository{URL: "https://github.com/octo/widgets.git"}

	runner := new(MockToolRunner)
	runner.On("Run", ctx, "", "git", "clone", "--quiet", "--no-checkout", repo.URL, dest).Return(ToolOutput{}, nil).Once()
	runner.On("Run", ctx, dest, "git", "ls-tree", "-r", "-l", "--full-tree", "cafe01").
		Return(ToolOutput{Stdout: []byte(treeListing)}, nil).Once()
	runner.On("Run", ctx, dest, "git", "checkout", "--quiet", "--force", "--detach", "cafe01").Return(ToolOutput{}, nil).Once()
	runner.On("Run", ctx, dest, "git", "rev-parse", "HEAD").Return(ToolOutput{Stdout: []byte("cafe01cafe01\n")}, nil).Once()

	commit, err := NewLocalAcquirer(runner).Acquire(ctx, repo, "cafe01", dest, SnapshotLimits{})
	require.NoError(t, err)
	assert.Equal(t, "cafe01cafe01", commit)
	runner.AssertExpectations(t)
}

func TestLocalAcquirer_CloneFailure(t *testing.T) {
	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "src")
	repo := schema.Repository{URL: "https://github.com/octo/missing.git"}

	runner := new(MockToolRunner)
	runner.On("Run", ctx, "", "git", "clone", "--quiet", "--no-checkout", "--depth", "1", repo.URL, dest).
		Return(ToolOutput{ExitCode: 128, Stderr: []byte("repository not found")}, nil)

	_, err := NewLocalAcquirer(runner).Acquire(ctx, repo, "", dest, SnapshotLimits{})
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
	assert.Contains(t, err.Error(), "repository not found")

	runner = new(MockToolRunner)
	runner.On("Run", ctx, "", "git", "clone", "--quiet", "--no-checkout", "--depth", "1", repo.URL, dest).
		Return(ToolOutput{ExitCode: -1}, errors.New("git is not available"))
	_, err = NewLocalAcquirer(runner).Acquire(ctx, repo, "", dest, SnapshotLimits{})
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
}

func TestLocalAcquirer_CopyStopsAtLimits(t *testing.T) {
	src := t.TempDir()
	payload := make([]byte, 1<<20)
	for i := range 20 {
		require.NoError(t, os.WriteFile(filepath.Join(src, fmt.Sprintf("blob%02d.bin", i)), payload, 0o644))
	}

	tests := []struct {
		name   string
		limits SnapshotLimits
		want   string
	}{
		{"size", SnapshotLimits{MaxSizeBytes: 1 << 20}, "larger than 1048576 bytes"},
		{"files", SnapshotLimits{MaxFileCount: 1}, "more than 1 files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "src")
			_, err := NewLocalAcquirer(new(MockToolRunner)).Acquire(context.Background(), schema.Repository{URL: src}, "", dest, tt.limits)
			require.ErrorIs(t, err, ErrSnapshotUnavailable)
			assert.Contains(t, err.Error(), tt.want)
			assert.NotContains(t, err.Error(), "copy ")

			var written int64
			var files int
			require.NoError(t, filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				info, err := d.Info()
				if err != nil {
					return err
				}
				files++
				written += info.Size()
				return nil
			}))
			assert.LessOrEqual(t, written, int64(1<<20))
			assert.LessOrEqual(t, files, 1)
		})
	}
}

func TestLocalAcquirer_CloneOverLimitIsNotCheckedOut(t *testing.T) {
	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "src")
	repo := schema.Repository{URL: "https://github.com/octo/widgets.git"}

	runner := new(MockToolRunner)
	runner.On("Run", ctx, "", "git", "clone", "--quiet", "--no-checkout", "--depth", "1", repo.URL, dest).
		Return(ToolOutput{}, nil).Once()
	runner.On("Run", ctx, dest, "git", "ls-tree", "-r", "-l", "--full-tree", "HEAD").
		Return(ToolOutput{Stdout: []byte(treeListing)}, nil).Once()

	_, err := NewLocalAcquirer(runner).Acquire(ctx, repo, "", dest, SnapshotLimits{MaxSizeBytes: 1024})
	require.ErrorIs(t, err, ErrSnapshotUnavailable)
	assert.Contains(t, err.Error(), "larger than 1024 bytes")
	runner.AssertExpectations(t)
	runner.AssertNotCalled(t, "Run", ctx, dest, "git", "checkout", "--quiet", "--force", "--detach", "HEAD")
}

func TestCheckTreeListing(t *testing.T) {
	// Two blobs totalling 2168 bytes; the symlink and submodule are not counted.
	assert.NoError(t, checkTreeListing([]byte(treeListing), SnapshotLimits{MaxSizeBytes: 2168, MaxFileCount: 2}))
	assert.NoError(t, checkTreeListing([]byte(treeListing), SnapshotLimits{}))
	assert.ErrorIs(t, checkTreeListing([]byte(treeListing), SnapshotLimits{MaxSizeBytes: 2167}), ErrSnapshotUnavailable)
	assert.ErrorIs(t, checkTreeListing([]byte(treeListing), SnapshotLimits{MaxFileCount: 1}), ErrSnapshotUnavailable)

	err := checkTreeListing([]byte("100644 blob abc big\tx.py\n"), SnapshotLimits{})
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
}
