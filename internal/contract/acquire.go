package contract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nishalpattan/code-review-analyzer/schema"
)

// SnapshotLimits bound what an acquired tree may hold. A bound that is not
// positive is not enforced.
type SnapshotLimits struct {
	MaxSizeBytes int64
	MaxFileCount int
}

// Check returns an ErrSnapshotUnavailable error once files or size exceed the limits.
func (l SnapshotLimits) Check(files int, size int64) error {
	if l.MaxFileCount > 0 && files > l.MaxFileCount {
		return SnapshotErrorf("snapshot has more than %d files", l.MaxFileCount)
	}
	if l.MaxSizeBytes > 0 && size > l.MaxSizeBytes {
		return SnapshotErrorf("snapshot is larger than %d bytes", l.MaxSizeBytes)
	}
	return nil
}

// LocalAcquirer implements the Acquirer interface. Remote repositories are
// shallow-cloned with git, local directories are copied. Both stop before
// writing a tree that exceeds the limits.
type LocalAcquirer struct {
	runner ToolRunner
}

var _ Acquirer = &LocalAcquirer{} // Compile-time check

// NewLocalAcquirer creates an acquirer that drives git through the given runner.
func NewLocalAcquirer(runner ToolRunner) *LocalAcquirer {
	return &LocalAcquirer{runner: runner}
}

// Acquire implements the Acquirer interface.
func (a *LocalAcquirer) Acquire(ctx context.Context, repo schema.Repository, commit string, dest string, limits SnapshotLimits) (string, error) {
	if repo.URL == "" {
		return "", SnapshotErrorf("repository %d has no location", repo.ID)
	}

	if schema.IsRemoteLocation(repo.URL) || commit != "" {
		if err := a.clone(ctx, repo, commit, dest, limits); err != nil {
			return "", err
		}
		return a.resolveHead(ctx, dest, commit), nil
	}

	info, err := os.Stat(repo.URL)
	if err != nil {
		return "", SnapshotErrorf("cannot read %s: %v", repo.URL, err)
	}
	if !info.IsDir() {
		return "", SnapshotErrorf("%s is not a directory", repo.URL)
	}
	if err := copyTree(ctx, repo.URL, dest, limits); err != nil {
		if errors.Is(err, ErrSnapshotUnavailable) {
			return "", err
		}
		return "", SnapshotErrorf("copy %s: %v", repo.URL, err)
	}
	return a.resolveHead(ctx, repo.URL, ""), nil
}

// clone fetches the repository into dest without a work tree, checks the size
// of the tree to analyze and only then checks it out.
func (a *LocalAcquirer) clone(ctx context.Context, repo schema.Repository, commit string, dest string, limits SnapshotLimits) error {
	args := []string{"clone", "--quiet", "--no-checkout"}
	if commit == "" {
		args = append(args, "--depth", "1")
	}
	if repo.Branch != "" {
		args = append(args, "--branch", repo.Branch)
	}
	args = append(args, repo.URL, dest)
	if err := a.git(ctx, "", args...); err != nil {
		return err
	}

	rev := commit
	if rev == "" {
		rev = "HEAD"
	}
	listing, err := a.gitOutput(ctx, dest, "ls-tree", "-r", "-l", "--full-tree", rev)
	if err != nil {
		return err
	}
	if err := checkTreeListing(listing, limits); err != nil {
		return err
	}
	return a.git(ctx, dest, "checkout", "--quiet", "--force", "--detach", rev)
}

// checkTreeListing applies the limits to the output of git ls-tree -r -l.
// Symlinks and submodules are not copied into a snapshot, so they do not count.
func checkTreeListing(listing []byte, limits SnapshotLimits) error {
	var (
		files int
		size  int64
	)
	for line := range strings.Lines(string(listing)) {
		meta, _, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta) // mode, type, object, size
		if len(fields) != 4 || fields[1] != "blob" || fields[0] == "120000" {
			continue
		}
		n, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return SnapshotErrorf("unexpected git ls-tree line %q", strings.TrimSpace(line))
		}
		files++
		size += n
		if err := limits.Check(files, size); err != nil {
			return err
		}
	}
	return nil
}

func (a *LocalAcquirer) git(ctx context.Context, dir string, args ...string) error {
	_, err := a.gitOutput(ctx, dir, args...)
	return err
}

// gitOutput runs git and returns its stdout. Failures match ErrSnapshotUnavailable,
// or ErrCancelled when ctx ended.
func (a *LocalAcquirer) gitOutput(ctx context.Context, dir string, args ...string) ([]byte, error) {
	out, err := a.runner.Run(ctx, dir, "git", args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: git %s interrupted: %v", ErrCancelled, args[0], err)
		}
		return nil, SnapshotErrorf("git %s: %v", args[0], err)
	}
	if out.ExitCode != 0 {
		return nil, SnapshotErrorf("git %s failed: %s", args[0], strings.TrimSpace(string(out.Stderr)))
	}
	return out.Stdout, nil
}

// resolveHead returns the commit checked out in dir, or fallback when dir is not a git work tree.
func (a *LocalAcquirer) resolveHead(ctx context.Context, dir string, fallback string) string {
	out, err := a.runner.Run(ctx, dir, "git", "rev-parse", "HEAD")
	if err != nil || out.ExitCode != 0 {
		return fallback
	}
	return strings.TrimSpace(string(out.Stdout))
}

// copyTree copies regular files and directories from src to dest. Symlinks and
// the .git directory are skipped so the copy cannot escape the workspace. Every
// file is checked against the limits before it is written.
func copyTree(ctx context.Context, src, dest string, limits SnapshotLimits) error {
	var (
		files int
		size  int64
	)
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.IsDir():
			if d.Name() == ".git" && path != src {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			files++
			size += info.Size()
			if err := limits.Check(files, size); err != nil {
				return err
			}
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
