package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"go.uber.org/zap"
)

// Limits bound what a snapshot may contain before any adapter runs.
type Limits = contract.SnapshotLimits

// LimitsFromConfig returns the snapshot bounds of the configuration.
func LimitsFromConfig(cfg *contract.Config) Limits {
	return Limits{MaxSizeBytes: cfg.MaxRepoSizeBytes, MaxFileCount: cfg.MaxFileCount}
}

// Workspace is the scratch directory of one job. The snapshot is materialized
// under src/ and adapters may use out/ for their own reports.
type Workspace struct {
	Root   string
	SrcDir string
	OutDir string

	once       sync.Once
	releaseErr error
}

// NewWorkspace creates <baseDir>/<jobID> with its src/ and out/ subdirectories.
// The job directory must not exist yet.
func NewWorkspace(baseDir, jobID string) (*Workspace, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	root := filepath.Join(baseDir, jobID)
	if err := os.Mkdir(root, 0o700); err != nil {
		return nil, err
	}
	ws := &Workspace{
		Root:   root,
		SrcDir: filepath.Join(root, "src"),
		OutDir: filepath.Join(root, "out"),
	}
	for _, dir := range []string{ws.SrcDir, ws.OutDir} {
		if err := os.Mkdir(dir, 0o700); err != nil {
			_ = ws.Release()
			return nil, err
		}
	}
	return ws, nil
}

// Materialize acquires the repository into src/, lists its files and enforces the limits.
// The snapshot carries a digest of the listed files so an edited tree at the same
// commit is told apart. Every failure matches contract.ErrSnapshotUnavailable,
// except cancellation.
func (w *Workspace) Materialize(ctx context.Context, acq contract.Acquirer, repo schema.Repository, commit string, limits Limits) (schema.Snapshot, error) {
	resolved, err := acq.Acquire(ctx, repo, commit, w.SrcDir, limits)
	if err != nil {
		if errors.Is(err, contract.ErrSnapshotUnavailable) || errors.Is(err, contract.ErrCancelled) {
			return schema.Snapshot{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return schema.Snapshot{}, ctxErr
		}
		return schema.Snapshot{}, contract.SnapshotErrorf("acquire %s: %v", repo.URL, err)
	}
	if resolved == "" {
		resolved = commit
	}

	snap := schema.Snapshot{RootPath: w.SrcDir, CommitHash: resolved, ScratchDir: w.OutDir}
	err = filepath.WalkDir(w.SrcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		snap.SizeBytes += info.Size()
		snap.FileCount++
		if err := limits.Check(snap.FileCount, snap.SizeBytes); err != nil {
			return err
		}

		rel, err := filepath.Rel(w.SrcDir, path)
		if err != nil {
			return err
		}
		snap.Files = append(snap.Files, filepath.ToSlash(rel))
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, contract.ErrSnapshotUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return schema.Snapshot{}, err
	default:
		return schema.Snapshot{}, contract.SnapshotErrorf("read snapshot: %v", err)
	}

	slices.Sort(snap.Files)
	if snap.ContentDigest, err = digestFiles(ctx, w.SrcDir, snap.Files); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return schema.Snapshot{}, ctxErr
		}
		return schema.Snapshot{}, contract.SnapshotErrorf("read snapshot: %v", err)
	}
	return snap, nil
}

// digestFiles hashes the sorted file list together with each file's content.
func digestFiles(ctx context.Context, root string, files []string) (string, error) {
	h := sha256.New()
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		fh := sha256.New()
		_, err = io.Copy(fh, f)
		_ = f.Close()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00%x\n", rel, fh.Sum(nil))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Release removes the workspace. Only the first call does any work; later calls
// return the first result.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		w.releaseErr = os.RemoveAll(w.Root)
		if w.releaseErr != nil {
			contract.Logger().Warn("could not remove workspace", zap.String("path", w.Root), zap.Error(w.releaseErr))
			return
		}
		contract.Logger().Debug("workspace released", zap.String("path", w.Root))
	})
	return w.releaseErr
}

// SourceTotals counts the Python files of a snapshot and their lines.
func SourceTotals(snap schema.Snapshot) (files, lines int) {
	for _, rel := range snap.Files {
		if !strings.HasSuffix(rel, ".py") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(snap.RootPath, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		files++
		lines += countLines(data)
	}
	return files, lines
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
