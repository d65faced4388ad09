package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultWaitDelay bounds how long Run waits for output pipes after the process is killed.
const DefaultWaitDelay = 2 * time.Second

// LocalToolRunner implements the ToolRunner interface by executing
// binaries installed on the local machine.
type LocalToolRunner struct {
	WaitDelay time.Duration
}

var _ ToolRunner = &LocalToolRunner{} // Compile-time check

// NewLocalToolRunner creates a new instance of the local tool runner.
func NewLocalToolRunner() *LocalToolRunner {
	return &LocalToolRunner{WaitDelay: DefaultWaitDelay}
}

// LookPath implements the ToolRunner interface.
func (r *LocalToolRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not available on your PATH", ErrToolNotInstalled, name)
	}
	return path, nil
}

// Run implements the ToolRunner interface. When ctx is done the whole process
// group is killed and the context error is returned along with any partial output.
func (r *LocalToolRunner) Run(ctx context.Context, dir string, name string, args ...string) (ToolOutput, error) {
	if _, err := r.LookPath(name); err != nil {
		return ToolOutput{ExitCode: -1}, err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = r.WaitDelay
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := ToolOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("%s failed to run: %w", name, err)
	}
	return out, nil
}
