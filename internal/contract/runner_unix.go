//go:build unix

package contract

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the tool in its own process group so that
// cancellation also reaches the workers it forks.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
