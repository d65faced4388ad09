//go:build !unix

package contract

import "os/exec"

// configureProcessGroup keeps the default kill behavior of exec.CommandContext.
func configureProcessGroup(_ *exec.Cmd) {}
