//go:build unix

package api

import (
	"os/exec"
	"syscall"
)

// startGroup puts the CLI in its own process group so that cancellation also
// reaches the tools it spawns; they inherit stdout and would hold it open.
func startGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return killGroup(cmd) }
}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
