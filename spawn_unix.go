//go:build !windows

package imgto3d

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// isolateGroup makes cancellation kill the whole process group, so
// grandchildren holding the output pipes die with the connector. The pty
// spawner already starts a new session, which implies a new group.
func isolateGroup(cmd *exec.Cmd, newGroup bool) {
	if newGroup {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}

		return err
	}
}
