//go:build unix

package process

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts a streaming child in its own process group so
// that killing it also takes down anything adb forked.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func killTree(p *os.Process) error {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err == nil {
		return nil
	}
	return p.Kill()
}
