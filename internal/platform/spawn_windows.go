//go:build windows

package platform

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// Apply configures cmd according to o.  A nil o leaves cmd untouched.
func Apply(cmd *exec.Cmd, o *SpawnOptions) {
	if o == nil || !o.HideWindow {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
