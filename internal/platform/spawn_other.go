//go:build !windows

package platform

import "os/exec"

// Apply is a no-op outside Windows.
func Apply(_ *exec.Cmd, _ *SpawnOptions) {}
