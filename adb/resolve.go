package adb

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	adberrors "adbconn/internal/errors"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "adb"

// ResolveBinary returns the absolute path of a usable adb binary.  An
// empty path searches PATH.  Only existence and the executable bit are
// checked; whether the binary really is adb is left to the probe.
func ResolveBinary(path string) (string, error) {
	if path == "" {
		found, err := exec.LookPath(DefaultBinary)
		if err != nil {
			return "", adberrors.Wrap("resolve", DefaultBinary, adberrors.ErrBinaryNotFound)
		}
		path = found
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", adberrors.Wrap("resolve", path, err)
	}
	fi, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		return "", adberrors.Wrap("resolve", abs, adberrors.ErrBinaryNotFound)
	case err != nil:
		return "", adberrors.Wrap("resolve", abs, err)
	case fi.IsDir() || !isExecutable(abs, fi.Mode()):
		return "", adberrors.Wrap("resolve", abs, adberrors.ErrNotExecutable)
	}
	return abs, nil
}

func isExecutable(path string, mode os.FileMode) bool {
	if runtime.GOOS == "windows" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".exe", ".com", ".bat", ".cmd":
			return true
		}
		return false
	}
	return mode&0o111 != 0
}
