package adb

import (
	"context"
	"fmt"
	"strings"

	"adbconn/internal/core"
	adberrors "adbconn/internal/errors"
	"adbconn/internal/listing"
)

// Run runs adb with args and returns its stdout as text:
//
//	[bin, ("su -c"), args...]
//
// A non-zero exit is only an error with WithStrictExit.
func (c *Conn) Run(ctx context.Context, args []string, su bool) (string, error) {
	return c.runner.Text(ctx, c.Command(Direct, su, args...))
}

// RunBinary is Run returning raw stdout.  Only platform line endings
// are normalized.
func (c *Conn) RunBinary(ctx context.Context, args []string, su bool) ([]byte, error) {
	return c.runner.Bytes(ctx, c.Command(Direct, su, args...))
}

// Shell runs command on the device as one argument:
//
//	[bin, shell|exec-out, ("su -c"), command]
func (c *Conn) Shell(ctx context.Context, command string, su bool) (string, error) {
	return c.runner.Text(ctx, c.Command(Shell, su, command))
}

// ShellBinary is Shell returning raw stdout.
func (c *Conn) ShellBinary(ctx context.Context, command string, su bool) ([]byte, error) {
	return c.runner.Bytes(ctx, c.Command(Shell, su, command))
}

// Lines runs command, split on whitespace, and streams its stdout:
//
//	[bin, shell|exec-out, ("su -c"), fields(command)...]
//
// stderr is discarded.  The caller must drain the stream or Close it;
// Kill closes whatever is still running.
func (c *Conn) Lines(ctx context.Context, command string, su bool) (*Lines, error) {
	if len(core.Tokenize(command)) == 0 {
		return nil, adberrors.ErrEmptyCommand
	}
	l, err := c.runner.Stream(ctx, c.Command(StreamingShell, su, command))
	if err != nil {
		return nil, err
	}
	c.session.Track(l)
	return l, nil
}

// Exists reports whether path exists on the device.  ls failing on
// the device is a plain false, also with WithStrictExit.
func (c *Conn) Exists(ctx context.Context, path string, su bool) (bool, error) {
	out, err := c.Shell(ctx, "ls -d "+core.Quote(path), su)
	var xe *adberrors.ExitError
	if adberrors.As(err, &xe) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return listing.Contains(out, path), nil
}

// ReadFile returns the contents of a device file, using exec-out when
// the device supports it so the bytes are not mangled by a pty.
func (c *Conn) ReadFile(ctx context.Context, path string, su bool) ([]byte, error) {
	return c.ShellBinary(ctx, "cat "+core.Quote(path), su)
}

// Pull copies remote to local with "adb pull" and returns adb's report.
func (c *Conn) Pull(ctx context.Context, remote, local string) (string, error) {
	return c.Run(ctx, []string{"pull", remote, local}, false)
}

// State returns the device state ("device", "recovery", ...).  No
// device, or more than one without a serial, is ErrNoDevice.
func (c *Conn) State(ctx context.Context) (string, error) {
	res, err := c.runner.Exec(ctx, c.Command(Direct, false, "get-state"))
	if res == nil {
		return "", err
	}
	state := strings.TrimSpace(string(res.Stdout))
	if res.ExitCode != 0 || state == "" {
		if msg := strings.TrimSpace(string(res.Stderr)); msg != "" {
			return "", fmt.Errorf("%w: %s", adberrors.ErrNoDevice, msg)
		}
		return "", adberrors.ErrNoDevice
	}
	return state, nil
}
