// Package process is the boundary between adbconn and the operating
// system.  Callers describe a child process as an Invocation, an
// explicit argument vector plus where each output stream goes, and a
// Spawner turns it into a running process.  The argument vector is never
// interpreted by a shell.
//
// The Spawner seam keeps the rest of the module testable: the
// processtest package records every Invocation so tests can assert the
// exact shape of each call.
package process

import (
	"context"
	"strings"

	"adbconn/internal/platform"
)

// Target says where a child's output stream is sent.
type Target int

const (
	// Inherit shares the parent's stream (the child's stderr shows up
	// on our stderr).
	Inherit Target = iota
	// Capture collects the stream in memory until the child exits.
	Capture
	// Pipe exposes the stream through an OS pipe read by the caller.
	Pipe
	// Discard sends the stream to the null device.
	Discard
)

func (t Target) String() string {
	switch t {
	case Inherit:
		return "inherit"
	case Capture:
		return "capture"
	case Pipe:
		return "pipe"
	case Discard:
		return "discard"
	default:
		return "unknown"
	}
}

// Invocation fully describes one child process.
type Invocation struct {
	Argv   []string
	Stdout Target
	Stderr Target
	Spawn  *platform.SpawnOptions
}

// Path returns the binary the invocation runs.
func (inv Invocation) Path() string {
	if len(inv.Argv) == 0 {
		return ""
	}
	return inv.Argv[0]
}

func (inv Invocation) String() string {
	return strings.Join(inv.Argv, " ")
}

// Completed is the outcome of a child that ran to completion.  A
// non-zero ExitCode is not an error at this layer.
type Completed struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Spawner starts child processes.
type Spawner interface {
	// Run starts inv and blocks until it exits.  The error is non-nil
	// only when the child could not be spawned or waited for; a child
	// that exits non-zero yields a Completed with its ExitCode.
	Run(ctx context.Context, inv Invocation) (*Completed, error)

	// Start spawns inv and returns immediately.  inv.Stdout must be
	// Pipe.
	Start(ctx context.Context, inv Invocation) (Process, error)
}

// Process is a running child whose stdout is read line by line.
type Process interface {
	// Pid returns the OS process id, or 0 for fakes.
	Pid() int

	// ReadLine returns the next line including its terminator.  At the
	// end of the stream it returns whatever bytes remain (possibly none)
	// and io.EOF.
	ReadLine() ([]byte, error)

	// Poll reports whether the child has exited and, if so, its exit
	// code.
	Poll() (code int, exited bool)

	// Kill terminates the child.  Killing an exited child is a no-op.
	Kill() error
}
