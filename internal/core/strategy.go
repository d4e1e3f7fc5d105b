package core

import (
	"adbconn/internal/platform"
	"adbconn/internal/process"
)

// Strategy fixes where a child's stdout and stderr go.  It is resolved
// once per connection so every call site runs the same code path.
type Strategy struct {
	Name   string
	Stdout process.Target
	Stderr process.Target
}

var (
	// CaptureMode collects stdout and stderr in one capture request.
	CaptureMode = Strategy{Name: "capture", Stdout: process.Capture, Stderr: process.Capture}

	// PipeMode is the legacy shape: stdout on an explicit pipe, stderr
	// left alone.
	PipeMode = Strategy{Name: "pipe", Stdout: process.Pipe, Stderr: process.Inherit}

	// StreamMode is used for line streaming: stdout on a pipe, stderr
	// discarded so it can never interleave with the lines.
	StreamMode = Strategy{Name: "stream", Stdout: process.Pipe, Stderr: process.Discard}
)

// StrategyFor selects the single-shot strategy.
func StrategyFor(usesCapture bool) Strategy {
	if usesCapture {
		return CaptureMode
	}
	return PipeMode
}

// Invocation applies s to an argument vector.
func (s Strategy) Invocation(argv []string, spawn *platform.SpawnOptions) process.Invocation {
	return process.Invocation{
		Argv:   argv,
		Stdout: s.Stdout,
		Stderr: s.Stderr,
		Spawn:  spawn,
	}
}

func (s Strategy) String() string { return s.Name }
