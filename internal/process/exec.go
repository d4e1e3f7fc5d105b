package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	adberrors "adbconn/internal/errors"
	"adbconn/internal/platform"
	"adbconn/util"
)

// readBufSize is the line reader buffer for streaming children.
const readBufSize = 32 * 1024

// Exec spawns real child processes via os/exec.
type Exec struct {
	Logger *util.Logger
}

// NewExec returns an OS-backed Spawner.
func NewExec(logger *util.Logger) *Exec {
	if logger == nil {
		logger = util.Discard()
	}
	return &Exec{Logger: logger}
}

// Run starts inv, waits for it and returns what it wrote.
func (e *Exec) Run(ctx context.Context, inv Invocation) (*Completed, error) {
	cmd, err := e.command(ctx, inv)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	var pipe io.ReadCloser

	switch inv.Stdout {
	case Capture:
		cmd.Stdout = &stdout
	case Pipe:
		if pipe, err = cmd.StdoutPipe(); err != nil {
			return nil, adberrors.Wrap("spawn", inv.Path(), err)
		}
	case Inherit:
		cmd.Stdout = os.Stdout
	}
	switch inv.Stderr {
	case Capture, Pipe:
		cmd.Stderr = &stderr
	case Inherit:
		cmd.Stderr = os.Stderr
	}

	e.Logger.Debug("spawn: %s (stdout=%s stderr=%s)", cmd.String(), inv.Stdout, inv.Stderr)

	if err := cmd.Start(); err != nil {
		return nil, spawnError(inv.Path(), err)
	}

	var readErr error
	if pipe != nil {
		// Drain before Wait: Wait closes the pipe.
		_, readErr = stdout.ReadFrom(pipe)
	}
	waitErr := cmd.Wait()

	res := &Completed{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() != nil {
		return res, fmt.Errorf("%s: %w", inv, ctx.Err())
	}
	if waitErr != nil {
		var xe *exec.ExitError
		if !errors.As(waitErr, &xe) {
			return res, adberrors.Wrap("wait", inv.Path(), waitErr)
		}
	}
	if readErr != nil {
		return res, adberrors.Wrap("read", inv.Path(), readErr)
	}
	return res, nil
}

// Start spawns inv with its stdout on a pipe and returns the live child.
func (e *Exec) Start(ctx context.Context, inv Invocation) (Process, error) {
	if inv.Stdout != Pipe {
		return nil, fmt.Errorf("start %s: stdout must be a pipe, got %s", inv.Path(), inv.Stdout)
	}
	cmd, err := e.command(ctx, inv)
	if err != nil {
		return nil, err
	}
	setProcessGroup(cmd)

	// The pipe is ours rather than cmd.StdoutPipe so that Wait, which runs
	// as soon as the child starts, never closes it under a pending read.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, adberrors.Wrap("spawn", inv.Path(), err)
	}
	cmd.Stdout = pw
	if inv.Stderr == Inherit {
		cmd.Stderr = os.Stderr
	}

	e.Logger.Debug("start: %s (stdout=%s stderr=%s)", cmd.String(), inv.Stdout, inv.Stderr)

	err = cmd.Start()
	pw.Close()
	if err != nil {
		pr.Close()
		return nil, spawnError(inv.Path(), err)
	}
	p := &osProcess{
		cmd:    cmd,
		stdout: pr,
		reader: bufio.NewReaderSize(pr, readBufSize),
		done:   make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

func (e *Exec) command(ctx context.Context, inv Invocation) (*exec.Cmd, error) {
	if len(inv.Argv) == 0 {
		return nil, adberrors.ErrEmptyCommand
	}
	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	platform.Apply(cmd, inv.Spawn)
	return cmd, nil
}

// spawnError classifies a Start failure, tagging missing binaries.
func spawnError(path string, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %v", adberrors.ErrBinaryNotFound, err)
	}
	return adberrors.Wrap("spawn", path, err)
}

// pollWait bounds how long Poll lingers on a child whose stdout has
// already hit EOF, so a caller polling in a loop does not spin.
const pollWait = 10 * time.Millisecond

// osProcess is a started *exec.Cmd with a buffered stdout reader. A
// goroutine reaps the child as soon as it exits and closes done.
type osProcess struct {
	cmd    *exec.Cmd
	stdout *os.File
	reader *bufio.Reader

	eof       atomic.Bool
	done      chan struct{}
	code      int // valid once done is closed
	closeOnce sync.Once
}

func (p *osProcess) Pid() int { return p.cmd.Process.Pid }

func (p *osProcess) ReadLine() ([]byte, error) {
	line, err := p.reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, fs.ErrClosed) {
			err = io.EOF
		}
		if err == io.EOF {
			p.eof.Store(true)
			p.closeStdout()
		}
	}
	return line, err
}

// Poll never blocks for longer than pollWait.
func (p *osProcess) Poll() (int, bool) {
	select {
	case <-p.done:
		return p.code, true
	default:
	}
	if !p.eof.Load() {
		return 0, false
	}
	select {
	case <-p.done:
		return p.code, true
	case <-time.After(pollWait):
		return 0, false
	}
}

// Kill terminates the child and its group, then waits for it to be reaped.
// A pending ReadLine returns io.EOF once Kill returns.
func (p *osProcess) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	err := killTree(p.cmd.Process)
	<-p.done
	p.closeStdout()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (p *osProcess) wait() {
	_ = p.cmd.Wait() // exit status is read from ProcessState
	if p.cmd.ProcessState != nil {
		p.code = p.cmd.ProcessState.ExitCode()
	}
	close(p.done)
}

func (p *osProcess) closeStdout() {
	p.closeOnce.Do(func() { _ = p.stdout.Close() })
}
