// Package runner executes adb argument vectors: once, capturing the
// output, or as a long-lived child whose stdout is read line by line.
package runner

import (
	"context"
	"strings"

	"adbconn/internal/core"
	adberrors "adbconn/internal/errors"
	"adbconn/internal/metrics"
	"adbconn/internal/platform"
	"adbconn/internal/process"
	"adbconn/util"
)

// Options are fixed when the Runner is created.
type Options struct {
	Profile  platform.Profile
	Strategy core.Strategy // single-shot shape, CaptureMode or PipeMode
	Decoder  *Decoder      // nil means strict UTF-8

	// StrictExit turns a non-zero exit into an *errors.ExitError.  The
	// captured output is still returned alongside it.
	StrictExit bool

	// TrimNewline strips one trailing line terminator from text results.
	TrimNewline bool

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Result is a completed single-shot call.  Stdout is already normalized.
type Result struct {
	Argv     []string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner is safe for concurrent use; it holds no mutable state.
type Runner struct {
	spawner process.Spawner
	opts    Options
	log     *util.Logger
}

// New returns a Runner using sp to spawn children.
func New(sp process.Spawner, opts Options) *Runner {
	if opts.Strategy.Name == "" {
		opts.Strategy = core.CaptureMode
	}
	if opts.Decoder == nil {
		opts.Decoder = &Decoder{name: DefaultEncoding}
	}
	log := opts.Logger
	if log == nil {
		log = util.Discard()
	}
	return &Runner{spawner: sp, opts: opts, log: log.Named("runner")}
}

// Strategy returns the single-shot strategy in use.
func (r *Runner) Strategy() core.Strategy { return r.opts.Strategy }

// Exec runs argv to completion.  A non-zero exit is only an error with
// StrictExit; in that case both the Result and the error are returned.
func (r *Runner) Exec(ctx context.Context, argv []string) (*Result, error) {
	inv := r.opts.Strategy.Invocation(argv, r.opts.Profile.Spawn)
	done, err := r.spawner.Run(ctx, inv)
	if err != nil {
		r.opts.Metrics.RecordError(err.Error())
		return nil, err
	}

	res := &Result{
		Argv:     argv,
		Stdout:   r.opts.Profile.Normalize(done.Stdout),
		Stderr:   done.Stderr,
		ExitCode: done.ExitCode,
	}
	r.opts.Metrics.CommandRun(int64(len(res.Stdout)), res.ExitCode)

	if res.ExitCode != 0 {
		r.log.Verbose("%s: exit status %d", callName(argv), res.ExitCode)
		if r.opts.StrictExit {
			return res, &adberrors.ExitError{Argv: argv, Code: res.ExitCode, Stderr: res.Stderr}
		}
	}
	return res, nil
}

// Bytes runs argv and returns the raw (normalized) stdout.
func (r *Runner) Bytes(ctx context.Context, argv []string) ([]byte, error) {
	res, err := r.Exec(ctx, argv)
	if res == nil {
		return nil, err
	}
	return res.Stdout, err
}

// Text runs argv and returns stdout decoded as text.
func (r *Runner) Text(ctx context.Context, argv []string) (string, error) {
	res, err := r.Exec(ctx, argv)
	if res == nil {
		return "", err
	}
	s, derr := r.opts.Decoder.Decode(callName(argv), res.Stdout)
	if derr != nil {
		r.opts.Metrics.RecordError(derr.Error())
		return "", derr
	}
	if r.opts.TrimNewline {
		s = TrimTerminatorString(s)
	}
	return s, err
}

// Stream spawns argv and returns an iterator over its stdout lines.
// The caller must either drain the iterator or Close it.
func (r *Runner) Stream(ctx context.Context, argv []string) (*Lines, error) {
	inv := core.StreamMode.Invocation(argv, r.opts.Profile.Spawn)
	proc, err := r.spawner.Start(ctx, inv)
	if err != nil {
		r.opts.Metrics.RecordError(err.Error())
		return nil, err
	}
	l := newLines(ctx, proc, argv, r)
	r.log.Verbose("stream %s started: %s (pid %d)", l.ID(), callName(argv), proc.Pid())
	return l, nil
}

// callName is argv without the binary path, used in logs and errors.
func callName(argv []string) string {
	if len(argv) < 2 {
		return strings.Join(argv, " ")
	}
	return strings.Join(argv[1:], " ")
}
