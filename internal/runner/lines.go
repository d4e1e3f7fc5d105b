package runner

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	adberrors "adbconn/internal/errors"
	"adbconn/internal/metrics"
	"adbconn/internal/platform"
	"adbconn/internal/process"
	"adbconn/util"
)

// Lines iterates over the stdout of one child process, in the style of
// bufio.Scanner:
//
//	lines, err := r.Stream(ctx, argv)
//	...
//	defer lines.Close()
//	for lines.Next() {
//		fmt.Println(lines.Text())
//	}
//	if err := lines.Err(); err != nil { ... }
//
// Each line is normalized, stripped of one trailing terminator and
// decoded.  The sequence ends when the child has exited AND its stdout
// is drained.  It cannot be restarted.
//
// Next, Text and Err belong to one goroutine.  Close may be called from
// any goroutine, any number of times.
type Lines struct {
	id      string
	ctx     context.Context
	proc    process.Process
	argv    []string
	profile platform.Profile
	decoder *Decoder
	strict  bool
	log     *util.Logger
	metrics *metrics.Collector

	line  string
	err   error
	ended bool

	closed   atomic.Bool
	mu       sync.Mutex
	finished bool
	code     int
	onFinish []func()
}

func newLines(ctx context.Context, proc process.Process, argv []string, r *Runner) *Lines {
	l := &Lines{
		id:      uuid.NewString(),
		ctx:     ctx,
		proc:    proc,
		argv:    argv,
		profile: r.opts.Profile,
		decoder: r.opts.Decoder,
		strict:  r.opts.StrictExit,
		log:     r.log.Named("stream"),
		metrics: r.opts.Metrics,
	}
	l.metrics.StreamOpened()
	return l
}

// ID identifies the stream in logs.
func (l *Lines) ID() string { return l.id }

// Pid returns the child's process id.
func (l *Lines) Pid() int { return l.proc.Pid() }

// Next advances to the next line.  It returns false once the child has
// exited and its output is exhausted, after an error, or after Close.
func (l *Lines) Next() bool {
	if l.ended {
		return false
	}
	for {
		if l.closed.Load() {
			l.ended = true
			return false
		}
		raw, err := l.proc.ReadLine()
		if len(raw) > 0 {
			if l.closed.Load() {
				l.ended = true
				return false
			}
			text, derr := l.decode(raw)
			if derr != nil {
				l.fail(derr)
				return false
			}
			l.line = text
			l.metrics.LineStreamed()
			return true
		}
		if err != nil && err != io.EOF {
			l.fail(adberrors.Wrap("read", l.argv[0], err))
			return false
		}
		// Nothing to read: either the child is quiet or it is done.
		if code, exited := l.proc.Poll(); exited {
			l.end(code)
			return false
		}
	}
}

// Text returns the line produced by the last successful Next.
func (l *Lines) Text() string { return l.line }

// Err returns the first error hit while iterating.  A normal end of the
// sequence and an explicit Close are not errors.
func (l *Lines) Err() error { return l.err }

// ExitCode returns the child's exit code once the sequence has ended
// naturally, and -1 before that or after Close.
func (l *Lines) ExitCode() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.finished {
		return -1
	}
	return l.code
}

// Done reports whether the stream has finished (drained or closed).
func (l *Lines) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.finished
}

// Close terminates the child if it is still running.  It is safe to
// call at any time and more than once.
func (l *Lines) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if l.Done() {
		return nil
	}
	err := l.proc.Kill()
	l.log.Verbose("stream %s closed (pid %d)", l.id, l.proc.Pid())
	l.finish(-1)
	return err
}

// OnFinish registers fn to run once the stream has finished.  If it
// already has, fn runs immediately.
func (l *Lines) OnFinish(fn func()) {
	l.mu.Lock()
	if !l.finished {
		l.onFinish = append(l.onFinish, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	fn()
}

func (l *Lines) decode(raw []byte) (string, error) {
	b := TrimTerminator(l.profile.Normalize(raw))
	return l.decoder.Decode(callName(l.argv), b)
}

func (l *Lines) end(code int) {
	l.ended = true
	switch {
	case l.ctx.Err() != nil:
		l.err = l.ctx.Err()
	case code != 0 && l.strict:
		l.err = &adberrors.ExitError{Argv: l.argv, Code: code}
	}
	if code != 0 {
		l.log.Verbose("stream %s: exit status %d", l.id, code)
	}
	l.finish(code)
}

func (l *Lines) fail(err error) {
	l.ended = true
	l.err = err
	l.metrics.RecordError(err.Error())
	_ = l.proc.Kill()
	l.finish(-1)
}

func (l *Lines) finish(code int) {
	l.mu.Lock()
	if l.finished {
		l.mu.Unlock()
		return
	}
	l.finished = true
	l.code = code
	hooks := l.onFinish
	l.onFinish = nil
	l.mu.Unlock()

	l.metrics.StreamClosed()
	for _, fn := range hooks {
		fn()
	}
}
