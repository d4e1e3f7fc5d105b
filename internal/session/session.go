// Package session tracks the child processes one connection has left
// running and tears them down on request.
//
// A Session does not own the streams it tracks: callers still drain or
// Close them.  Reap is the backstop for streams that were abandoned
// mid-iteration and for the adb server itself.
package session

import (
	"context"
	"sync"

	"adbconn/internal/core"
	"adbconn/internal/runner"
	"adbconn/util"
)

// Options configure teardown.
type Options struct {
	Binary string // adb binary path, used for kill-server

	// KillServer also stops the adb server during Reap, so that a later
	// connection starts from a fresh server.
	KillServer bool

	Logger *util.Logger
}

// Session is the registry of live streams for one connection.
type Session struct {
	runner *runner.Runner
	opts   Options
	log    *util.Logger

	mu      sync.Mutex
	streams map[string]*runner.Lines
}

// New returns an empty Session.  r runs kill-server when requested.
func New(r *runner.Runner, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = util.Discard()
	}
	return &Session{
		runner:  r,
		opts:    opts,
		log:     log.Named("session"),
		streams: make(map[string]*runner.Lines),
	}
}

// Track registers l until it finishes.
func (s *Session) Track(l *runner.Lines) {
	id := l.ID()
	s.mu.Lock()
	s.streams[id] = l
	s.mu.Unlock()

	l.OnFinish(func() { s.untrack(id) })
}

// Live returns the number of tracked streams that have not finished.
func (s *Session) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Reap closes every live stream and, with KillServer, stops the adb
// server.  Failures are logged and never returned.  It is safe to call
// any number of times, including when nothing is running.
func (s *Session) Reap(ctx context.Context) {
	s.mu.Lock()
	live := make([]*runner.Lines, 0, len(s.streams))
	for _, l := range s.streams {
		live = append(live, l)
	}
	s.mu.Unlock()

	for _, l := range live {
		if err := l.Close(); err != nil {
			s.log.Warn("kill stream %s (pid %d): %v", l.ID(), l.Pid(), err)
			continue
		}
		s.log.Verbose("killed stream %s (pid %d)", l.ID(), l.Pid())
	}

	if !s.opts.KillServer || s.runner == nil {
		return
	}
	argv := core.Build(core.Request{Mode: core.Direct, Binary: s.opts.Binary, Args: []string{"kill-server"}})
	if _, err := s.runner.Exec(ctx, argv); err != nil {
		s.log.Warn("kill-server: %v", err)
		return
	}
	s.log.Verbose("adb server stopped")
}

func (s *Session) untrack(id string) {
	s.mu.Lock()
	delete(s.streams, id)
	s.mu.Unlock()
}
