// Package processtest provides a scripted process.Spawner for tests.
//
// Spawner records every Invocation it receives, returns queued results
// for Run and hands out scripted Processes for Start, in the spirit of
// net/http/httptest.
package processtest

import (
	"context"
	"io"
	"sync"

	"adbconn/internal/process"
)

// Running is the Poll script value for "child has not exited yet".
const Running = -1

// Spawner is a fake process.Spawner.  The zero value returns an empty
// successful Completed from Run and an immediately finished Process
// from Start.
type Spawner struct {
	mu sync.Mutex

	runs      []process.Invocation
	starts    []process.Invocation
	results   []*process.Completed
	processes []*Process

	// RunErr and StartErr, when set, are returned instead of a result.
	RunErr   error
	StartErr error

	// RunFunc, when set, computes the Run result from the invocation.
	RunFunc func(inv process.Invocation) (*process.Completed, error)
}

// New returns an empty Spawner.
func New() *Spawner { return &Spawner{} }

// QueueRun appends a result for the next Run call.  Once the queue is
// down to one entry, that entry is reused for every later call.
func (s *Spawner) QueueRun(stdout string, code int) *Spawner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, &process.Completed{Stdout: []byte(stdout), ExitCode: code})
	return s
}

// QueueProcess appends a Process for the next Start call.
func (s *Spawner) QueueProcess(p *Process) *Spawner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processes = append(s.processes, p)
	return s
}

// Run implements process.Spawner.
func (s *Spawner) Run(_ context.Context, inv process.Invocation) (*process.Completed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, inv)
	if s.RunErr != nil {
		return nil, s.RunErr
	}
	if s.RunFunc != nil {
		return s.RunFunc(inv)
	}
	if len(s.results) == 0 {
		return &process.Completed{}, nil
	}
	res := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	cp := *res
	return &cp, nil
}

// Start implements process.Spawner.
func (s *Spawner) Start(_ context.Context, inv process.Invocation) (process.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starts = append(s.starts, inv)
	if s.StartErr != nil {
		return nil, s.StartErr
	}
	if len(s.processes) == 0 {
		return NewProcess(nil, 0), nil
	}
	p := s.processes[0]
	s.processes = s.processes[1:]
	return p, nil
}

// Runs returns every invocation passed to Run, oldest first.
func (s *Spawner) Runs() []process.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]process.Invocation(nil), s.runs...)
}

// LastRun returns the most recent Run invocation.
func (s *Spawner) LastRun() process.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return process.Invocation{}
	}
	return s.runs[len(s.runs)-1]
}

// Starts returns every invocation passed to Start, oldest first.
func (s *Spawner) Starts() []process.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]process.Invocation(nil), s.starts...)
}

// Process is a scripted process.Process.  Reads are returned in order,
// then empty reads with io.EOF.  Polls are returned in order (Running
// means still alive); the last value repeats once the script runs out.
type Process struct {
	mu     sync.Mutex
	reads  [][]byte
	polls  []int
	killed int
	pid    int

	// ReadCalls and PollCalls count how often each method was used.
	ReadCalls int
	PollCalls int
}

// NewProcess returns a Process that yields lines and then exits with
// code once its output is drained.
func NewProcess(lines []string, code int) *Process {
	p := &Process{polls: []int{code}}
	for _, l := range lines {
		p.reads = append(p.reads, []byte(l))
	}
	return p
}

// Script returns a Process with explicit read and poll sequences.  An
// empty string in reads is an empty read that returns no error, as a
// pipe that has produced nothing yet.
func Script(reads []string, polls []int) *Process {
	p := &Process{polls: polls}
	for _, r := range reads {
		p.reads = append(p.reads, []byte(r))
	}
	return p
}

func (p *Process) Pid() int { return p.pid }

func (p *Process) ReadLine() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ReadCalls++
	if p.killed > 0 || len(p.reads) == 0 {
		return nil, io.EOF
	}
	line := p.reads[0]
	p.reads = p.reads[1:]
	return line, nil
}

func (p *Process) Poll() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PollCalls++
	if p.killed > 0 {
		return -1, true
	}
	if len(p.polls) == 0 {
		return 0, true
	}
	code := p.polls[0]
	if len(p.polls) > 1 {
		p.polls = p.polls[1:]
	}
	return code, code != Running
}

func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed++
	return nil
}

// Killed reports how many times Kill was called.
func (p *Process) Killed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

var (
	_ process.Spawner = (*Spawner)(nil)
	_ process.Process = (*Process)(nil)
)
