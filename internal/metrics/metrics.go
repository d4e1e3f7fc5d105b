// Package metrics provides lightweight, lock-free counters and gauges
// for tracking what an adb connection has done.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one connection.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	commandsTotal atomic.Int64
	nonZeroExits  atomic.Int64
	bytesCaptured atomic.Int64
	streamsActive atomic.Int64
	streamsTotal  atomic.Int64
	linesStreamed atomic.Int64
	errorsTotal   atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastCommand  time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Single-shot commands ─────────────────────────────────────────────

// CommandRun records a completed single-shot command that produced n
// bytes of stdout and exited with code.
func (c *Collector) CommandRun(n int64, code int) {
	if c == nil {
		return
	}
	c.commandsTotal.Add(1)
	c.bytesCaptured.Add(n)
	if code != 0 {
		c.nonZeroExits.Add(1)
	}
	c.mu.Lock()
	c.lastCommand = time.Now()
	c.mu.Unlock()
}

// Commands returns the number of completed single-shot commands.
func (c *Collector) Commands() int64 {
	if c == nil {
		return 0
	}
	return c.commandsTotal.Load()
}

// NonZeroExits returns how many commands exited non-zero.
func (c *Collector) NonZeroExits() int64 {
	if c == nil {
		return 0
	}
	return c.nonZeroExits.Load()
}

// BytesCaptured returns the total stdout bytes captured.
func (c *Collector) BytesCaptured() int64 {
	if c == nil {
		return 0
	}
	return c.bytesCaptured.Load()
}

// ── Streams ──────────────────────────────────────────────────────────

// StreamOpened increments both the active and total stream counters.
func (c *Collector) StreamOpened() {
	if c == nil {
		return
	}
	c.streamsActive.Add(1)
	c.streamsTotal.Add(1)
}

// StreamClosed decrements the active stream counter.
func (c *Collector) StreamClosed() {
	if c == nil {
		return
	}
	c.streamsActive.Add(-1)
}

// LineStreamed records one line yielded by a stream.
func (c *Collector) LineStreamed() {
	if c == nil {
		return
	}
	c.linesStreamed.Add(1)
}

// ActiveStreams returns the number of streams not yet finished.
func (c *Collector) ActiveStreams() int64 {
	if c == nil {
		return 0
	}
	return c.streamsActive.Load()
}

// TotalStreams returns the lifetime stream count.
func (c *Collector) TotalStreams() int64 {
	if c == nil {
		return 0
	}
	return c.streamsTotal.Load()
}

// Lines returns the number of lines streamed.
func (c *Collector) Lines() int64 {
	if c == nil {
		return 0
	}
	return c.linesStreamed.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	Commands         int64  `json:"commands"`
	NonZeroExits     int64  `json:"non_zero_exits"`
	BytesCaptured    int64  `json:"bytes_captured"`
	StreamsActive    int64  `json:"streams_active"`
	StreamsTotal     int64  `json:"streams_total"`
	LinesStreamed    int64  `json:"lines_streamed"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastCommand      string `json:"last_command,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:        time.Since(c.startTime).Truncate(time.Second).String(),
		Commands:      c.commandsTotal.Load(),
		NonZeroExits:  c.nonZeroExits.Load(),
		BytesCaptured: c.bytesCaptured.Load(),
		StreamsActive: c.streamsActive.Load(),
		StreamsTotal:  c.streamsTotal.Load(),
		LinesStreamed: c.linesStreamed.Load(),
		ErrorsTotal:   c.errorsTotal.Load(),
	}
	if !c.lastCommand.IsZero() {
		s.LastCommand = c.lastCommand.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
