// Package adb runs the Android Debug Bridge binary on behalf of a host
// application.
//
// A Conn is created once: it resolves the binary, probes what the client
// and device support, and fixes the platform profile.  After that every
// call builds a fresh argument vector and either runs it to completion
// or streams its stdout line by line.  A Conn is safe for concurrent use.
//
//	conn, err := adb.New(ctx, adb.WithSerial("emulator-5554"))
//	if err != nil {
//		return err
//	}
//	defer conn.Kill(context.Background())
//
//	id, err := conn.Shell(ctx, "id", false)
package adb

import (
	"context"
	"fmt"

	"adbconn/internal/capability"
	"adbconn/internal/core"
	"adbconn/internal/metrics"
	"adbconn/internal/platform"
	"adbconn/internal/process"
	"adbconn/internal/runner"
	"adbconn/internal/session"
	"adbconn/util"
)

// Capabilities is what the probe found out about the client and device.
type Capabilities = capability.Capabilities

// Lines is a live stream of output lines.  See Conn.Lines.
type Lines = runner.Lines

// Mode selects the argument vector shape.
type Mode = core.Mode

const (
	Direct         = core.Direct
	Shell          = core.Shell
	StreamingShell = core.StreamingShell
)

// Conn is one long-lived connection to adb.  Its binary, capabilities
// and platform profile never change after New returns.
type Conn struct {
	binary  string
	serial  string
	caps    Capabilities
	profile platform.Profile

	runner  *runner.Runner
	session *session.Session
	log     *util.Logger
	metrics *metrics.Collector
}

// New resolves the binary, probes it and returns a ready Conn.  A
// missing binary or one that cannot be spawned is an error; a device
// that does not answer the probe is not.
func New(ctx context.Context, opts ...Option) (*Conn, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		log = util.Discard()
	}
	profile := platform.Current()
	if o.profile != nil {
		profile = *o.profile
	}
	sp := o.spawner
	if sp == nil {
		sp = process.NewExec(log)
	}

	bin, err := ResolveBinary(o.binary)
	if err != nil {
		return nil, err
	}
	decoder, err := runner.NewDecoder(o.encoding)
	if err != nil {
		return nil, err
	}

	var caps Capabilities
	if o.caps != nil {
		caps = *o.caps
	} else {
		prober := &capability.Prober{Spawner: sp, Binary: bin, Serial: o.serial, Profile: profile, Logger: log}
		if caps, err = prober.Probe(ctx); err != nil {
			return nil, err
		}
	}
	if o.captureMode != nil {
		caps.UsesCaptureMode = *o.captureMode
	}
	if o.execOut != nil {
		caps.UsesExecOut = *o.execOut
	}

	r := runner.New(sp, runner.Options{
		Profile:     profile,
		Strategy:    core.StrategyFor(caps.UsesCaptureMode),
		Decoder:     decoder,
		StrictExit:  o.strictExit,
		TrimNewline: o.trimNewline,
		Logger:      log,
		Metrics:     o.metrics,
	})

	c := &Conn{
		binary:  bin,
		serial:  o.serial,
		caps:    caps,
		profile: profile,
		runner:  r,
		session: session.New(r, session.Options{Binary: bin, KillServer: o.killServer, Logger: log}),
		log:     log.Named("adb"),
		metrics: o.metrics,
	}
	c.log.Verbose("using %s (%s, %s)", bin, caps, r.Strategy())
	return c, nil
}

// Binary returns the absolute path of the adb binary.
func (c *Conn) Binary() string { return c.binary }

// Serial returns the targeted device serial, or "".
func (c *Conn) Serial() string { return c.serial }

// Capabilities returns the resolved capabilities.
func (c *Conn) Capabilities() Capabilities { return c.caps }

// Profile returns the platform profile.
func (c *Conn) Profile() platform.Profile { return c.profile }

// Metrics returns the collector passed to WithMetrics, or nil.
func (c *Conn) Metrics() *metrics.Collector { return c.metrics }

// Command returns the argument vector a call of the given mode would
// run, without running it.
func (c *Conn) Command(mode Mode, su bool, args ...string) []string {
	return core.Build(core.Request{
		Mode:    mode,
		Binary:  c.binary,
		Serial:  c.serial,
		Args:    args,
		Su:      su,
		ExecOut: c.caps.UsesExecOut,
	})
}

// Invocation returns the full process description of a call, including
// where its output streams go.
func (c *Conn) Invocation(mode Mode, su bool, args ...string) process.Invocation {
	argv := c.Command(mode, su, args...)
	if mode == StreamingShell {
		return core.StreamMode.Invocation(argv, c.profile.Spawn)
	}
	return c.runner.Strategy().Invocation(argv, c.profile.Spawn)
}

// Kill closes every stream still running and, with WithKillServer, stops
// the adb server.  It never fails and may be called any number of times.
func (c *Conn) Kill(ctx context.Context) {
	c.session.Reap(ctx)
}

func (c *Conn) String() string {
	if c.serial == "" {
		return c.binary
	}
	return fmt.Sprintf("%s -s %s", c.binary, c.serial)
}
