package adb

import (
	"adbconn/internal/capability"
	"adbconn/internal/metrics"
	"adbconn/internal/platform"
	"adbconn/internal/process"
	"adbconn/util"
)

// Option configures a Conn.
type Option func(*options)

type options struct {
	binary      string
	serial      string
	caps        *capability.Capabilities
	captureMode *bool
	execOut     *bool
	strictExit  bool
	trimNewline bool
	encoding    string
	killServer  bool
	profile     *platform.Profile
	spawner     process.Spawner
	logger      *util.Logger
	metrics     *metrics.Collector
}

// WithBinary sets the adb binary.  A bare name or relative path is made
// absolute; empty means "adb" from PATH.
func WithBinary(path string) Option {
	return func(o *options) { o.binary = path }
}

// WithSerial targets one device; "-s serial" follows the binary in
// every argument vector.
func WithSerial(serial string) Option {
	return func(o *options) { o.serial = serial }
}

// WithCapabilities skips the probe and uses caps as-is.
func WithCapabilities(caps Capabilities) Option {
	return func(o *options) { o.caps = &caps }
}

// WithCaptureMode overrides the probed capture-mode capability.
func WithCaptureMode(on bool) Option {
	return func(o *options) { o.captureMode = &on }
}

// WithExecOut overrides the probed exec-out capability.
func WithExecOut(on bool) Option {
	return func(o *options) { o.execOut = &on }
}

// WithStrictExit makes a non-zero exit an *errors.ExitError.  Output is
// still returned with the error.
func WithStrictExit(on bool) Option {
	return func(o *options) { o.strictExit = on }
}

// WithTrimNewline strips one trailing line terminator from text results.
func WithTrimNewline(on bool) Option {
	return func(o *options) { o.trimNewline = on }
}

// WithEncoding sets the charset for text results, any IANA name.
func WithEncoding(name string) Option {
	return func(o *options) { o.encoding = name }
}

// WithKillServer makes Kill stop the adb server as well.
func WithKillServer(on bool) Option {
	return func(o *options) { o.killServer = on }
}

// WithProfile replaces the platform profile of the running OS.
func WithProfile(p platform.Profile) Option {
	return func(o *options) { o.profile = &p }
}

// WithSpawner replaces the OS process spawner.
func WithSpawner(sp process.Spawner) Option {
	return func(o *options) { o.spawner = sp }
}

// WithLogger sets the logger; nil discards everything.
func WithLogger(l *util.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records calls, lines and streams in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}
