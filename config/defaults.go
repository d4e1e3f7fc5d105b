package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultEncoding is the charset text output is decoded as.
	DefaultEncoding = "utf-8"

	// DefaultVerbose prints warnings and errors only.
	DefaultVerbose = 1

	// DefaultWaitInitialDelay is the first pause between get-state
	// polls while waiting for a device.
	DefaultWaitInitialDelay = 250 * time.Millisecond

	// DefaultWaitMaxDelay caps the backoff between get-state polls.
	DefaultWaitMaxDelay = 2 * time.Second
)

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		Capture:  Auto,
		ExecOut:  Auto,
		Encoding: DefaultEncoding,
		Verbose:  DefaultVerbose,
	}
}
