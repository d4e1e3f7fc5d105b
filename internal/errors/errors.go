// Package errors provides domain-specific error types for adbconn.
//
// These types carry structured context (operation, binary path, argument
// vector, exit code) so callers can tell a missing binary apart from a
// remote command that merely reported failure.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrBinaryNotFound = errors.New("adb binary not found")
	ErrNotExecutable  = errors.New("adb binary is not executable")
	ErrNoDevice       = errors.New("no device available")
	ErrEmptyCommand   = errors.New("empty command")
)

// ── Structured error types ───────────────────────────────────────────

// ExecError represents a failure to locate or spawn the external binary.
// It is always fatal for the call that produced it.
type ExecError struct {
	Op   string // operation: "resolve", "spawn", "wait", "read"
	Path string // binary path involved
	Err  error  // underlying error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExitError reports that the external tool ran but exited non-zero.
// It is only produced when strict exit checking is enabled.
type ExitError struct {
	Argv   []string
	Code   int
	Stderr []byte
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.Code)
	if s := strings.TrimSpace(string(e.Stderr)); s != "" {
		msg += ": " + s
	}
	return msg
}

// DecodeError reports captured bytes that are not valid text in the
// requested encoding.
type DecodeError struct {
	Call     string // the call whose output failed to decode
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s output as %s: %v", e.Call, e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates an ExecError for the given operation and binary path.
func Wrap(op, path string, err error) *ExecError {
	return &ExecError{Op: op, Path: path, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsFatal reports whether err means the binary itself could not be used,
// as opposed to a remote command that failed or produced odd output.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExecError
	return errors.As(err, &ee)
}

// ExitCode extracts the exit code from an ExitError, or returns -1.
func ExitCode(err error) int {
	var xe *ExitError
	if errors.As(err, &xe) {
		return xe.Code
	}
	return -1
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
