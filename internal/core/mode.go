// Package core maps a requested adb call onto the exact argument vector
// and process shape used to run it.
//
// Architecture layers (bottom → top):
//
//	platform  →  process  →  core  →  runner  →  adb (connection)  →  cmd (CLI)
//
// Everything in this package is pure: no I/O, no logging, no state.
package core

// Mode is the kind of adb call being built.
type Mode int

const (
	// Direct passes the arguments straight to adb: [bin, args...].
	Direct Mode = iota
	// Shell runs one remote command via "shell" or "exec-out".
	Shell
	// StreamingShell is Shell with the command split on whitespace,
	// used for long-running commands whose output is read line by line.
	StreamingShell
)

func (m Mode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Shell:
		return "shell"
	case StreamingShell:
		return "streaming-shell"
	default:
		return "unknown"
	}
}

// Tokens with fixed meaning on the adb command line.
const (
	VerbShell   = "shell"
	VerbExecOut = "exec-out"

	// SuToken is passed as ONE argument; the device shell hands it to
	// su together with the command that follows.
	SuToken = "su -c"
)
