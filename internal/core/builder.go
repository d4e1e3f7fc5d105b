package core

import "strings"

// Request describes one adb call.
type Request struct {
	Mode    Mode
	Binary  string   // absolute path of the adb binary
	Serial  string   // optional device serial, emitted as "-s <serial>"
	Args    []string // caller arguments; tokenized on whitespace for StreamingShell
	Su      bool     // prefix the remote command with "su -c"
	ExecOut bool     // use "exec-out" instead of "shell"
}

// Build returns the argument vector for req:
//
//	Direct          [bin, ("su -c"), args...]
//	Shell           [bin, shell|exec-out, ("su -c"), args...]
//	StreamingShell  [bin, shell|exec-out, ("su -c"), tokenize(args)...]
//
// When Serial is set, "-s", serial follow the binary.  The result never
// aliases req.Args.
func Build(req Request) []string {
	argv := make([]string, 0, len(req.Args)+5)
	argv = append(argv, req.Binary)
	if req.Serial != "" {
		argv = append(argv, "-s", req.Serial)
	}

	args := req.Args
	switch req.Mode {
	case Shell:
		argv = append(argv, ShellVerb(req.ExecOut))
	case StreamingShell:
		argv = append(argv, ShellVerb(req.ExecOut))
		args = Tokenize(args...)
	}

	if req.Su {
		argv = append(argv, SuToken)
	}
	return append(argv, args...)
}

// ShellVerb returns the adb subcommand used for remote shell calls.
func ShellVerb(execOut bool) string {
	if execOut {
		return VerbExecOut
	}
	return VerbShell
}

// Tokenize splits every part on runs of whitespace and concatenates the
// results.  Quotes are not interpreted.
func Tokenize(parts ...string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, strings.Fields(p)...)
	}
	return out
}

// Quote wraps s in single quotes for the device shell, so that a path
// passed inside a Shell command string stays one word there.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
