package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"adbconn/adb"
	"adbconn/config"
	"adbconn/internal/core"
)

// env is what a command runs against.
type env struct {
	app  *app
	conn *adb.Conn
	cfg  *config.Config
}

type command struct {
	name  string
	usage string
	help  string
	min   int
	max   int // -1 for no limit
	mode  adb.Mode
	su    bool // honours --su

	// argv maps the command line arguments to adb call arguments.
	argv func(args []string) []string
	run  func(ctx context.Context, e *env, args []string) error
}

var commands = []*command{ //nolint:gochecknoglobals
	{
		name: "run", usage: "<adb args...>", help: "Run adb with the given arguments",
		min: 1, max: -1, mode: adb.Direct, su: true,
		argv: func(args []string) []string { return args },
		run:  runDirect,
	},
	{
		name: "shell", usage: "<command...>", help: "Run one command on the device",
		min: 1, max: -1, mode: adb.Shell, su: true,
		argv: joinArgs,
		run:  runShell,
	},
	{
		name: "stream", usage: "<command...>", help: "Run a command and print its output as it arrives",
		min: 1, max: -1, mode: adb.StreamingShell, su: true,
		argv: joinArgs,
		run:  runStream,
	},
	{
		name: "exists", usage: "<path>", help: "Report whether a device path exists",
		min: 1, max: 1, mode: adb.Shell, su: true,
		argv: func(args []string) []string { return []string{"ls -d " + core.Quote(args[0])} },
		run:  runExists,
	},
	{
		name: "cat", usage: "<path>", help: "Write a device file to stdout",
		min: 1, max: 1, mode: adb.Shell, su: true,
		argv: func(args []string) []string { return []string{"cat " + core.Quote(args[0])} },
		run:  runCat,
	},
	{
		name: "pull", usage: "<remote> <local>", help: "Copy a device file to the host",
		min: 2, max: 2, mode: adb.Direct,
		argv: func(args []string) []string { return append([]string{"pull"}, args...) },
		run:  runPull,
	},
	{
		name: "state", usage: "", help: "Print the device state",
		mode: adb.Direct,
		argv: func([]string) []string { return []string{"get-state"} },
		run:  runState,
	},
	{
		name: "probe", usage: "", help: "Print the detected adb capabilities",
		mode: adb.Direct,
		argv: func([]string) []string { return []string{"version"} },
		run:  runProbe,
	},
}

func lookup(name string) (*command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

func (c *command) check(args []string) error {
	switch {
	case len(args) < c.min:
		return fmt.Errorf("%s: missing arguments (usage: adbconn %s %s)", c.name, c.name, c.usage)
	case c.max >= 0 && len(args) > c.max:
		return fmt.Errorf("%s: too many arguments (usage: adbconn %s %s)", c.name, c.name, strings.TrimSpace(c.usage))
	}
	return nil
}

// joinArgs turns the command line remainder into one remote command.
func joinArgs(args []string) []string { return []string{strings.Join(args, " ")} }

// ── handlers ─────────────────────────────────────────────────────────

func runDirect(ctx context.Context, e *env, args []string) error {
	if e.cfg.Binary {
		b, err := e.conn.RunBinary(ctx, args, e.cfg.Su)
		return e.writeBinary(b, err)
	}
	s, err := e.conn.Run(ctx, args, e.cfg.Su)
	return e.writeText(s, err)
}

func runShell(ctx context.Context, e *env, args []string) error {
	command := joinArgs(args)[0]
	if e.cfg.Binary {
		b, err := e.conn.ShellBinary(ctx, command, e.cfg.Su)
		return e.writeBinary(b, err)
	}
	s, err := e.conn.Shell(ctx, command, e.cfg.Su)
	return e.writeText(s, err)
}

func runStream(ctx context.Context, e *env, args []string) error {
	lines, err := e.conn.Lines(ctx, joinArgs(args)[0], e.cfg.Su)
	if err != nil {
		return err
	}
	defer lines.Close()
	for lines.Next() {
		if _, err := fmt.Fprintln(e.app.stdout, lines.Text()); err != nil {
			return err
		}
	}
	return lines.Err()
}

func runExists(ctx context.Context, e *env, args []string) error {
	ok, err := e.conn.Exists(ctx, args[0], e.cfg.Su)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.app.stdout, ok)
	return nil
}

func runCat(ctx context.Context, e *env, args []string) error {
	b, err := e.conn.ReadFile(ctx, args[0], e.cfg.Su)
	return e.writeBinary(b, err)
}

func runPull(ctx context.Context, e *env, args []string) error {
	s, err := e.conn.Pull(ctx, args[0], args[1])
	return e.writeText(s, err)
}

func runState(ctx context.Context, e *env, _ []string) error {
	state, err := e.conn.State(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.app.stdout, state)
	return nil
}

func runProbe(_ context.Context, e *env, _ []string) error {
	caps := e.conn.Capabilities()
	w := e.app.stdout
	fmt.Fprintf(w, "binary:   %s\n", e.conn.Binary())
	fmt.Fprintf(w, "client:   %s\n", orUnknown(caps.ClientVersion))
	fmt.Fprintf(w, "device:   %s\n", orUnknown(caps.DeviceRelease))
	fmt.Fprintf(w, "capture:  %t\n", caps.UsesCaptureMode)
	fmt.Fprintf(w, "exec-out: %t\n", caps.UsesExecOut)
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// ── output ───────────────────────────────────────────────────────────

// writeText prints s even when err is set, since a strict non-zero exit
// still carries the captured output.
func (e *env) writeText(s string, err error) error {
	if s != "" {
		if _, werr := io.WriteString(e.app.stdout, s); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func (e *env) writeBinary(b []byte, err error) error {
	if len(b) > 0 {
		if !e.cfg.Force && isTerminal(e.app.stdout) {
			return fmt.Errorf("refusing to write binary output to a terminal (use --force or redirect stdout)")
		}
		if _, werr := e.app.stdout.Write(b); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
