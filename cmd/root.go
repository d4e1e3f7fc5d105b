// Package cmd wires up the CLI flags and dispatches to the adb package.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"adbconn/adb"
	"adbconn/config"
	adberrors "adbconn/internal/errors"
	"adbconn/internal/metrics"
	"adbconn/internal/retry"
	"adbconn/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X adbconn/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs one adbconn command.
func Execute(ctx context.Context, args []string) error {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	return a.execute(ctx, args)
}

// app carries the output streams and any extra connection options, so
// tests can run commands against a fake spawner.
type app struct {
	stdout io.Writer
	stderr io.Writer
	extra  []adb.Option
}

func (a *app) execute(ctx context.Context, args []string) error {
	fl := config.Config{}
	fs := flag.NewFlagSet("adbconn", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.SetInterspersed(false) // everything after the command belongs to adb

	// ── adb ──────────────────────────────────────────────────────
	fs.StringVar(&fl.ADBPath, "adb", "", "Path to the adb binary (default: adb on PATH)")
	fs.StringVarP(&fl.Serial, "serial", "s", "", "Target device serial")

	// ── capabilities ─────────────────────────────────────────────
	var capture, execOut string
	fs.StringVar(&capture, "capture", "auto", "Single capture request: auto, on or off")
	fs.StringVar(&execOut, "exec-out", "auto", "Use exec-out instead of shell: auto, on or off")

	// ── calls ────────────────────────────────────────────────────
	fs.BoolVar(&fl.Su, "su", false, "Run the remote command through su -c")
	fs.BoolVarP(&fl.Binary, "binary", "b", false, "Write raw output bytes instead of text")
	fs.BoolVar(&fl.StrictExit, "strict-exit", false, "Fail when adb exits non-zero")
	fs.BoolVar(&fl.TrimNewline, "trim", false, "Strip one trailing newline from text output")
	fs.StringVar(&fl.Encoding, "encoding", config.DefaultEncoding, "Character set of device output")
	fs.BoolVar(&fl.KillServer, "kill-server", false, "Stop the adb server on exit")
	fs.DurationVar(&fl.WaitDevice, "wait-device", 0, "Wait up to this long for the device (e.g. 30s)")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&fl.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	var quiet bool
	fs.BoolVarP(&quiet, "quiet", "q", false, "Suppress warnings")
	fs.BoolVar(&fl.Stats, "stats", false, "Print connection metrics as JSON on exit")
	fs.BoolVarP(&fl.Force, "force", "f", false, "Write binary output even to a terminal")
	fs.BoolVarP(&fl.DryRun, "dry-run", "n", false, "Print the adb invocation without running it")

	var configPath string
	fs.StringVar(&configPath, "config", "", "YAML config file")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { a.printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		a.printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(a.stdout, "adbconn %s\n", version)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("command required (use --help for usage)")
	}
	c, ok := lookup(rest[0])
	if !ok {
		return fmt.Errorf("unknown command %q (use --help for usage)", rest[0])
	}
	cmdArgs := rest[1:]
	if err := c.check(cmdArgs); err != nil {
		return err
	}

	// ── assemble config: defaults < file < env < flags ───────────
	cfg := config.Defaults()
	if configPath != "" {
		if err := config.LoadFile(cfg, configPath); err != nil {
			return err
		}
	}
	config.LoadFromEnv(cfg)
	if err := overlayFlags(cfg, &fl, fs, capture, execOut); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	verbosity := cfg.Verbose
	if quiet {
		verbosity = 0
	}
	logger := util.NewLogger(verbosity)
	logger.SetOutput(a.stderr)

	var m *metrics.Collector
	if cfg.Stats {
		m = metrics.New()
		defer func() { fmt.Fprintln(a.stderr, m.JSON()) }()
	}

	opts := a.connOptions(cfg, logger, m)
	if cfg.DryRun {
		return a.dryRun(ctx, c, cfg, cmdArgs, opts)
	}

	if cfg.WaitDevice > 0 {
		if err := waitForDevice(ctx, cfg.WaitDevice, logger, opts); err != nil {
			return err
		}
	}

	conn, err := adb.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer conn.Kill(context.Background())

	return c.run(ctx, &env{app: a, conn: conn, cfg: cfg}, cmdArgs)
}

// overlayFlags copies every flag the user actually set onto cfg.
func overlayFlags(cfg, fl *config.Config, fs *flag.FlagSet, capture, execOut string) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "adb":
			cfg.ADBPath = fl.ADBPath
		case "serial":
			cfg.Serial = fl.Serial
		case "capture":
			cfg.Capture, err = parseToggleFlag("capture", capture, err)
		case "exec-out":
			cfg.ExecOut, err = parseToggleFlag("exec-out", execOut, err)
		case "su":
			cfg.Su = fl.Su
		case "binary":
			cfg.Binary = fl.Binary
		case "strict-exit":
			cfg.StrictExit = fl.StrictExit
		case "trim":
			cfg.TrimNewline = fl.TrimNewline
		case "encoding":
			cfg.Encoding = fl.Encoding
		case "kill-server":
			cfg.KillServer = fl.KillServer
		case "wait-device":
			cfg.WaitDevice = fl.WaitDevice
		case "verbose":
			cfg.Verbose = fl.Verbose
		case "stats":
			cfg.Stats = fl.Stats
		case "force":
			cfg.Force = fl.Force
		case "dry-run":
			cfg.DryRun = fl.DryRun
		}
	})
	return err
}

func parseToggleFlag(name, value string, prev error) (config.Toggle, error) {
	t, err := config.ParseToggle(value)
	if err != nil {
		return config.Toggle(value), &adberrors.ConfigError{
			Field:   name,
			Value:   value,
			Message: "must be auto, on or off",
			Hint:    fmt.Sprintf("use --%s=auto to let the probe decide", name),
		}
	}
	return t, prev
}

func (a *app) connOptions(cfg *config.Config, logger *util.Logger, m *metrics.Collector) []adb.Option {
	opts := []adb.Option{
		adb.WithBinary(cfg.ADBPath),
		adb.WithSerial(cfg.Serial),
		adb.WithStrictExit(cfg.StrictExit),
		adb.WithTrimNewline(cfg.TrimNewline),
		adb.WithEncoding(cfg.Encoding),
		adb.WithKillServer(cfg.KillServer),
		adb.WithLogger(logger),
		adb.WithMetrics(m),
	}
	if v := cfg.Capture.Override(); v != nil {
		opts = append(opts, adb.WithCaptureMode(*v))
	}
	if v := cfg.ExecOut.Override(); v != nil {
		opts = append(opts, adb.WithExecOut(*v))
	}
	return append(opts, a.extra...)
}

// dryRun prints the invocation without probing or spawning anything.
// Capabilities left on auto are reported as their conservative value.
func (a *app) dryRun(ctx context.Context, c *command, cfg *config.Config, args []string, opts []adb.Option) error {
	caps := adb.Capabilities{UsesCaptureMode: true}
	opts = append([]adb.Option{adb.WithCapabilities(caps)}, opts...)
	conn, err := adb.New(ctx, opts...)
	if err != nil {
		return err
	}
	inv := conn.Invocation(c.mode, cfg.Su && c.su, c.argv(args)...)
	fmt.Fprintf(a.stdout, "%s\n", quoteArgv(inv.Argv))
	fmt.Fprintf(a.stdout, "# stdout=%s stderr=%s\n", inv.Stdout, inv.Stderr)
	return nil
}

// waitBackoff is the get-state polling policy, paced by the config
// defaults.
func waitBackoff(log *util.Logger) *retry.Backoff {
	b := retry.DefaultBackoff()
	b.InitialDelay = config.DefaultWaitInitialDelay
	b.MaxDelay = config.DefaultWaitMaxDelay
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Verbose("attempt %d: %v; retrying in %s", attempt, err, wait.Round(time.Millisecond))
	}
	return b
}

// waitForDevice polls get-state until the device is online.  It uses
// its own connection in capture mode so the probe that follows runs
// against a reachable device.
func waitForDevice(ctx context.Context, timeout time.Duration, logger *util.Logger, opts []adb.Option) error {
	opts = append([]adb.Option{adb.WithCapabilities(adb.Capabilities{UsesCaptureMode: true})}, opts...)
	opts = append(opts, adb.WithStrictExit(false))
	conn, err := adb.New(ctx, opts...)
	if err != nil {
		return err
	}

	log := logger.Named("wait")
	b := waitBackoff(log)
	return b.Within(ctx, timeout, func(_ int) error {
		state, err := conn.State(ctx)
		switch {
		case errors.Is(err, adberrors.ErrNoDevice):
			return err
		case err != nil:
			return retry.Permanent(err)
		case state != "device":
			return fmt.Errorf("device is %s", state)
		}
		log.Verbose("device online")
		return nil
	})
}

func quoteArgv(argv []string) string {
	out := make([]string, len(argv))
	for i, s := range argv {
		if s == "" || strings.ContainsAny(s, " \t'\"\\$&;|<>()*?") {
			s = "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
		}
		out[i] = s
	}
	return strings.Join(out, " ")
}

func (a *app) printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(a.stderr, `adbconn - Android Debug Bridge command runner v%s

Usage:
  adbconn [options] <command> [args...]

Commands:
`, version)
	for _, c := range commands {
		fmt.Fprintf(a.stderr, "  %-28s %s\n", c.name+" "+c.usage, c.help)
	}
	fmt.Fprintf(a.stderr, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(a.stderr, `
Examples:
  adbconn shell id                            Run "id" on the device
  adbconn --su stream find /data -type f      Stream a root listing
  adbconn --exec-out=on -b cat /sdcard/x.db > x.db
  adbconn -n --su shell 'ls /data'            Show the invocation only
  adbconn --wait-device 30s state             Wait for the device
`)
}
