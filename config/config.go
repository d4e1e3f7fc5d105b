// Package config defines the runtime configuration of adbconn and how it
// is assembled from defaults, a YAML file, the environment and flags.
package config

import (
	"fmt"
	"strings"
	"time"

	adberrors "adbconn/internal/errors"
	"adbconn/internal/runner"
)

// Config holds every tuneable for one adbconn invocation.
type Config struct {
	// ── adb ──────────────────────────────────────────────────────────
	ADBPath string `yaml:"adb"`    // binary; empty searches PATH
	Serial  string `yaml:"serial"` // -s: target device

	// ── Capabilities ─────────────────────────────────────────────────
	Capture Toggle `yaml:"capture"`  // single capture request vs legacy pipe
	ExecOut Toggle `yaml:"exec_out"` // exec-out vs shell

	// ── Calls ────────────────────────────────────────────────────────
	Su          bool          `yaml:"su"`
	StrictExit  bool          `yaml:"strict_exit"`
	TrimNewline bool          `yaml:"trim_newline"`
	Encoding    string        `yaml:"encoding"`
	KillServer  bool          `yaml:"kill_server"` // stop the adb server on exit
	WaitDevice  time.Duration `yaml:"wait_device"` // 0 = do not wait

	// ── Output ───────────────────────────────────────────────────────
	Verbose int  `yaml:"verbose"`
	Stats   bool `yaml:"stats"`

	// Per-invocation switches, never read from a file.
	Binary bool `yaml:"-"`
	Force  bool `yaml:"-"`
	DryRun bool `yaml:"-"`
}

// Toggle is a capability override: auto leaves the probe in charge.
type Toggle string

const (
	Auto Toggle = "auto"
	On   Toggle = "on"
	Off  Toggle = "off"
)

// ParseToggle accepts auto/on/off and the usual boolean spellings.
func ParseToggle(s string) (Toggle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "on", "true", "yes", "1":
		return On, nil
	case "off", "false", "no", "0":
		return Off, nil
	}
	return "", fmt.Errorf("invalid value %q (want auto, on or off)", s)
}

// Override returns nil for auto, else the forced value.
func (t Toggle) Override() *bool {
	var v bool
	switch t {
	case On:
		v = true
	case Off:
		v = false
	default:
		return nil
	}
	return &v
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name string
		val  Toggle
	}{{"capture", c.Capture}, {"exec-out", c.ExecOut}} {
		if _, err := ParseToggle(string(f.val)); err != nil {
			return &adberrors.ConfigError{
				Field:   f.name,
				Value:   string(f.val),
				Message: "must be auto, on or off",
				Hint:    fmt.Sprintf("use --%s=auto to let the probe decide", f.name),
			}
		}
	}

	if _, err := runner.NewDecoder(c.Encoding); err != nil {
		return &adberrors.ConfigError{
			Field:   "encoding",
			Value:   c.Encoding,
			Message: "unknown character set",
			Hint:    "use an IANA name such as utf-8, iso-8859-1 or gbk",
		}
	}

	if c.WaitDevice < 0 {
		return &adberrors.ConfigError{
			Field:   "wait-device",
			Value:   c.WaitDevice,
			Message: "must not be negative",
		}
	}

	if c.Serial != "" && strings.ContainsAny(c.Serial, " \t\r\n") {
		return &adberrors.ConfigError{
			Field:   "serial",
			Value:   c.Serial,
			Message: "must not contain whitespace",
			Hint:    "list serials with: adbconn run devices",
		}
	}

	if c.Binary && c.TrimNewline {
		return &adberrors.ConfigError{
			Field:   "trim",
			Message: "only applies to text output, not --binary",
		}
	}

	return nil
}
