package config

// loader.go - configuration loading from a YAML file and the environment.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (LoadFromEnv)
//   3. Config file  (LoadFile, --config)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML file at path onto cfg.  Keys missing from
// the file keep their current value.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the ADBCONN_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ADBCONN_ADB"); v != "" {
		cfg.ADBPath = v
	}
	if v := os.Getenv("ADBCONN_SERIAL"); v != "" {
		cfg.Serial = v
	} else if v := os.Getenv("ANDROID_SERIAL"); v != "" {
		cfg.Serial = v
	}

	if v := os.Getenv("ADBCONN_CAPTURE"); v != "" {
		cfg.Capture = Toggle(strings.ToLower(v))
	}
	if v := os.Getenv("ADBCONN_EXEC_OUT"); v != "" {
		cfg.ExecOut = Toggle(strings.ToLower(v))
	}

	if envBool("ADBCONN_SU") {
		cfg.Su = true
	}
	if envBool("ADBCONN_STRICT_EXIT") {
		cfg.StrictExit = true
	}
	if envBool("ADBCONN_TRIM") {
		cfg.TrimNewline = true
	}
	if v := os.Getenv("ADBCONN_ENCODING"); v != "" {
		cfg.Encoding = v
	}
	if envBool("ADBCONN_KILL_SERVER") {
		cfg.KillServer = true
	}
	if d, ok := envDuration("ADBCONN_WAIT_DEVICE"); ok {
		cfg.WaitDevice = d
	}

	// Output
	if v := envInt("ADBCONN_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("ADBCONN_STATS") {
		cfg.Stats = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

// envDuration accepts a Go duration ("45s") or plain seconds ("45").
func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, true
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
