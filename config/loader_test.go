package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Strings(t *testing.T) {
	t.Setenv("ADBCONN_ADB", "/opt/platform-tools/adb")
	t.Setenv("ADBCONN_SERIAL", "R58M123")
	t.Setenv("ADBCONN_ENCODING", "gbk")
	cfg := Defaults()
	LoadFromEnv(cfg)

	assert.Equal(t, "/opt/platform-tools/adb", cfg.ADBPath)
	assert.Equal(t, "R58M123", cfg.Serial)
	assert.Equal(t, "gbk", cfg.Encoding)
}

func TestLoadFromEnv_AndroidSerial(t *testing.T) {
	t.Setenv("ADBCONN_SERIAL", "")
	t.Setenv("ANDROID_SERIAL", "emulator-5554")
	cfg := Defaults()
	LoadFromEnv(cfg)
	assert.Equal(t, "emulator-5554", cfg.Serial, "ANDROID_SERIAL fallback")
}

func TestLoadFromEnv_Toggles(t *testing.T) {
	t.Setenv("ADBCONN_CAPTURE", "OFF")
	t.Setenv("ADBCONN_EXEC_OUT", "on")
	cfg := Defaults()
	LoadFromEnv(cfg)
	assert.Equal(t, Off, cfg.Capture)
	assert.Equal(t, On, cfg.ExecOut)
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		key string
		get func(*Config) bool
	}{
		{"ADBCONN_SU", func(c *Config) bool { return c.Su }},
		{"ADBCONN_STRICT_EXIT", func(c *Config) bool { return c.StrictExit }},
		{"ADBCONN_TRIM", func(c *Config) bool { return c.TrimNewline }},
		{"ADBCONN_KILL_SERVER", func(c *Config) bool { return c.KillServer }},
		{"ADBCONN_STATS", func(c *Config) bool { return c.Stats }},
	}

	for _, tt := range tests {
		for _, v := range []string{"1", "true", "YES"} {
			t.Run(tt.key+"="+v, func(t *testing.T) {
				t.Setenv(tt.key, v)
				cfg := &Config{}
				LoadFromEnv(cfg)
				assert.True(t, tt.get(cfg), "%s=%s should enable the option", tt.key, v)
			})
		}
	}
}

func TestLoadFromEnv_WaitDevice(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"30", 30 * time.Second},
		{"1m30s", 90 * time.Second},
		{"garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ADBCONN_WAIT_DEVICE", tt.value)
			cfg := &Config{}
			LoadFromEnv(cfg)
			assert.Equal(t, tt.want, cfg.WaitDevice)
		})
	}
}

func TestLoadFromEnv_Verbose(t *testing.T) {
	t.Setenv("ADBCONN_VERBOSE", "3")
	cfg := Defaults()
	LoadFromEnv(cfg)
	assert.Equal(t, 3, cfg.Verbose)
}

func TestLoadFromEnv_EmptyKeepsValues(t *testing.T) {
	cfg := Defaults()
	cfg.ADBPath = "/usr/bin/adb"
	LoadFromEnv(cfg)
	assert.Equal(t, "/usr/bin/adb", cfg.ADBPath, "should be unchanged")
	assert.Equal(t, DefaultEncoding, cfg.Encoding, "should be unchanged")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adbconn.yaml")
	data := []byte(`adb: /opt/platform-tools/adb
serial: emulator-5554
exec_out: "off"
strict_exit: true
wait_device: 45s
verbose: 2
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := Defaults()
	require.NoError(t, LoadFile(cfg, path))
	assert.Equal(t, "/opt/platform-tools/adb", cfg.ADBPath)
	assert.Equal(t, "emulator-5554", cfg.Serial)
	assert.Equal(t, Off, cfg.ExecOut)
	assert.Equal(t, Auto, cfg.Capture, "should keep the default")
	assert.True(t, cfg.StrictExit)
	assert.Equal(t, 45*time.Second, cfg.WaitDevice)
	assert.Equal(t, 2, cfg.Verbose)
}

func TestLoadFile_Errors(t *testing.T) {
	assert.Error(t, LoadFile(Defaults(), filepath.Join(t.TempDir(), "missing.yaml")), "missing file should fail")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial: [unclosed"), 0o600))
	assert.Error(t, LoadFile(Defaults(), path), "malformed YAML should fail")
}
