package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adbconn/internal/core"
	adberrors "adbconn/internal/errors"
	"adbconn/internal/metrics"
	"adbconn/internal/platform"
	"adbconn/internal/process"
	"adbconn/internal/process/processtest"
)

const bin = "/tmp/fake-adb"

func newRunner(sp process.Spawner, opts Options) *Runner {
	if opts.Profile.OS == "" {
		opts.Profile = platform.ForOS("linux")
	}
	return New(sp, opts)
}

func TestRunner_TextCaptureMode(t *testing.T) {
	sp := processtest.New().QueueRun("lala", 0)
	r := newRunner(sp, Options{Strategy: core.CaptureMode})

	argv := []string{bin, "hello"}
	out, err := r.Text(context.Background(), argv)
	require.NoError(t, err)
	assert.Equal(t, "lala", out)

	assert.Equal(t, process.Invocation{
		Argv:   []string{bin, "hello"},
		Stdout: process.Capture,
		Stderr: process.Capture,
		Spawn:  nil,
	}, sp.LastRun())
}

func TestRunner_BytesPipeMode(t *testing.T) {
	sp := processtest.New().QueueRun("uid(1000)", 0)
	r := newRunner(sp, Options{Strategy: core.PipeMode})

	out, err := r.Bytes(context.Background(), []string{bin, "shell", "id"})
	require.NoError(t, err)
	assert.Equal(t, []byte("uid(1000)"), out)

	assert.Equal(t, process.Invocation{
		Argv:   []string{bin, "shell", "id"},
		Stdout: process.Pipe,
		Stderr: process.Inherit,
	}, sp.LastRun())
}

func TestRunner_ShapeNeverMixes(t *testing.T) {
	for _, s := range []core.Strategy{core.CaptureMode, core.PipeMode} {
		sp := processtest.New()
		r := newRunner(sp, Options{Strategy: s})
		for i := 0; i < 3; i++ {
			_, err := r.Bytes(context.Background(), []string{bin, "version"})
			require.NoError(t, err)
		}
		for _, inv := range sp.Runs() {
			assert.Equal(t, s.Stdout, inv.Stdout, s.Name)
			assert.Equal(t, s.Stderr, inv.Stderr, s.Name)
		}
	}
}

func TestRunner_DefaultsToCapture(t *testing.T) {
	r := New(processtest.New(), Options{})
	assert.Equal(t, core.CaptureMode, r.Strategy())
}

func TestRunner_WindowsNormalization(t *testing.T) {
	sp := processtest.New().QueueRun("uid(1000)\r\r\n", 0)
	r := newRunner(sp, Options{Profile: platform.ForOS("windows")})

	out, err := r.Bytes(context.Background(), []string{bin, "shell", "id"})
	require.NoError(t, err)
	assert.Equal(t, []byte("uid(1000)\n"), out)

	inv := sp.LastRun()
	require.NotNil(t, inv.Spawn)
	assert.True(t, inv.Spawn.HideWindow)
}

func TestRunner_NoNormalizationElsewhere(t *testing.T) {
	sp := processtest.New().QueueRun("uid(1000)\r\r\n", 0)
	r := newRunner(sp, Options{Profile: platform.ForOS("linux")})

	out, err := r.Bytes(context.Background(), []string{bin, "shell", "id"})
	require.NoError(t, err)
	assert.Equal(t, []byte("uid(1000)\r\r\n"), out)
}

func TestRunner_NonZeroExitLenient(t *testing.T) {
	sp := processtest.New().QueueRun("", 1)
	m := metrics.New()
	r := newRunner(sp, Options{Metrics: m})

	res, err := r.Exec(context.Background(), []string{bin, "shell", "false"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Empty(t, res.Stdout)
	assert.Equal(t, int64(1), m.NonZeroExits())
}

func TestRunner_NonZeroExitStrict(t *testing.T) {
	sp := processtest.New().QueueRun("partial", 2)
	r := newRunner(sp, Options{StrictExit: true})

	out, err := r.Text(context.Background(), []string{bin, "shell", "cat", "/nope"})
	assert.Equal(t, "partial", out, "output is still returned")

	var xe *adberrors.ExitError
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, 2, xe.Code)
	assert.Equal(t, []string{bin, "shell", "cat", "/nope"}, xe.Argv)
}

func TestRunner_SpawnFailureIsFatal(t *testing.T) {
	sp := processtest.New()
	sp.RunErr = adberrors.Wrap("spawn", bin, adberrors.ErrBinaryNotFound)
	m := metrics.New()
	r := newRunner(sp, Options{Metrics: m})

	_, err := r.Text(context.Background(), []string{bin, "devices"})
	require.Error(t, err)
	assert.True(t, adberrors.IsFatal(err))
	assert.ErrorIs(t, err, adberrors.ErrBinaryNotFound)
	assert.Contains(t, err.Error(), bin)
	assert.Equal(t, int64(1), m.ErrorCount())
}

func TestRunner_DecodeFailure(t *testing.T) {
	sp := processtest.New().QueueRun("ok\xff\xfe", 0)
	r := newRunner(sp, Options{})

	_, err := r.Text(context.Background(), []string{bin, "exec-out", "cat", "/data/blob"})
	var de *adberrors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "exec-out cat /data/blob", de.Call)

	// Binary callers are unaffected.
	raw, err := r.Bytes(context.Background(), []string{bin, "exec-out", "cat", "/data/blob"})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok\xff\xfe"), raw)
}

func TestRunner_TrimNewline(t *testing.T) {
	tests := []struct {
		name string
		trim bool
		in   string
		want string
	}{
		{"off", false, "device\n", "device\n"},
		{"on lf", true, "device\n", "device"},
		{"on crlf", true, "device\r\n", "device"},
		{"on only one", true, "a\n\n", "a\n"},
		{"on none", true, "device", "device"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := processtest.New().QueueRun(tt.in, 0)
			r := newRunner(sp, Options{TrimNewline: tt.trim})
			out, err := r.Text(context.Background(), []string{bin, "get-state"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRunner_LegacyEncoding(t *testing.T) {
	dec, err := NewDecoder("ISO-8859-1")
	require.NoError(t, err)

	sp := processtest.New().QueueRun("caf\xe9", 0)
	r := newRunner(sp, Options{Decoder: dec})
	out, err := r.Text(context.Background(), []string{bin, "shell", "cat", "/sdcard/menu.txt"})
	require.NoError(t, err)
	assert.Equal(t, "café", out)
}
