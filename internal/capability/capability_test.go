package capability

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adberrors "adbconn/internal/errors"
	"adbconn/internal/platform"
	"adbconn/internal/process"
	"adbconn/internal/process/processtest"
)

const bin = "/opt/platform-tools/adb"

const versionOut = "Android Debug Bridge version 1.0.41\nVersion 34.0.5-10900879\nInstalled as /opt/platform-tools/adb\n"

// fakeAdb answers "version" and the release getprop.
func fakeAdb(version string, release string, releaseCode int) *processtest.Spawner {
	sp := processtest.New()
	sp.RunFunc = func(inv process.Invocation) (*process.Completed, error) {
		switch {
		case len(inv.Argv) == 2 && inv.Argv[1] == "version":
			return &process.Completed{Stdout: []byte(version)}, nil
		case strings.Contains(strings.Join(inv.Argv, " "), "getprop"):
			return &process.Completed{Stdout: []byte(release), ExitCode: releaseCode}, nil
		}
		return &process.Completed{ExitCode: 1}, nil
	}
	return sp
}

func probe(t *testing.T, sp process.Spawner, goos string) Capabilities {
	t.Helper()
	p := &Prober{Spawner: sp, Binary: bin, Profile: platform.ForOS(goos)}
	caps, err := p.Probe(context.Background())
	require.NoError(t, err)
	return caps
}

func TestProbe_ModernClientAndDevice(t *testing.T) {
	sp := fakeAdb(versionOut, "13\n", 0)
	caps := probe(t, sp, "linux")

	assert.True(t, caps.UsesCaptureMode)
	assert.True(t, caps.UsesExecOut)
	assert.Equal(t, "1.0.41", caps.ClientVersion)
	assert.Equal(t, "13", caps.DeviceRelease)

	runs := sp.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, process.Invocation{
		Argv: []string{bin, "version"}, Stdout: process.Capture, Stderr: process.Capture,
	}, runs[0])
	assert.Equal(t, []string{bin, "shell", "getprop ro.build.version.release"}, runs[1].Argv)
	assert.Equal(t, process.Capture, runs[1].Stdout)
}

func TestProbe_OldDevice(t *testing.T) {
	caps := probe(t, fakeAdb(versionOut, "4.4.2\n", 0), "linux")
	assert.True(t, caps.UsesCaptureMode)
	assert.False(t, caps.UsesExecOut)
	assert.Equal(t, "4.4.2", caps.DeviceRelease)
}

func TestProbe_NoDevice(t *testing.T) {
	caps := probe(t, fakeAdb(versionOut, "", 1), "linux")
	assert.True(t, caps.UsesCaptureMode)
	assert.False(t, caps.UsesExecOut)
	assert.Empty(t, caps.DeviceRelease)
}

func TestProbe_UnidentifiedBinaryUsesPipeMode(t *testing.T) {
	sp := fakeAdb("adb shim\n", "11\n", 0)
	caps := probe(t, sp, "linux")

	assert.False(t, caps.UsesCaptureMode)
	assert.False(t, caps.UsesExecOut, "unknown client version cannot use exec-out")
	assert.Equal(t, "11", caps.DeviceRelease)

	runs := sp.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, process.Pipe, runs[1].Stdout)
	assert.Equal(t, process.Inherit, runs[1].Stderr)
}

func TestProbe_WindowsArtifact(t *testing.T) {
	sp := fakeAdb(strings.ReplaceAll(versionOut, "\n", "\r\r\n"), "9\r\r\n", 0)
	caps := probe(t, sp, "windows")

	assert.True(t, caps.UsesExecOut)
	assert.Equal(t, "9", caps.DeviceRelease)
	require.NotNil(t, sp.Runs()[0].Spawn)
}

func TestProbe_Serial(t *testing.T) {
	sp := fakeAdb(versionOut, "12\n", 0)
	p := &Prober{Spawner: sp, Binary: bin, Serial: "R58M123", Profile: platform.ForOS("linux")}
	_, err := p.Probe(context.Background())
	require.NoError(t, err)

	runs := sp.Runs()
	assert.Equal(t, []string{bin, "version"}, runs[0].Argv)
	assert.Equal(t, []string{bin, "-s", "R58M123", "shell", "getprop ro.build.version.release"}, runs[1].Argv)
}

func TestProbe_SpawnFailureIsFatal(t *testing.T) {
	sp := processtest.New()
	sp.RunErr = adberrors.Wrap("spawn", bin, adberrors.ErrBinaryNotFound)
	p := &Prober{Spawner: sp, Binary: bin}

	_, err := p.Probe(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, adberrors.ErrBinaryNotFound)
	assert.Contains(t, err.Error(), "probe adb client")
}

func TestParseClientVersion(t *testing.T) {
	v, ok := ParseClientVersion(versionOut)
	assert.True(t, ok)
	assert.Equal(t, "1.0.41", v)

	_, ok = ParseClientVersion("command not found")
	assert.False(t, ok)
}

func TestParseRelease(t *testing.T) {
	tests := []struct {
		in    string
		major int
		ok    bool
	}{
		{"13", 13, true},
		{"8.1.0", 8, true},
		{"4.4.2\n", 4, true},
		{"R", 0, false},
		{"", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		major, ok := ParseRelease(tt.in)
		assert.Equal(t, tt.ok, ok, "%q", tt.in)
		assert.Equal(t, tt.major, major, "%q", tt.in)
	}
}

func TestSupportsExecOut(t *testing.T) {
	tests := []struct {
		client, release string
		want            bool
	}{
		{"1.0.41", "13", true},
		{"1.0.32", "5.0", true},
		{"1.0.31", "13", false},
		{"1.0.41", "4.4.4", false},
		{"", "13", false},
		{"garbage", "13", false},
		{"1.0.41", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SupportsExecOut(tt.client, tt.release), "%s/%s", tt.client, tt.release)
	}
}

func TestCapabilities_String(t *testing.T) {
	c := Capabilities{UsesCaptureMode: true, UsesExecOut: true, ClientVersion: "1.0.41", DeviceRelease: "13"}
	assert.Equal(t, "mode=capture verb=exec-out client=1.0.41 device=13", c.String())
	assert.Equal(t, "mode=pipe verb=shell client=unknown device=unknown", Capabilities{}.String())
}
