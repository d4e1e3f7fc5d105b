package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForOS_Windows(t *testing.T) {
	p := ForOS("windows")
	require.NotNil(t, p.Spawn, "windows profile should carry spawn options")
	assert.True(t, p.Spawn.HideWindow, "windows profile should hide the console window")
	assert.Equal(t, []byte("\r\r\n"), p.Artifact)
}

func TestForOS_Others(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "freebsd"} {
		t.Run(goos, func(t *testing.T) {
			p := ForOS(goos)
			assert.Nil(t, p.Spawn)
			assert.Nil(t, p.Artifact)
		})
	}
}

func TestNormalize(t *testing.T) {
	win := ForOS("windows")
	lin := ForOS("linux")

	tests := []struct {
		name    string
		profile Profile
		in      string
		want    string
	}{
		{"windows single", win, "uid(1000)\r\r\n", "uid(1000)\n"},
		{"windows many", win, "a\r\r\nb\r\r\nc", "a\nb\nc"},
		{"windows plain crlf kept", win, "a\r\nb\n", "a\r\nb\n"},
		{"windows no artifact", win, "lala", "lala"},
		{"linux untouched", lin, "a\r\r\nb", "a\r\r\nb"},
		{"empty", win, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.profile.Normalize([]byte(tt.in))))
		})
	}
}

func TestForOS_ArtifactNotShared(t *testing.T) {
	a := ForOS("windows")
	a.Artifact[0] = 'X'
	assert.Equal(t, byte('\r'), ForOS("windows").Artifact[0], "profiles should not share the artifact backing array")
}
