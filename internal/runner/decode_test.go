package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adberrors "adbconn/internal/errors"
)

func TestNewDecoder(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8", " utf-8 "} {
		d, err := NewDecoder(name)
		require.NoError(t, err, name)
		assert.Equal(t, DefaultEncoding, d.Name())
	}

	d, err := NewDecoder("windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", d.Name())

	_, err = NewDecoder("klingon-7")
	assert.Error(t, err)
}

func TestDecoder_StrictUTF8(t *testing.T) {
	d, _ := NewDecoder("")

	s, err := d.Decode("shell id", []byte("uid=0(root) ✓"))
	require.NoError(t, err)
	assert.Equal(t, "uid=0(root) ✓", s)

	_, err = d.Decode("shell id", []byte("ab\xffcd"))
	var de *adberrors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "shell id", de.Call)
	assert.Contains(t, de.Error(), "offset 2")
}

func TestDecoder_NilIsUTF8(t *testing.T) {
	var d *Decoder
	s, err := d.Decode("x", []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", s)
}

func TestTrimTerminator(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a\n", "a"},
		{"a\r\n", "a"},
		{"a\n\n", "a\n"},
		{"a\r", "a\r"},
		{"a", "a"},
		{"\n", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(TrimTerminator([]byte(tt.in))), "%q", tt.in)
		assert.Equal(t, tt.want, TrimTerminatorString(tt.in), "%q", tt.in)
	}
}
