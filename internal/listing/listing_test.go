package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_MatchesWholeLine(t *testing.T) {
	tests := []struct {
		path string
		line string
	}{
		{"/some/file.txt", "/some/file.txt\n"},
		{"/some/my file.txt", "/some/my file.txt\n"},
		{"some/file.txt", "some/file.txt\n"},
		{"/data/a+b(1).[x]$", "/data/a+b(1).[x]$\n"},
		{"/sdcard/crlf.txt", "/sdcard/crlf.txt\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Regexp(t, Matcher(tt.path), tt.line)
		})
	}
}

func TestMatcher_Rejects(t *testing.T) {
	tests := []struct {
		name string
		path string
		in   string
	}{
		{"longer path", "/some/my file.txt", "/some/my file.txtX\n"},
		{"no terminator", "/some/file.txt", "/some/file.txt"},
		{"suffix of another path", "/my file.txt", "/some/my file.txt\n"},
		{"dot is literal", "/data/a.txt", "/data/aXtxt\n"},
		{"plus is literal", "/data/a+b", "/data/aab\n"},
		{"space is literal", "/a b", "/a  b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotRegexp(t, Matcher(tt.path), tt.in)
		})
	}
}

func TestContains(t *testing.T) {
	listing := "/data/file1.txt\n/data/my file.txt\n/data/file2.txt"

	for path, want := range map[string]bool{
		"/data/file1.txt":   true,
		"/data/my file.txt": true,
		"/data/file2.txt":   true,
		"/data/file":        false,
		"/data/file3.txt":   false,
	} {
		assert.Equal(t, want, Contains(listing, path), "Contains(%q)", path)
	}
	assert.False(t, Contains("", "/data"), "empty output contains nothing")
}
