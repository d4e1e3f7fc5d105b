// Package platform resolves the operating-system specific parts of
// spawning the adb binary: console window suppression and the line-ending
// artifact that has to be normalized out of captured output.
package platform

import (
	"bytes"
	"runtime"
)

// SpawnOptions are applied to every child process.  A nil *SpawnOptions
// means the platform needs nothing special.
type SpawnOptions struct {
	// HideWindow suppresses the console window that would otherwise
	// flash up for every child on Windows.
	HideWindow bool
}

// Profile is resolved once per connection and never modified.
type Profile struct {
	OS       string
	Spawn    *SpawnOptions
	Artifact []byte // line-ending artifact, nil when the OS emits none
}

// windowsArtifact is what adb on Windows emits for a device-side "\n":
// the device's "\r\n" gets another "\r" from console text-mode translation.
var windowsArtifact = []byte("\r\r\n")

// Current returns the profile for the running OS.
func Current() Profile { return ForOS(runtime.GOOS) }

// ForOS returns the profile for goos (a runtime.GOOS value).
func ForOS(goos string) Profile {
	if goos == "windows" {
		return Profile{
			OS:       goos,
			Spawn:    &SpawnOptions{HideWindow: true},
			Artifact: append([]byte(nil), windowsArtifact...),
		}
	}
	return Profile{OS: goos}
}

// Normalize replaces every occurrence of the profile's artifact with a
// single "\n".  Input without the artifact is returned unchanged.
func (p Profile) Normalize(b []byte) []byte {
	if len(p.Artifact) == 0 || !bytes.Contains(b, p.Artifact) {
		return b
	}
	return bytes.ReplaceAll(b, p.Artifact, []byte{'\n'})
}
