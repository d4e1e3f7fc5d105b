// Package capability probes the adb binary and the attached device once,
// when a connection is set up, and describes the result as an immutable
// value.
package capability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Thresholds for exec-out: the adb client must know the verb and the
// device's adbd must implement it (Android 5.0, Lollipop).
const (
	MinExecOutClient  = "1.0.32"
	MinExecOutRelease = 5
)

// Capabilities is resolved once per connection and never mutated.
type Capabilities struct {
	// UsesCaptureMode selects the single capture request for stdout and
	// stderr.  When false the legacy pipe shape is used.
	UsesCaptureMode bool

	// UsesExecOut selects "exec-out" over "shell" for remote commands.
	UsesExecOut bool

	ClientVersion string // adb client version, e.g. "1.0.41"; empty if unknown
	DeviceRelease string // ro.build.version.release, e.g. "13"; empty if unknown
}

func (c Capabilities) String() string {
	mode := "pipe"
	if c.UsesCaptureMode {
		mode = "capture"
	}
	verb := "shell"
	if c.UsesExecOut {
		verb = "exec-out"
	}
	client := c.ClientVersion
	if client == "" {
		client = "unknown"
	}
	release := c.DeviceRelease
	if release == "" {
		release = "unknown"
	}
	return fmt.Sprintf("mode=%s verb=%s client=%s device=%s", mode, verb, client, release)
}

var versionRe = regexp.MustCompile(`Android Debug Bridge version (\d+\.\d+\.\d+)`)

// ParseClientVersion extracts X.Y.Z from "adb version" output.
func ParseClientVersion(out string) (string, bool) {
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseRelease returns the major Android release from a value such as
// "13", "8.1.0" or "4.4.2".  Codenames ("R", "Tiramisu") do not parse.
func ParseRelease(release string) (int, bool) {
	release = strings.TrimSpace(release)
	if i := strings.IndexByte(release, '.'); i >= 0 {
		release = release[:i]
	}
	major, err := strconv.Atoi(release)
	if err != nil || major < 0 {
		return 0, false
	}
	return major, true
}

// SupportsExecOut reports whether client and device both handle exec-out.
func SupportsExecOut(client, release string) bool {
	if client == "" || !semver.IsValid("v"+client) {
		return false
	}
	if semver.Compare("v"+client, "v"+MinExecOutClient) < 0 {
		return false
	}
	major, ok := ParseRelease(release)
	return ok && major >= MinExecOutRelease
}
