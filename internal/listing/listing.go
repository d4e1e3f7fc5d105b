// Package listing confirms that a device path appears as a complete line
// of listing output, for example from "ls -d" or "find".
package listing

import (
	"regexp"
	"strings"
)

// Matcher returns a pattern matching path as a whole line: every
// metacharacter in path is literal, the match starts at a line start and
// must be followed immediately by a line terminator.
func Matcher(path string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(path) + `\r?\n`)
}

// Contains reports whether output lists path on a line of its own.
// Output whose last line has no terminator is treated as terminated.
func Contains(output, path string) bool {
	if output != "" && !strings.HasSuffix(output, "\n") {
		output += "\n"
	}
	return Matcher(path).MatchString(output)
}
