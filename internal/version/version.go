// Package version exposes the hark release version embedded at build time.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Get returns the version string from the embedded VERSION file,
// with surrounding whitespace trimmed.
func Get() string {
	return strings.TrimSpace(raw)
}
