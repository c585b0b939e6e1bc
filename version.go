// Package ghostline shows short model-written continuations as ghost text
// next to the caret of editable regions in a document.
//
// The engine lives in sub-packages: dom models the host document, surface
// reads and writes editable regions, overlay places the ghost text,
// provider selects a completion backend and coordinator ties them together
// with debounce and cancellation. cmd/ghostline-demo runs it in a terminal.
package ghostline

import (
	_ "embed"
	"regexp"
	"strings"
)

var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)

//go:embed VERSION
var embeddedVersion string

// Version returns the module version in SemVer format (without `v`).
func Version() string {
	return strings.TrimSpace(embeddedVersion)
}

// UserAgent identifies ghostline in provider requests.
func UserAgent() string {
	return "ghostline/" + Version()
}

// ValidVersion reports whether v matches SemVer 2.0.0.
func ValidVersion(v string) bool {
	return semverRE.MatchString(strings.TrimSpace(v))
}
