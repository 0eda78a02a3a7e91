// Package normalize turns raw package metadata into the dependency edge
// relation the graph builder consumes.
//
// Two concerns live here:
//
//   - Requirement parsing: a PEP 508 requirement string such as
//     "charset-normalizer (<4,>=2) ; python_version >= '3.7'" is reduced to
//     the bare package name it references. Only the leading name is taken;
//     version constraints, extras, and environment markers are ignored.
//   - Name canonicalization per PEP 503, so "Django", "django" and "DJANGO"
//     all address the same node.
//
// Both operations are deterministic and side-effect free.
package normalize

import (
	"regexp"
	"strings"
)

// nameRE matches the leading package name of a requirement string.
var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+`)

// separatorRuns matches runs of the separator characters PEP 503 collapses.
var separatorRuns = regexp.MustCompile(`[-_.]+`)

// ExtractName extracts the package name a requirement string references.
//
// The name is the longest leading run of [A-Za-z0-9_-]; everything after it
// (version constraints, extras brackets, markers) is ignored. Leading and
// trailing whitespace is trimmed first. Returns ok=false when the string
// does not start with a name character, in which case the requirement is
// unusable and should be skipped.
func ExtractName(requirement string) (name string, ok bool) {
	m := nameRE.FindString(strings.TrimSpace(requirement))
	if m == "" {
		return "", false
	}
	return m, true
}

// Name converts a package name to its canonical PEP 503 form: lowercase,
// with runs of ".", "-" and "_" collapsed to a single hyphen.
func Name(name string) string {
	return strings.ToLower(separatorRuns.ReplaceAllString(strings.TrimSpace(name), "-"))
}
