// Package naming derives destination-table metadata from external fund
// filenames: a canonical snake_case table identifier and, when one of the
// configured date patterns matches, an as-of date.
//
// Everything in this package is a pure function over its inputs; there is no
// hidden iteration state. The same canonicalization primitive (SnakeCase) is
// shared between table identifiers and column names so both land in the same
// naming scheme.
package naming

import (
	"regexp"
	"strings"
)

var (
	// specialChars matches characters that are neither word characters,
	// whitespace, nor hyphens. They are stripped outright.
	specialChars = regexp.MustCompile(`[^\w\s\-]`)

	// separatorRuns collapses runs of whitespace/hyphens into one underscore.
	separatorRuns = regexp.MustCompile(`[\s\-]+`)

	// camelBoundary splits a lowercase-or-digit character immediately followed
	// by an uppercase character.
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// SnakeCase converts an arbitrary name to its canonical lowercase,
// underscore-delimited form. The canonical form is a fixed point: applying
// SnakeCase to its own output returns the input unchanged.
func SnakeCase(name string) string {
	name = specialChars.ReplaceAllString(name, "")
	name = separatorRuns.ReplaceAllString(name, "_")
	name = camelBoundary.ReplaceAllString(name, "${1}_${2}")
	return strings.ToLower(name)
}

// TableName extracts the destination table identifier from a filename. The
// identifier is the segment before the first '.' in the filename, converted
// with SnakeCase. The second return value is false when the filename contains
// no '.' (there is no identifier boundary) or when canonicalization leaves
// nothing usable.
func TableName(filename string) (string, bool) {
	i := strings.IndexByte(filename, '.')
	if i <= 0 {
		return "", false
	}
	name := SnakeCase(filename[:i])
	if name == "" {
		return "", false
	}
	return name, true
}
