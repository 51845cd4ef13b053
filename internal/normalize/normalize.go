// Package normalize provides utilities for normalizing and sanitizing
// user-entered text. Tag identity and search matching both depend on the
// folding rules here, so they must stay in one place.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the canonical comparison form of user-entered text:
// Unicode-normalized (NFKC), case-folded, with surrounding whitespace
// trimmed and inner runs of whitespace collapsed to single spaces.
//
// "  Urgent " and "URGENT" fold to the same value; so do full-width and
// half-width variants of the same characters.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	// Casers are documented as not safe for concurrent use, so build one
	// per call instead of sharing a package-level instance.
	s = cases.Fold().String(s)
	return CollapseWhitespace(s)
}

// CollapseWhitespace trims the string and collapses inner whitespace runs to
// single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clean trims whitespace and collapses inner runs without changing case.
// Use this for display values; use Fold for identity comparison.
func Clean(s string) string {
	return CollapseWhitespace(norm.NFC.String(s))
}

// EqualFold reports whether two strings are equal under Fold.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
