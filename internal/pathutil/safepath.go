// Package pathutil holds path checks shared by the bundle extractor and
// the static asset route.
package pathutil

import "strings"

func segments(p string) []string {
	return strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
}

// HasDotSegments reports whether any segment of p is "." or "..".
// Backslashes count as separators.
func HasDotSegments(p string) bool {
	for _, seg := range segments(p) {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// HasTraversal reports whether any segment of p is "..".
func HasTraversal(p string) bool {
	for _, seg := range segments(p) {
		if seg == ".." {
			return true
		}
	}
	return false
}
