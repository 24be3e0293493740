// Package pattern implements the glob filter used to decide which run files
// are staged. Patterns use the shell-glob subset understood by path.Match
// (`*`, `?`, `[...]`); there is no regex syntax and `*` does not cross `/`.
package pattern

import "path"

// MatchesAny reports whether the file matches any of the given patterns.
// Each pattern is tried against the bare filename first, then against the
// slash-separated path relative to the walk root; a hit on either form
// counts. Malformed patterns never match.
func MatchesAny(name, relPath string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := path.Match(pat, name); err == nil && ok {
			return true
		}
	}
	for _, pat := range patterns {
		if ok, err := path.Match(pat, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// Included applies the exclude-then-include rule: an exclude match always
// wins, and a file matching no include pattern is skipped.
func Included(name, relPath string, include, exclude []string) bool {
	if MatchesAny(name, relPath, exclude) {
		return false
	}
	return MatchesAny(name, relPath, include)
}
