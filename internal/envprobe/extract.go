package envprobe

import (
	"path/filepath"
	"strings"
)

// ExtractPackagesPath scans grep-style output for lines like
//
//	./run/foo.yaml:123:packages_path: /path/to/cobaya_packages
//
// and returns the first value found, stripped of quotes. Both quoted
// ('...', "...") and bare whitespace-delimited values are handled. The
// first occurrence in the scanned text wins; later matches are ignored.
// Returns "" when no value is present.
func ExtractPackagesPath(grepText string) string {
	for _, line := range strings.Split(grepText, "\n") {
		if !strings.Contains(line, "packages_path") {
			continue
		}

		rest := strings.SplitN(line, "packages_path", 2)[1]
		colon := strings.Index(rest, ":")
		if colon < 0 {
			continue
		}
		tail := strings.TrimSpace(rest[colon+1:])

		if len(tail) >= 2 && (tail[0] == '\'' || tail[0] == '"') &&
			strings.ContainsRune(tail[1:], rune(tail[0])) {
			quote := string(tail[0])
			tail = strings.SplitN(tail[1:], quote, 2)[0]
		} else if fields := strings.Fields(tail); len(fields) > 0 {
			tail = fields[0]
		} else {
			tail = ""
		}

		if tail != "" {
			return tail
		}
	}
	return ""
}

// ResolvePackagesPath turns an extracted packages_path value into an
// absolute path. ~ expands against home; a relative path is tried under
// home first and falls back to the staging root. The result is lexically
// absolute whether or not it exists on disk, so the caller can report a
// dangling reference verbatim instead of guessing.
func ResolvePackagesPath(extracted, home, stagingRoot string) string {
	p := extracted
	if p == "~" {
		p = home
	} else if strings.HasPrefix(p, "~/") {
		p = filepath.Join(home, p[2:])
	}

	if !filepath.IsAbs(p) {
		if underHome := filepath.Join(home, p); pathExists(underHome) {
			p = underHome
		} else {
			p = filepath.Join(stagingRoot, p)
		}
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func pathExists(path string) bool {
	return fileExists(path) || dirExists(path)
}
