// Package manifest writes and reads MANIFEST.txt, the deterministic listing
// of every staged file with its digest and size. Re-running packaging on
// unchanged inputs produces a byte-identical manifest.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"chainpack/internal/collector"
)

// FileName is the manifest's name under the staging root.
const FileName = "MANIFEST.txt"

const columnHeader = "sha256  bytes  path"

// Entry is one manifest line: digest, size, and path relative to the
// staging root (slash-separated).
type Entry struct {
	SHA256 string
	Size   int64
	Path   string
}

// Write renders the manifest for the copied files into
// stagingRoot/MANIFEST.txt, sorted by destination path.
func Write(stagingRoot string, copied []collector.CopiedFile) error {
	entries := make([]Entry, 0, len(copied))
	var total int64
	for _, c := range copied {
		rel, err := filepath.Rel(stagingRoot, c.Dst)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", c.Dst, err)
		}
		entries = append(entries, Entry{
			SHA256: c.SHA256,
			Size:   c.Size,
			Path:   filepath.ToSlash(rel),
		})
		total += c.Size
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	var b strings.Builder
	fmt.Fprintf(&b, "Total files: %d\n", len(entries))
	fmt.Fprintf(&b, "Total bytes: %d\n", total)
	b.WriteString("\n")
	b.WriteString(columnHeader + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %d  %s\n", e.SHA256, e.Size, e.Path)
	}

	path := filepath.Join(stagingRoot, FileName)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read parses a manifest previously produced by Write.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var entries []Entry
	inBody := false
	for i, line := range strings.Split(string(data), "\n") {
		if !inBody {
			if line == columnHeader {
				inBody = true
			}
			continue
		}
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "  ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed manifest line %d: %q", i+1, line)
		}
		size, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed size on manifest line %d: %q", i+1, line)
		}
		entries = append(entries, Entry{SHA256: parts[0], Size: size, Path: parts[2]})
	}
	if !inBody {
		return nil, fmt.Errorf("no %q header found in %s", columnHeader, path)
	}
	return entries, nil
}
