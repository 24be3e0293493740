// Package collector walks run directories, filters their contents through
// the selection policy, and copies qualifying files into the staging tree.
// Symbolic links are not followed; only regular files are considered.
package collector

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chainpack/internal/hashing"
	"chainpack/internal/pattern"
	"chainpack/internal/policy"
)

// CopiedFile records one staged file. The digest is computed from the
// destination bytes, so later re-verification detects post-copy corruption.
type CopiedFile struct {
	Src    string
	Dst    string
	Size   int64
	SHA256 string
}

// ErrOutputExists is returned by EnsureEmptyDir when the output directory
// exists and overwrite was not authorized.
var ErrOutputExists = errors.New("output directory already exists")

// EnsureEmptyDir creates path as an empty directory. An existing directory
// is only removed when force is set; otherwise the caller gets an error
// before anything is touched. No merged or partial staging state survives.
func EnsureEmptyDir(path string, force bool) error {
	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, path)
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove existing output directory: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat output directory: %w", err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// CopyFile copies src to dst, creating parent directories as needed and
// preserving the source's mode and modification time. The returned record
// carries the size and digest of the destination file.
func CopyFile(src, dst string) (CopiedFile, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return CopiedFile{}, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return CopiedFile{}, fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return CopiedFile{}, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return CopiedFile{}, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return CopiedFile{}, fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return CopiedFile{}, fmt.Errorf("failed to close %s: %w", dst, err)
	}

	// Best effort; some filesystems refuse timestamp changes.
	_ = os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())

	dstInfo, err := os.Stat(dst)
	if err != nil {
		return CopiedFile{}, fmt.Errorf("failed to stat %s: %w", dst, err)
	}
	digest, err := hashing.File(dst)
	if err != nil {
		return CopiedFile{}, err
	}

	return CopiedFile{Src: src, Dst: dst, Size: dstInfo.Size(), SHA256: digest}, nil
}

// CopyRunDir mirrors the filtered contents of runDir into
// stagingRoot/<runDir basename>, preserving relative structure. Any I/O
// failure aborts the whole copy; a reproducibility package must not
// silently omit files it claims to include.
func CopyRunDir(runDir, stagingRoot string, pol policy.Policy) ([]CopiedFile, error) {
	dstRunDir := filepath.Join(stagingRoot, filepath.Base(runDir))
	if err := os.MkdirAll(dstRunDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", dstRunDir, err)
	}

	var copied []CopiedFile
	err := filepath.WalkDir(runDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(runDir, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)

		if !pattern.Included(d.Name(), relSlash, pol.IncludePatterns, pol.ExcludePatterns) {
			return nil
		}

		cf, err := CopyFile(path, filepath.Join(dstRunDir, rel))
		if err != nil {
			return err
		}
		copied = append(copied, cf)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy run directory %s: %w", runDir, err)
	}
	return copied, nil
}

// DetectRunDirs returns the directories directly under base that look like
// Cobaya runs, sorted lexicographically by name. A directory qualifies when
// it directly contains at least one .yaml file and chain evidence: a
// numbered .N.txt segment, or, loosely, any .txt file at all.
func DetectRunDirs(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(base, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dir, err)
		}

		hasYAML := false
		hasChain := false
		txtCount := 0
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			if strings.HasSuffix(name, ".yaml") {
				hasYAML = true
			}
			if strings.HasSuffix(name, ".txt") {
				txtCount++
				for _, seg := range []string{".1.txt", ".2.txt", ".3.txt", ".4.txt"} {
					if strings.Contains(name, seg) {
						hasChain = true
					}
				}
			}
		}
		if txtCount > 0 {
			hasChain = true
		}

		if hasYAML && hasChain {
			candidates = append(candidates, dir)
		}
	}
	sort.Strings(candidates)
	return candidates, nil
}

// ReadRunsFile parses a run-list file: one run directory name per line,
// blank lines and #-prefixed lines ignored.
func ReadRunsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs file: %w", err)
	}

	var runs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		runs = append(runs, line)
	}
	return runs, nil
}
