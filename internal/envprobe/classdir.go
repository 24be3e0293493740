package envprobe

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chainpack/internal/hashing"
)

// classDirCandidates are the subdirectory names a Cobaya packages_path is
// known to keep a CLASS checkout under, in probe order.
var classDirCandidates = []string{
	"code/class_public",
	"code/CLASS",
	"code/class",
	"code/classy",
	"class_public",
	"CLASS",
	"classy",
}

// fingerprintCandidates are the files whose digests identify a CLASS source
// tree even without version-control metadata.
var fingerprintCandidates = []string{
	"main/class.c",
	"include/common.h",
	"include/background.h",
	"source/background.c",
	"Makefile",
	"python/setup.py",
	"pyproject.toml",
	"setup.py",
}

// FindClassDir tries to locate a CLASS source directory under a Cobaya
// packages_path. The fixed candidates are checked first; the first existing
// directory wins, whether or not the marker files (main/class.c,
// include/class.h) confirm it. When none exist, a recursive search for a
// main/class.c anywhere under the packages path returns its parent.
// Returns "" when nothing qualifies; absence is not an error.
func FindClassDir(packagesPath string) string {
	if !dirExists(packagesPath) {
		return ""
	}

	for _, rel := range classDirCandidates {
		c := filepath.Join(packagesPath, filepath.FromSlash(rel))
		if dirExists(c) {
			return c
		}
	}

	var found string
	_ = filepath.WalkDir(packagesPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == "main" && fileExists(filepath.Join(path, "class.c")) {
			found = filepath.Dir(path)
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// WriteFingerprint writes a deterministic fingerprint of the CLASS source
// tree to outFile. Each present candidate file contributes one digest line;
// when none of the candidates exist, the digest of the sorted newline-joined
// file listing stands in, so the fingerprint is never empty and identical
// tree contents always fingerprint identically.
func WriteFingerprint(classDir, outFile string) error {
	lines := []string{
		"class_dir: " + filepath.ToSlash(classDir),
		"sha256  bytes  relpath",
	}

	foundAny := false
	for _, rel := range fingerprintCandidates {
		p := filepath.Join(classDir, filepath.FromSlash(rel))
		if !fileExists(p) {
			continue
		}
		foundAny = true

		digest, err := hashing.File(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		lines = append(lines, fmt.Sprintf("%s  %d  %s", digest, info.Size(), rel))
	}

	if !foundAny {
		listing, err := listFiles(classDir)
		if err != nil {
			return err
		}
		blob := []byte(strings.Join(listing, "\n") + "\n")
		lines = append(lines, fmt.Sprintf("%s  %d  __file_list_fallback__", hashing.Bytes(blob), len(blob)))
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(outFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write fingerprint: %w", err)
	}
	return nil
}

// listFiles returns the sorted slash-relative paths of every regular file
// under root.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
