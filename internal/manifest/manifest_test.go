package manifest

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"chainpack/internal/collector"
	"chainpack/internal/hashing"
	"chainpack/internal/testutil"
)

func stageFixture(t *testing.T, base *testutil.TempBase) (string, []collector.CopiedFile) {
	t.Helper()

	staging := filepath.Join(base.Path, "stage")
	files := map[string]string{
		"runA/config.yaml":    "likelihood: {}\n",
		"runA/chain.1.txt":    "0.5 1.2\n",
		"tools/.bash_aliases": "alias chains='ls'\n",
	}

	var copied []collector.CopiedFile
	// Deliberately unsorted insertion order; the writer must sort.
	for _, rel := range []string{"tools/.bash_aliases", "runA/config.yaml", "runA/chain.1.txt"} {
		content := files[rel]
		dst := filepath.Join(staging, filepath.FromSlash(rel))
		base.CreateFile(filepath.Join("stage", rel), content)
		copied = append(copied, collector.CopiedFile{
			Src:    "/src/" + rel,
			Dst:    dst,
			Size:   int64(len(content)),
			SHA256: hashing.Bytes([]byte(content)),
		})
	}
	return staging, copied
}

func TestWriteFormat(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	staging, copied := stageFixture(t, base)
	if err := Write(staging, copied); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content := base.ReadFile("stage/MANIFEST.txt")
	lines := strings.Split(content, "\n")

	if lines[0] != "Total files: 3" {
		t.Errorf("line 0 = %q", lines[0])
	}
	totalBytes := 0
	for _, c := range copied {
		totalBytes += int(c.Size)
	}
	if want := "Total bytes: " + strconv.Itoa(totalBytes); lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}
	if lines[2] != "" || lines[3] != "sha256  bytes  path" {
		t.Errorf("header lines = %q, %q", lines[2], lines[3])
	}

	// Entries sorted by slash path: runA/chain.1.txt, runA/config.yaml, tools/.bash_aliases.
	if !strings.HasSuffix(lines[4], "  runA/chain.1.txt") {
		t.Errorf("line 4 = %q", lines[4])
	}
	if !strings.HasSuffix(lines[5], "  runA/config.yaml") {
		t.Errorf("line 5 = %q", lines[5])
	}
	if !strings.HasSuffix(lines[6], "  tools/.bash_aliases") {
		t.Errorf("line 6 = %q", lines[6])
	}
}

func TestWriteDeterministic(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	staging, copied := stageFixture(t, base)

	if err := Write(staging, copied); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	first := base.ReadFile("stage/MANIFEST.txt")

	// Reversed record order must not change a byte of output.
	reversed := make([]collector.CopiedFile, 0, len(copied))
	for i := len(copied) - 1; i >= 0; i-- {
		reversed = append(reversed, copied[i])
	}
	if err := Write(staging, reversed); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	second := base.ReadFile("stage/MANIFEST.txt")

	if first != second {
		t.Error("manifest is not byte-identical across runs")
	}
}

func TestReadRoundTrip(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	staging, copied := stageFixture(t, base)
	if err := Write(staging, copied); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := Read(filepath.Join(staging, FileName))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != len(copied) {
		t.Fatalf("read %d entries, want %d", len(entries), len(copied))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Path >= entries[i].Path {
			t.Errorf("entries out of order: %q before %q", entries[i-1].Path, entries[i].Path)
		}
	}
	for _, e := range entries {
		if len(e.SHA256) != 64 || e.Size <= 0 {
			t.Errorf("implausible entry: %+v", e)
		}
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	path := base.CreateFile("MANIFEST.txt", "not a manifest\n")
	if _, err := Read(path); err == nil {
		t.Error("expected error for missing column header")
	}
}
