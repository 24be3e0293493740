package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"chainpack/internal/testutil"
)

func archiveFixture(t *testing.T, base *testutil.TempBase) (string, map[string]string) {
	t.Helper()

	files := map[string]string{
		"runA/config.yaml": "likelihood: {}\n",
		"runA/chain.1.txt": "0.5 1.2\n",
		"MANIFEST.txt":     "Total files: 2\n",
	}
	for rel, content := range files {
		base.CreateFile(filepath.Join("ace_repo_staging", rel), content)
	}
	return filepath.Join(base.Path, "ace_repo_staging"), files
}

func TestTarGzRoundTrip(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	staging, files := archiveFixture(t, base)

	outPath, err := TarGz(staging)
	if err != nil {
		t.Fatalf("TarGz failed: %v", err)
	}
	if outPath != staging+".tar.gz" {
		t.Errorf("archive path = %s", outPath)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("failed to open gzip stream: %v", err)
	}
	tr := tar.NewReader(gz)

	extracted := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read failed: %v", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("tar content read failed: %v", err)
		}
		extracted[hdr.Name] = string(data)
	}

	// The archive root must be the staging directory's own name.
	for rel, content := range files {
		name := "ace_repo_staging/" + rel
		got, ok := extracted[name]
		if !ok {
			t.Errorf("archive missing %s", name)
			continue
		}
		if got != content {
			t.Errorf("content mismatch for %s", name)
		}
	}
	if len(extracted) != len(files) {
		t.Errorf("archive holds %d files, want %d", len(extracted), len(files))
	}
}

func TestZipRoundTrip(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	staging, files := archiveFixture(t, base)

	outPath, err := Zip(staging)
	if err != nil {
		t.Fatalf("Zip failed: %v", err)
	}

	zr, err := zip.OpenReader(outPath)
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}
	defer zr.Close()

	extracted := make(map[string]string)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("zip entry open failed: %v", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("zip entry read failed: %v", err)
		}
		extracted[zf.Name] = string(data)
	}

	for rel, content := range files {
		name := "ace_repo_staging/" + rel
		if extracted[name] != content {
			t.Errorf("mismatch or missing entry %s", name)
		}
	}
	if len(extracted) != len(files) {
		t.Errorf("archive holds %d files, want %d", len(extracted), len(files))
	}
}

func TestArchiveOverwritesPrevious(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	staging, _ := archiveFixture(t, base)
	base.CreateFile("ace_repo_staging.zip", "stale archive")

	outPath, err := Zip(staging)
	if err != nil {
		t.Fatalf("Zip failed: %v", err)
	}
	if _, err := zip.OpenReader(outPath); err != nil {
		t.Fatalf("replacement archive unreadable: %v", err)
	}
}
