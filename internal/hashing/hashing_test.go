package hashing

import (
	"os"
	"path/filepath"
	"testing"
)

// sha256 of the empty input, a well-known constant.
const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestBytesEmpty(t *testing.T) {
	if got := Bytes(nil); got != emptyDigest {
		t.Errorf("Bytes(nil) = %s, want %s", got, emptyDigest)
	}
}

func TestFileMatchesBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.1.txt")
	content := []byte("0.5 1.2 3.4\n0.6 1.1 3.3\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	fromFile, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if fromBytes := Bytes(content); fromFile != fromBytes {
		t.Errorf("File = %s, Bytes = %s", fromFile, fromBytes)
	}
	if len(fromFile) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(fromFile))
	}
}

func TestFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if got != emptyDigest {
		t.Errorf("File(empty) = %s, want %s", got, emptyDigest)
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
