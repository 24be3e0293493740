package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempBase is a temporary base directory populated with synthetic run
// directories for testing.
type TempBase struct {
	Path string
	T    *testing.T
}

// NewTempBase creates a new empty temporary base directory.
func NewTempBase(t *testing.T) *TempBase {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "chainpack-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	return &TempBase{
		Path: tmpDir,
		T:    t,
	}
}

// Cleanup removes the temporary base directory.
func (b *TempBase) Cleanup() {
	b.T.Helper()
	if err := os.RemoveAll(b.Path); err != nil {
		b.T.Errorf("failed to cleanup temp base: %v", err)
	}
}

// CreateFile creates a file under the base directory, creating parent
// directories as needed, and returns its absolute path.
func (b *TempBase) CreateFile(name, content string) string {
	b.T.Helper()
	path := filepath.Join(b.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		b.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		b.T.Fatalf("failed to create file: %v", err)
	}
	return path
}

// CreateRun creates a run directory with the given files and returns its
// absolute path.
func (b *TempBase) CreateRun(name string, files map[string]string) string {
	b.T.Helper()
	dir := filepath.Join(b.Path, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.T.Fatalf("failed to create run directory: %v", err)
	}
	for rel, content := range files {
		b.CreateFile(filepath.Join(name, rel), content)
	}
	return dir
}

// ReadFile reads a file under the base directory.
func (b *TempBase) ReadFile(name string) string {
	b.T.Helper()
	data, err := os.ReadFile(filepath.Join(b.Path, name))
	if err != nil {
		b.T.Fatalf("failed to read file: %v", err)
	}
	return string(data)
}

// FileExists checks if a file exists under the base directory.
func (b *TempBase) FileExists(name string) bool {
	b.T.Helper()
	info, err := os.Stat(filepath.Join(b.Path, name))
	return err == nil && info.Mode().IsRegular()
}
