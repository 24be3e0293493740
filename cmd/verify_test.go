package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"chainpack/internal/testutil"
)

func stageForVerify(t *testing.T, base *testutil.TempBase) string {
	t.Helper()

	createRunA(base)
	resetStageFlags()
	stageBase = base.Path
	stageOut = filepath.Join(base.Path, "stage")
	stageRuns = []string{"runA"}
	stageForce = true
	if err := runStage(nil, nil); err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	return stageOut
}

func TestVerifyCleanStaging(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	out := stageForVerify(t, base)
	if err := runVerify(nil, []string{out}); err != nil {
		t.Errorf("verify of untouched staging failed: %v", err)
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	out := stageForVerify(t, base)

	// Same length, different bytes: only the digest can catch this.
	corrupted := filepath.Join(out, "runA", "chain.1.txt")
	if err := os.WriteFile(corrupted, []byte("9.9 9.9 9.9\n"), 0644); err != nil {
		t.Fatalf("failed to corrupt file: %v", err)
	}

	if err := runVerify(nil, []string{out}); err == nil {
		t.Error("verify missed a corrupted file")
	}
}

func TestVerifyDetectsMissingFile(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	out := stageForVerify(t, base)
	if err := os.Remove(filepath.Join(out, "runA", "config.yaml")); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	if err := runVerify(nil, []string{out}); err == nil {
		t.Error("verify missed a missing file")
	}
}

func TestVerifyWithoutManifest(t *testing.T) {
	base := testutil.NewTempBase(t)
	defer base.Cleanup()

	if err := runVerify(nil, []string{base.Path}); err == nil {
		t.Error("expected error when MANIFEST.txt is absent")
	}
}
