// Package envprobe captures a best-effort snapshot of the software
// environment that produced the staged chains: Python/pip/Cobaya versions,
// the Cobaya packages_path referenced by the staged YAMLs, and a fingerprint
// of the CLASS source tree found there. Every step writes its own artifact
// under tools/env/ and no step's failure halts the others.
package envprobe

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"chainpack/internal/policy"
)

// Runner invokes one diagnostic command and returns its combined
// stdout+stderr. Tests substitute a fake returning canned output.
type Runner interface {
	CombinedOutput(command string) (string, error)
}

// BashRunner runs commands through bash -lc, optionally sourcing an
// environment-activation script first so probes see the venv interpreter.
type BashRunner struct {
	// Activate is the path to an activation script (~ allowed), or empty.
	Activate string
}

// CombinedOutput implements Runner.
func (r BashRunner) CombinedOutput(command string) (string, error) {
	script := command
	if r.Activate != "" {
		act, err := policy.ExpandUser(r.Activate)
		if err != nil {
			return "", err
		}
		script = fmt.Sprintf("source '%s'; %s", act, command)
	}
	out, err := exec.Command("bash", "-lc", script).CombinedOutput()
	return string(out), err
}

// Prober writes environment artifacts for one staging tree.
type Prober struct {
	// StagingRoot is the staging directory the probe describes.
	StagingRoot string

	// Runner executes the diagnostic commands.
	Runner Runner

	// Home is the user's home directory, injectable for tests.
	Home string
}

// New builds a Prober for the staging root using the given runner.
func New(stagingRoot string, runner Runner) (*Prober, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return &Prober{StagingRoot: stagingRoot, Runner: runner, Home: home}, nil
}

// EnvDir returns the directory the artifacts are written to.
func (p *Prober) EnvDir() string {
	return filepath.Join(p.StagingRoot, "tools", "env")
}

// Capture runs the full diagnostic sequence. Individual step failures are
// recorded in the artifacts themselves (or warned about on stderr); only
// failure to create the artifact directory is returned.
func (p *Prober) Capture() error {
	if err := os.MkdirAll(p.EnvDir(), 0755); err != nil {
		return fmt.Errorf("failed to create env snapshot directory: %w", err)
	}

	// Interpreter and host basics.
	p.captureCommand("python_version.txt", "python -V")
	p.captureCommand("python_path.txt", "which python")
	p.captureCommand("python_executable.txt", `python -c "import sys; print(sys.executable)"`)
	p.captureCommand("uname.txt", "uname -a")
	p.captureCommand("platform.txt", `python -c "import platform; print(platform.platform())"`)

	// Pip snapshot.
	p.captureCommand("pip_version.txt", "python -m pip -V")
	p.captureCommand("pip-freeze.txt", "python -m pip freeze")
	p.captureCommand("pip-show-cobaya.txt", "python -m pip show cobaya 2>/dev/null || true")

	// Cobaya version, CLI, and classy presence.
	p.captureCommand("cobaya_version.txt",
		`python -c "import cobaya; print('cobaya', cobaya.__version__); print('cobaya_file', cobaya.__file__)"`)
	p.captureCommand("cobaya_cli.txt",
		`python -c "import shutil; print('cobaya_cli', shutil.which('cobaya'))"`)
	p.captureCommand("classy_present.txt",
		`python -c "import importlib.util as u; print('classy_found', u.find_spec('classy') is not None)"`)

	p.captureCobayaConfig()

	p.captureCommand("cobaya_packages_path_env.txt",
		`echo "COBAYA_PACKAGES_PATH=${COBAYA_PACKAGES_PATH:-'(not set)'}"`)

	p.capturePackagesPath()

	return nil
}

// captureCobayaConfig checks the fixed Cobaya config locations under home
// and records which exist, plus the first one's path and verbatim contents.
func (p *Prober) captureCobayaConfig() {
	candidates := []string{
		filepath.Join(p.Home, ".cobaya", "config.yaml"),
		filepath.Join(p.Home, ".config", "cobaya", "config.yaml"),
	}

	listing := "config_candidates:\n"
	var found string
	for _, c := range candidates {
		exists := fileExists(c)
		listing += fmt.Sprintf("%s exists=%t\n", c, exists)
		if exists && found == "" {
			found = c
		}
	}
	p.writeArtifact("cobaya_config_candidates.txt", listing)

	if found == "" {
		p.writeArtifact("cobaya_config_path.txt", "(no config.yaml found)\n")
		p.writeArtifact("cobaya_config_contents.txt", "(no config.yaml found)\n")
		return
	}

	p.writeArtifact("cobaya_config_path.txt", filepath.ToSlash(found)+"\n")
	contents, err := os.ReadFile(found)
	if err != nil {
		p.writeArtifact("cobaya_config_contents.txt", fmt.Sprintf("ERROR reading %s:\n%v\n", found, err))
		return
	}
	p.writeArtifact("cobaya_config_contents.txt", string(contents))
}

// capturePackagesPath greps the staged files for packages_path, extracts and
// resolves the first value, and, when it points at a real directory, probes
// it for a CLASS source checkout and fingerprints what it finds.
func (p *Prober) capturePackagesPath() {
	grepCmd := fmt.Sprintf(`cd '%s' && grep -R "packages_path" -n . 2>/dev/null || true`,
		filepath.ToSlash(p.StagingRoot))
	p.captureCommand("packages_path_grep.txt", grepCmd)

	grepText, err := os.ReadFile(filepath.Join(p.EnvDir(), "packages_path_grep.txt"))
	if err != nil {
		grepText = nil
	}

	extracted := ExtractPackagesPath(string(grepText))

	var resolved string
	if extracted != "" {
		resolved = ResolvePackagesPath(extracted, p.Home, p.StagingRoot)
	}

	if resolved == "" {
		p.writeArtifact("packages_path_resolved.txt", "(not found in YAMLs)\n")
	} else {
		p.writeArtifact("packages_path_resolved.txt", filepath.ToSlash(resolved)+"\n")
	}

	if resolved != "" && dirExists(resolved) {
		p.captureCommand("packages_path_ls.txt", fmt.Sprintf("ls -la '%s'", filepath.ToSlash(resolved)))
		p.captureClassDir(resolved)
		return
	}

	p.writeArtifact("packages_path_ls.txt",
		"packages_path could not be resolved from staged YAMLs.\n"+
			"If you used Cobaya externals, add packages_path: /path/to/cobaya_packages to YAML or share Cobaya config.\n")
	p.writeArtifact("class_dir_found.txt", "CLASS dir not searched because packages_path was not found.\n")
	p.writeArtifact("class_git_hash.txt", "(skipped: packages_path not found)\n")
	p.writeArtifact("class_fingerprint_sha256.txt", "(skipped: packages_path not found)\n")
}

// captureClassDir locates the CLASS checkout under the resolved packages
// path, records git identity if any, and writes the source fingerprint.
func (p *Prober) captureClassDir(packagesPath string) {
	classDir := FindClassDir(packagesPath)

	if classDir == "" {
		p.writeArtifact("class_dir_found.txt", "(CLASS dir not found under packages_path)\n")
		p.writeArtifact("class_git_hash.txt", "(skipped: CLASS dir not found under packages_path)\n")
		p.writeArtifact("class_fingerprint_sha256.txt", "(skipped: CLASS dir not found under packages_path)\n")
		return
	}

	p.writeArtifact("class_dir_found.txt", filepath.ToSlash(classDir)+"\n")

	slashDir := filepath.ToSlash(classDir)
	p.captureCommand("class_git_hash.txt",
		fmt.Sprintf("git -C '%s' rev-parse HEAD 2>/dev/null || echo '(not a git repo)'", slashDir))
	p.captureCommand("class_git_status.txt",
		fmt.Sprintf("git -C '%s' status --porcelain 2>/dev/null || true", slashDir))
	p.captureCommand("class_dir_ls.txt", fmt.Sprintf("ls -la '%s'", slashDir))

	if err := WriteFingerprint(classDir, filepath.Join(p.EnvDir(), "class_fingerprint_sha256.txt")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write CLASS fingerprint: %v\n", err)
	}
}

// captureCommand runs one diagnostic command and writes its combined output
// verbatim. An empty output gets a placeholder; a failure to invoke at all
// (as opposed to a non-zero exit) gets a descriptive error artifact.
func (p *Prober) captureCommand(name, command string) {
	out, err := p.Runner.CombinedOutput(command)
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.writeArtifact(name, fmt.Sprintf("ERROR running command:\n%s\n\n%v\n", command, err))
		return
	}
	if out == "" {
		out = "(no output)\n"
	}
	p.writeArtifact(name, out)
}

func (p *Prober) writeArtifact(name, content string) {
	path := filepath.Join(p.EnvDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write %s: %v\n", path, err)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
