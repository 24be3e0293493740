package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chainpack/internal/archive"
	"chainpack/internal/collector"
	"chainpack/internal/envprobe"
	"chainpack/internal/manifest"
	"chainpack/internal/policy"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	stageBase         string
	stageOut          string
	stageRuns         []string
	stageRunsFile     string
	stageAutoDetect   bool
	stageForce        bool
	stageZip          bool
	stageTarGz        bool
	stageEnvSnapshot  bool
	stageVenvActivate string
)

// figCmdSnippet is the figure-generation command recorded in the packaging
// notes so the repository README can quote it verbatim.
const figCmdSnippet = `python3 generate_fig4_fig5_from_chains.py \
  --tracker-dir ~/ace_global_fixed_desiDR2 \
  --lcdm-dir ~/lcdm_baseline_desiDR2 \
  --output-dir ~/paper_plots
`

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Assemble a checksummed staging directory from selected runs",
	Long: `Copy the publishable files of the selected run directories into a fresh
staging tree, mirroring their relative structure, then write MANIFEST.txt and
PACKAGING_NOTES.txt and optionally archive the result.

Run selection is one of:
  --runs name1,name2,...      explicit run directory names under --base
  --runs-from-file list.txt   one name per line, # comments allowed
  --auto-detect-runs          any directory with a .yaml and chain output

Examples:
  chainpack stage --runs ace_global_fixed_desiDR2,lcdm_baseline_desiDR2 --out ace_repo_staging --force --zip --env-snapshot
  chainpack stage --auto-detect-runs --out ace_repo_staging --force --targz --env-snapshot`,
	RunE: runStage,
}

func init() {
	rootCmd.AddCommand(stageCmd)

	stageCmd.Flags().StringVar(&stageBase, "base", ".", "Base directory containing the run folders")
	stageCmd.Flags().StringVar(&stageOut, "out", "", "Output staging directory (created fresh)")
	stageCmd.Flags().StringSliceVar(&stageRuns, "runs", []string{}, "Run folder names to include")
	stageCmd.Flags().StringVar(&stageRunsFile, "runs-from-file", "", "Text file with one run folder name per line")
	stageCmd.Flags().BoolVar(&stageAutoDetect, "auto-detect-runs", false, "Auto-detect run directories under --base")
	stageCmd.Flags().BoolVar(&stageForce, "force", false, "Overwrite --out if it exists")
	stageCmd.Flags().BoolVar(&stageZip, "zip", false, "Create a zip archive of the staging dir")
	stageCmd.Flags().BoolVar(&stageTarGz, "targz", false, "Create a tar.gz archive of the staging dir")
	stageCmd.Flags().BoolVar(&stageEnvSnapshot, "env-snapshot", false, "Capture environment fingerprint into tools/env/")
	stageCmd.Flags().StringVar(&stageVenvActivate, "venv-activate", "", "Path to venv activate script, e.g. ~/cobaya_env/bin/activate")
}

func runStage(cmd *cobra.Command, args []string) error {
	if stageOut == "" {
		return usagef("--out is required")
	}

	pol := policy.FromViper()

	base, err := resolvePath(stageBase)
	if err != nil {
		return err
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return usagef("base does not exist: %s", base)
	}

	out, err := resolvePath(stageOut)
	if err != nil {
		return err
	}

	runs, runDirs, err := resolveRunSelection(base)
	if err != nil {
		return err
	}

	if err := collector.EnsureEmptyDir(out, stageForce); err != nil {
		if errors.Is(err, collector.ErrOutputExists) {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return err
	}

	// Copy run directories. Any copy failure aborts: a partial manifest is
	// worse than no package at all.
	var copied []collector.CopiedFile
	for _, dir := range runDirs {
		fmt.Printf("Staging run: %s\n", filepath.Base(dir))
		files, err := collector.CopyRunDir(dir, out, pol)
		if err != nil {
			return err
		}
		copied = append(copied, files...)
	}

	// Copy explicit auxiliary files; a missing one is a warning, not an error.
	warn := color.New(color.FgYellow)
	for _, f := range pol.ExplicitFiles {
		src, err := resolvePath(f)
		if err != nil {
			return err
		}
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			warn.Fprintf(os.Stderr, "Warning: explicit file missing, skipped: %s\n", src)
			continue
		}

		var dst string
		if filepath.Base(src) == ".bash_aliases" {
			dst = filepath.Join(out, "tools", ".bash_aliases")
		} else {
			dst = filepath.Join(out, "paper_plots", filepath.Base(src))
		}

		cf, err := collector.CopyFile(src, dst)
		if err != nil {
			return err
		}
		copied = append(copied, cf)
	}

	// Environment fingerprint, best effort.
	if stageEnvSnapshot {
		activate := stageVenvActivate
		if activate == "" {
			activate = viper.GetString("env.activate")
		}
		prober, err := envprobe.New(out, envprobe.BashRunner{Activate: activate})
		if err != nil {
			warn.Fprintf(os.Stderr, "Warning: environment snapshot skipped: %v\n", err)
		} else if err := prober.Capture(); err != nil {
			warn.Fprintf(os.Stderr, "Warning: environment snapshot incomplete: %v\n", err)
		}
	}

	if err := manifest.Write(out, copied); err != nil {
		return err
	}
	if err := writeNotes(out, base, runs, pol); err != nil {
		return err
	}

	var archivePath string
	switch {
	case stageZip:
		archivePath, err = archive.Zip(out)
	case stageTarGz:
		archivePath, err = archive.TarGz(out)
	}
	if err != nil {
		return err
	}
	if archivePath != "" {
		fmt.Printf("Created archive: %s\n", archivePath)
	}

	color.New(color.FgGreen).Printf("\n✓ Staging complete: %s\n", out)
	fmt.Printf("  Files copied: %d (manifest excludes env snapshot files)\n", len(copied))
	if stageEnvSnapshot {
		fmt.Printf("  Environment snapshot: %s\n", filepath.Join(out, "tools", "env"))
	}

	return nil
}

// resolveRunSelection turns the three selection modes into run names and
// existing run directories. --runs overrides --runs-from-file, and
// --auto-detect-runs overrides both. Fails before any filesystem mutation
// when the selection is empty or a named run does not resolve.
func resolveRunSelection(base string) ([]string, []string, error) {
	var runs []string

	if stageRunsFile != "" {
		rf, err := resolvePath(stageRunsFile)
		if err != nil {
			return nil, nil, err
		}
		if _, err := os.Stat(rf); err != nil {
			return nil, nil, usagef("runs-from-file not found: %s", rf)
		}
		runs, err = collector.ReadRunsFile(rf)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(stageRuns) > 0 {
		runs = stageRuns
	}

	if stageAutoDetect {
		runDirs, err := collector.DetectRunDirs(base)
		if err != nil {
			return nil, nil, err
		}
		runs = nil
		for _, d := range runDirs {
			runs = append(runs, filepath.Base(d))
		}
		return runs, runDirs, nil
	}

	if len(runs) == 0 {
		return nil, nil, usagef("provide --runs ..., or --runs-from-file, or --auto-detect-runs")
	}

	var runDirs []string
	for _, r := range runs {
		d := filepath.Join(base, r)
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			return nil, nil, usagef("run dir not found: %s", d)
		}
		runDirs = append(runDirs, d)
	}
	return runs, runDirs, nil
}

// writeNotes records the packaging inputs in a human-readable summary
// beside the manifest.
func writeNotes(stagingRoot, base string, runs []string, pol policy.Policy) error {
	runList := "(auto-detected)"
	if len(runs) > 0 {
		runList = strings.Join(runs, ", ")
	}

	notes := fmt.Sprintf(`Packaging notes

Base directory:
  %s

Run directories included:
  %s

Included patterns:
  %v

Excluded patterns:
  %v

Explicit extra files:
  %v

Environment snapshot captured:
  %t

Figure command used in the paper (for README):
%s`,
		base, runList, pol.IncludePatterns, pol.ExcludePatterns,
		pol.ExplicitFiles, stageEnvSnapshot, figCmdSnippet)

	path := filepath.Join(stagingRoot, "PACKAGING_NOTES.txt")
	if err := os.WriteFile(path, []byte(notes), 0644); err != nil {
		return fmt.Errorf("failed to write packaging notes: %w", err)
	}
	return nil
}
