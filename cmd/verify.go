package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"chainpack/internal/hashing"
	"chainpack/internal/manifest"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <staging-dir>",
	Short: "Re-hash a staging directory against its MANIFEST.txt",
	Long: `Recompute the digest of every file listed in the staging directory's
MANIFEST.txt and report anything missing or changed. Because the manifest
records destination digests, this detects corruption introduced after
packaging.

Example:
  chainpack verify ace_repo_staging`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	root, err := resolvePath(args[0])
	if err != nil {
		return err
	}

	entries, err := manifest.Read(filepath.Join(root, manifest.FileName))
	if err != nil {
		return err
	}

	var problems []string
	for _, e := range entries {
		path := filepath.Join(root, filepath.FromSlash(e.Path))

		info, err := os.Stat(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("missing: %s", e.Path))
			continue
		}
		if info.Size() != e.Size {
			problems = append(problems, fmt.Sprintf("size changed: %s (%d -> %d bytes)", e.Path, e.Size, info.Size()))
			continue
		}

		digest, err := hashing.File(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("unreadable: %s (%v)", e.Path, err))
			continue
		}
		if digest != e.SHA256 {
			problems = append(problems, fmt.Sprintf("digest changed: %s", e.Path))
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Printf("  ✗ %s\n", p)
		}
		return fmt.Errorf("%d of %d files failed verification", len(problems), len(entries))
	}

	color.New(color.FgGreen).Printf("✓ Verified %d files against %s\n", len(entries), manifest.FileName)
	return nil
}
