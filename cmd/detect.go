package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"chainpack/internal/collector"
	"github.com/spf13/cobra"
)

var detectBase string

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List the run directories auto-detection would select",
	Long: `Preview what --auto-detect-runs would stage. A directory qualifies when it
directly contains at least one .yaml file and chain output (a numbered .N.txt
segment, or any .txt file).

Example:
  chainpack detect --base ~/chains`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVar(&detectBase, "base", ".", "Base directory containing the run folders")
}

func runDetect(cmd *cobra.Command, args []string) error {
	base, err := resolvePath(detectBase)
	if err != nil {
		return err
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return usagef("base does not exist: %s", base)
	}

	runDirs, err := collector.DetectRunDirs(base)
	if err != nil {
		return err
	}

	if len(runDirs) == 0 {
		fmt.Println("No run directories detected")
		return nil
	}

	for _, d := range runDirs {
		fmt.Println(filepath.Base(d))
	}
	return nil
}
