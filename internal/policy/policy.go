// Package policy holds the file-selection policy: which run files are worth
// publishing, which are noise, and which auxiliary files ride along. The
// defaults mirror a typical Cobaya run layout and can be overridden in
// ~/.config/chainpack/config.toml.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Policy is the explicit selection configuration passed into the collector
// and the stage command. It is a plain value so tests can substitute
// alternate pattern sets without touching global state.
type Policy struct {
	// IncludePatterns selects run files worth staging (configs, chain
	// segments, covmat/progress/checkpoint files).
	IncludePatterns []string

	// ExcludePatterns rejects files even when an include pattern matches.
	ExcludePatterns []string

	// ExplicitFiles are auxiliary files copied into the staging tree
	// regardless of the run directories, ~-expanded at use.
	ExplicitFiles []string
}

// DefaultInclude is the stock include set for Cobaya runs.
func DefaultInclude() []string {
	return []string{
		"*.yaml",
		"*.input.yaml",
		"*.updated.yaml",
		"*.paramnames",
		"*.covmat",
		"*.progress",
		"*.checkpoint",
		"*.txt",
		"*.A.txt", "*.B.txt",
	}
}

// DefaultExclude is the stock exclude set: logs, scratch files, and binary
// products that do not belong in a reproducibility package.
func DefaultExclude() []string {
	return []string{
		"*.log",
		"*.tmp",
		"*.bak",
		"*.npy",
		"*.npz",
		"*.pkl",
		"*.pickle",
		"*.hdf5",
		"*.h5",
		"*.dat",
		"*.fits",
		"*.pdf",
		"*.png",
		"*.jpg",
		"*.jpeg",
		"*.gif",
		"__pycache__/*",
		".ipynb_checkpoints/*",
	}
}

// DefaultExplicitFiles is the stock auxiliary-file list.
func DefaultExplicitFiles() []string {
	return []string{
		"~/.bash_aliases",
		"~/paper_plots/generate_fig4_fig5_from_chains.py",
	}
}

// FromViper builds a Policy from the loaded viper configuration, falling
// back to the stock defaults for any key that was never set.
func FromViper() Policy {
	p := Policy{
		IncludePatterns: viper.GetStringSlice("patterns.include"),
		ExcludePatterns: viper.GetStringSlice("patterns.exclude"),
		ExplicitFiles:   viper.GetStringSlice("explicit.files"),
	}
	if !viper.IsSet("patterns.include") {
		p.IncludePatterns = DefaultInclude()
	}
	if !viper.IsSet("patterns.exclude") {
		p.ExcludePatterns = DefaultExclude()
	}
	if !viper.IsSet("explicit.files") {
		p.ExplicitFiles = DefaultExplicitFiles()
	}
	return p
}

// ExpandUser replaces a leading ~ with the user's home directory.
func ExpandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
