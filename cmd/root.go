package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chainpack/internal/policy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// ErrUsage marks validation failures: bad arguments, unresolvable run
// directories, an existing output directory without --force. They abort
// before any destructive action and exit with code 2; every other failure
// exits 1.
var ErrUsage = errors.New("usage error")

// usagef builds a validation error carrying the ErrUsage sentinel.
func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

var rootCmd = &cobra.Command{
	Use:   "chainpack",
	Short: "Package Cobaya run artifacts into a checksummed staging directory",
	Long: `chainpack assembles a clean staging folder containing only the files worth
publishing from a set of Cobaya runs:
  - run configuration (YAMLs), chain txt segments, covmat/progress/checkpoint
  - explicitly configured auxiliary files (aliases, figure scripts)
  - an optional best-effort environment snapshot (Python, pip, Cobaya, CLASS)

Every staged file is checksummed into a deterministic MANIFEST.txt, and the
tree can be bundled as a zip or tar.gz archive for upload.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		if errors.Is(err, ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/chainpack/config.toml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "chainpack")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("patterns.include", policy.DefaultInclude())
	viper.SetDefault("patterns.exclude", policy.DefaultExclude())
	viper.SetDefault("explicit.files", policy.DefaultExplicitFiles())
	viper.SetDefault("env.activate", "")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// resolvePath expands a leading ~ and makes the path absolute.
func resolvePath(path string) (string, error) {
	expanded, err := policy.ExpandUser(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}
