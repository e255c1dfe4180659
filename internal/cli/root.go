// Package cli implements the sopmatch command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/sopmatch/internal/config"
	"github.com/okian/sopmatch/pkg/logger"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	configPath string
	outputFmt  string
	debug      bool
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sopmatch",
	Short: "Rank expert reviewers for Statement of Purpose submissions",
	Long: `sopmatch ranks a pool of domain-expert reviewers against a Statement
of Purpose using TF-IDF content similarity, declared-field expertise overlap
and reviewer spare capacity.

The same configuration as the HTTP service applies: defaults, .env,
a YAML file (--config or SOPMATCH_CONFIG) and SOPMATCH_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Logs go to stderr so stdout stays parseable.
		if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
			return err
		}
		level := "warn"
		if debug {
			level = "debug"
		}
		return logger.SetLevelString(level)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML config file (default: $SOPMATCH_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug logging on stderr")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sopmatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", buildTime)
	},
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFile(cmd.Context(), configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
