// Package cmd contains the CLI commands for the grph binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/klytics/conokit/cmd/completion"
	cmdconfig "github.com/klytics/conokit/cmd/config"
	"github.com/klytics/conokit/cmd/consolidate"
	"github.com/klytics/conokit/cmd/generate"
	"github.com/klytics/conokit/cmd/inspect"
	"github.com/klytics/conokit/cmd/version"
	cmdwatch "github.com/klytics/conokit/cmd/watch"
	"github.com/klytics/conokit/internal/output"
)

var (
	configPath string
	jsonOutput bool
	verbose    bool
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grph",
		Short: "Chart generation for consolidated Cono reports",
		Long: `grph turns consolidated Excel reports into chart workbooks.

For every Cono folder it picks the latest report, draws one chart per configured metric
from the date-prefixed columns (08052025_OE_Count, ...), cleans the Section 11 sheet and
writes <cono>_Src_<source ts>__Grph_<run ts>.xlsx next to the source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			if noColor || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./config_grph.yaml, then ~/.grph/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	rootCmd.AddCommand(generate.NewCommand())
	rootCmd.AddCommand(inspect.NewCommand())
	rootCmd.AddCommand(consolidate.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code attached to any returned error.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(output.CodeOf(err))
	}
}
