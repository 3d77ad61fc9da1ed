// Package config provides CLI commands for configuration management.
package config

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/conokit/cmd/cmdutil"
	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage grph configuration",
		Long: `View, validate and create the grph configuration file.

The file is looked up as ./config_grph.yaml, ./config_grph.json, then ~/.grph/config.yaml.
Any key can be overridden with a GRPH_ environment variable, e.g. GRPH_OUTPUT_TIMEZONE=UTC.`,
	}

	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func newInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteSample(path, force); err != nil {
				return output.WithCode(output.ExitUserError, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return output.WithCode(output.ExitUserError, err)
			}

			if cmdutil.JSON(cmd) {
				return output.PrintJSON("config show", cfg)
			}

			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			if cfg.Path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Path)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# built-in defaults")
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the config file path that would be used",
		Run: func(cmd *cobra.Command, args []string) {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return output.WithCode(output.ExitUserError, err)
			}
			issues := config.Validate(cfg)

			if cmdutil.JSON(cmd) {
				if err := output.PrintJSON("config validate", issues); err != nil {
					return err
				}
			} else {
				printIssues(cmd, issues)
			}

			if config.HasErrors(issues) {
				return output.WithCode(output.ExitUserError, fmt.Errorf("configuration has errors"))
			}
			return nil
		},
	}
}

func printIssues(cmd *cobra.Command, issues []config.ConfigIssue) {
	w := cmd.OutOrStdout()
	errors, warnings := 0, 0
	for _, issue := range issues {
		switch issue.Severity {
		case "error":
			errors++
		case "warning":
			warnings++
		}
	}

	if errors == 0 && warnings == 0 {
		color.New(color.FgGreen).Fprintln(w, "Configuration is valid")
	} else {
		fmt.Fprintf(w, "Config validation: %d errors, %d warnings\n\n", errors, warnings)
	}

	for _, issue := range issues {
		switch issue.Severity {
		case "error":
			color.New(color.FgRed).Fprintf(w, "  %s: %s\n", issue.Key, issue.Message)
		case "warning":
			color.New(color.FgYellow).Fprintf(w, "  %s: %s\n", issue.Key, issue.Message)
		case "info":
			color.New(color.FgGreen).Fprintf(w, "  %s\n", issue.Message)
		}
		if issue.Fix != "" {
			fmt.Fprintf(w, "     Fix: %s\n", issue.Fix)
		}
	}
}
