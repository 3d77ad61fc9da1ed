// Package consolidate provides the "grph consolidate" command.
package consolidate

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/conokit/cmd/cmdutil"
	"github.com/klytics/conokit/internal/config"
	cons "github.com/klytics/conokit/internal/consolidate"
	"github.com/klytics/conokit/internal/output"
)

type outcome struct {
	Cono   string       `json:"cono"`
	Result *cons.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// NewCommand returns the consolidate command.
func NewCommand() *cobra.Command {
	var (
		conos  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge dated report folders into one workbook per Cono",
		Long: `For every job under "consolidate" in the config, reads <source_path>/*/<file> for each
section, renames the compared columns to <MMDDYYYY>_<column> using the report date, and
outer-joins the dates on the key columns. Folders containing "_del" are ignored.

Examples:
  grph consolidate
  grph consolidate --cono Cono1 --dryrun`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := cmdutil.Logger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			jobs := selectJobs(cfg.Consolidate, conos)
			if len(jobs) == 0 {
				return output.WithCode(output.ExitUserError, fmt.Errorf("no consolidate jobs configured"))
			}

			ctx, cancel := cmdutil.SignalContext()
			defer cancel()

			var outcomes []outcome
			failed := 0
			for _, job := range jobs {
				o := outcome{Cono: job.Cono}
				res, err := cons.Run(ctx, job, cons.Options{DryRun: dryRun, Logger: logger})
				if err != nil {
					o.Error = err.Error()
					failed++
				} else {
					o.Result = res
				}
				outcomes = append(outcomes, o)
			}

			if cmdutil.JSON(cmd) {
				if err := output.PrintJSON("consolidate", outcomes); err != nil {
					return err
				}
			} else {
				printOutcomes(cmd, outcomes, dryRun)
			}

			if failed > 0 {
				return output.WithCode(output.ExitSystemError, fmt.Errorf("%d of %d consolidation(s) failed", failed, len(jobs)))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&conos, "cono", nil, "Only run the jobs for these Cono names")
	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "Merge but do not write the workbook")

	return cmd
}

func selectJobs(jobs []config.ConsolidateJob, conos []string) []config.ConsolidateJob {
	if len(conos) == 0 {
		return jobs
	}
	var out []config.ConsolidateJob
	for _, j := range jobs {
		for _, c := range conos {
			if strings.EqualFold(j.Cono, c) {
				out = append(out, j)
				break
			}
		}
	}
	return out
}

func printOutcomes(cmd *cobra.Command, outcomes []outcome, dryRun bool) {
	w := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()
	for _, o := range outcomes {
		switch {
		case o.Error != "":
			output.Line(w, output.StatusError, "%s: %s", bold(o.Cono), o.Error)
			continue
		case o.Result.Output == "":
			output.Line(w, output.StatusSkipped, "%s: no data consolidated", bold(o.Cono))
		case dryRun:
			output.Line(w, output.StatusOK, "%s: would write %s", bold(o.Cono), o.Result.Output)
		default:
			output.Line(w, output.StatusOK, "%s: wrote %s", bold(o.Cono), o.Result.Output)
		}
		for _, s := range o.Result.Sections {
			if s.Sheet != "" {
				fmt.Fprintf(w, "      %s: %d input(s), %d rows x %d columns\n", s.Sheet, s.Inputs, s.Rows, s.Columns)
			} else {
				fmt.Fprintf(w, "      %s: %s\n", s.File, color.YellowString("no data"))
			}
			for _, n := range s.Notes {
				fmt.Fprintf(w, "        %s\n", n)
			}
		}
	}
}
