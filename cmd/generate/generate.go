// Package generate provides the "grph generate" command.
package generate

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/conokit/cmd/cmdutil"
	"github.com/klytics/conokit/internal/discover"
	gen "github.com/klytics/conokit/internal/generate"
	"github.com/klytics/conokit/internal/output"
	"github.com/klytics/conokit/internal/progress"
)

type summary struct {
	Skipped  []discover.Pick `json:"skipped,omitempty"`
	Outcomes []gen.Outcome   `json:"outcomes"`
}

// NewCommand returns the generate command.
func NewCommand() *cobra.Command {
	var (
		conos       []string
		file        string
		dryRun      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate chart workbooks for every Cono folder",
		Long: `Picks the latest report workbook in each Cono folder, builds one chart sheet per
configured chart, cleans the Section 11 sheet, copies the original sheets and appends a
Run_Log sheet. A Cono whose workbook cannot be read or written fails alone; the others
still run.

Examples:
  grph generate
  grph generate --cono Cono1,Cono3 --dryrun
  grph generate --file ./Cono1/Consolidated_reports/Report_08052025_07_00.xlsx --cono Cono1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag := cmdutil.JSON(cmd)
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := cmdutil.Logger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var res summary
			var jobs []gen.Job
			if file != "" {
				fi, err := discover.Stat(file)
				if err != nil {
					return output.WithCode(output.ExitUserError, err)
				}
				name := filepath.Base(filepath.Dir(file))
				if len(conos) > 0 {
					name = conos[0]
				}
				jobs = append(jobs, gen.Job{Cono: name, Source: fi})
			} else {
				picks, err := gen.Plan(cfg)
				if err != nil {
					return output.WithCode(output.ExitUserError, err)
				}
				picks = filterPicks(picks, conos)
				for _, p := range picks {
					if p.File == nil {
						res.Skipped = append(res.Skipped, p)
					}
				}
				jobs = gen.Jobs(picks)
			}

			if len(jobs) == 0 {
				err := fmt.Errorf("no workbooks found in %s", strings.Join(cfg.Discovery.Paths, ", "))
				if jsonFlag {
					output.PrintJSONError("generate", err, output.ExitUserError)
				}
				return output.WithCode(output.ExitUserError, err)
			}

			ctx, cancel := cmdutil.SignalContext()
			defer cancel()

			bar := progress.New("generate", len(jobs), jsonFlag)
			opts := gen.RunOptions{
				DryRun: dryRun,
				OnDone: func(o gen.Outcome) { bar.Increment(o.Cono) },
			}

			start := time.Now()
			res.Outcomes = gen.RunAll(ctx, jobs, cfg, logger, opts, concurrency)
			bar.Finish()
			failed := gen.Failed(res.Outcomes)

			if jsonFlag {
				if err := output.PrintJSON("generate", res); err != nil {
					return err
				}
			} else {
				printSummary(cmd, res, time.Since(start))
			}

			if failed > 0 {
				return output.WithCode(output.ExitSystemError,
					fmt.Errorf("%d of %d Cono(s) failed", failed, len(res.Outcomes)))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&conos, "cono", nil, "Only process these Cono names (with --file: the Cono name to use)")
	cmd.Flags().StringVar(&file, "file", "", "Process this workbook instead of discovering one")
	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "Build everything but do not write output files")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of Cono folders processed in parallel")

	return cmd
}

func filterPicks(picks []discover.Pick, conos []string) []discover.Pick {
	if len(conos) == 0 {
		return picks
	}
	want := make(map[string]bool, len(conos))
	for _, c := range conos {
		want[strings.ToLower(c)] = true
	}
	var out []discover.Pick
	for _, p := range picks {
		if want[strings.ToLower(p.Cono.Name)] {
			out = append(out, p)
		}
	}
	return out
}

func printSummary(cmd *cobra.Command, res summary, elapsed time.Duration) {
	w := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()

	for _, p := range res.Skipped {
		output.Line(w, output.StatusSkipped, "%s: %s", bold(p.Cono.Name), p.Error)
	}

	ok, skipped, failed := 0, 0, 0
	for _, o := range res.Outcomes {
		if o.Err != nil {
			output.Line(w, output.StatusError, "%s: %s", bold(o.Cono), o.Error)
			continue
		}
		r := o.Result
		ok += r.OK
		skipped += r.Skipped
		failed += r.Failed

		status := output.StatusOK
		if r.Failed > 0 {
			status = output.StatusSkipped
		}
		verb := "wrote"
		if r.DryRun {
			verb = "would write"
		}
		output.Line(w, status, "%s: %s %s (%d ok, %d skipped, %d failed)",
			bold(o.Cono), verb, r.Output, r.OK, r.Skipped, r.Failed)
		for _, e := range r.Entries {
			if e.Status != "ok" {
				fmt.Fprintf(w, "      %s %s: %s\n", output.Symbol(string(e.Status)), e.ID, e.Reason)
			}
		}
	}

	output.Summary(w, ok, skipped, failed)
	fmt.Fprintf(w, "  %d Cono(s) in %s\n", len(res.Outcomes), elapsed.Round(time.Millisecond))
}
