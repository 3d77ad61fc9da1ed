// Package inspect provides the "grph inspect" command.
package inspect

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/conokit/cmd/cmdutil"
	"github.com/klytics/conokit/internal/discover"
	"github.com/klytics/conokit/internal/generate"
	"github.com/klytics/conokit/internal/output"
)

// Plan is what generate would do for one Cono.
type Plan struct {
	Cono      string `json:"cono"`
	Dir       string `json:"dir"`
	Workbook  string `json:"workbook,omitempty"`
	Size      int64  `json:"size,omitempty"`
	SourceTS  string `json:"sourceTs,omitempty"`
	FromStamp bool   `json:"fromFilenameStamp,omitempty"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewCommand returns the inspect command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show which workbook generate would pick for every Cono",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			picks, err := generate.Plan(cfg)
			if err != nil {
				return output.WithCode(output.ExitUserError, err)
			}
			loc, err := discover.Location(cfg.Output.Timezone)
			if err != nil {
				return output.WithCode(output.ExitUserError, err)
			}

			now := time.Now()
			plans := make([]Plan, 0, len(picks))
			for _, p := range picks {
				plan := Plan{Cono: p.Cono.Name, Dir: p.Cono.Dir, Error: p.Error}
				if f := p.File; f != nil {
					src := discover.SourceTime(*f, loc)
					plan.Workbook = f.Path
					plan.Size = f.Size
					plan.FromStamp = f.HasStamp
					plan.SourceTS = discover.FormatStamp(src, discover.SourceStampFormat)
					name := discover.OutputName(cfg.Output.FilenamePattern, p.Cono.Name, src, now, loc)
					plan.Output = filepath.Join(cfg.OutputDir(f.Path), name)
				}
				plans = append(plans, plan)
			}

			if cmdutil.JSON(cmd) {
				return output.PrintJSON("inspect", plans)
			}
			if len(plans) == 0 {
				color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "No Cono folders matched the discovery paths")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "CONO\tWORKBOOK\tSIZE\tSOURCE TS\tOUTPUT\n")
			for i, plan := range plans {
				if plan.Error != "" {
					fmt.Fprintf(w, "%s\t%s\t\t\t\n", plan.Cono, color.RedString(plan.Error))
					continue
				}
				ts := plan.SourceTS
				if !plan.FromStamp {
					ts += " (mtime)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					plan.Cono, filepath.Base(plan.Workbook), picks[i].File.HumanSize(), ts, filepath.Base(plan.Output))
			}
			return w.Flush()
		},
	}
}
