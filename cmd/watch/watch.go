// Package watch provides the "grph watch" commands.
package watch

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/conokit/cmd/cmdutil"
	"github.com/klytics/conokit/internal/discover"
	"github.com/klytics/conokit/internal/generate"
	"github.com/klytics/conokit/internal/output"
	w "github.com/klytics/conokit/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate charts when new reports land in a Cono folder",
		Long: `Watch the discovered Cono folders and run generate for a Cono whenever a report
workbook is created or modified in it. Generated workbooks match the ignore list and do
not trigger another run.

Example:
  grph watch start --debounce 5s
  grph watch status
  grph watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var (
		conos    []string
		debounce time.Duration
		initial  bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start watching the Cono folders",
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

			found, err := discover.Conos(cfg.Discovery.Paths)
			if err != nil {
				return output.WithCode(output.ExitUserError, err)
			}
			found = filterConos(found, conos)
			if len(found) == 0 {
				return output.WithCode(output.ExitUserError,
					fmt.Errorf("no Cono folders match %s", strings.Join(cfg.Discovery.Paths, ", ")))
			}

			ctx, cancel := cmdutil.SignalContext()
			defer cancel()

			runOpts := generate.RunOptions{DryRun: dryRun}
			if initial {
				picks, err := generate.Plan(cfg)
				if err != nil {
					return output.WithCode(output.ExitUserError, err)
				}
				outcomes := generate.RunAll(ctx, generate.Jobs(picks), cfg, logger, runOpts, 1)
				if n := generate.Failed(outcomes); n > 0 {
					logger.Warn("initial run had failures", zap.Int("failed", n))
				}
			}

			watcher, err := w.New(w.Config{
				Conos:    found,
				Options:  generate.DiscoveryOptions(cfg),
				Debounce: debounce,
			}, w.Generate(cfg, logger, runOpts), logger)
			if err != nil {
				return output.WithCode(output.ExitSystemError, err)
			}

			stateDir := w.DefaultStateDir()
			if err := w.WritePIDFile(stateDir); err != nil {
				logger.Warn("could not write PID file", zap.Error(err))
			}
			defer w.RemovePIDFile(stateDir)

			out := cmd.OutOrStdout()
			if !cmdutil.JSON(cmd) {
				fmt.Fprintf(out, "Watching %d Cono folder(s)\n", len(found))
				fmt.Fprintln(out, "Press Ctrl+C to stop")
			}

			if err := watcher.Start(ctx); err != nil {
				return output.WithCode(output.ExitSystemError, err)
			}

			events := watcher.Events()
			if cmdutil.JSON(cmd) {
				return output.PrintJSON("watch start", events)
			}
			fmt.Fprintln(out)
			for _, e := range events {
				status := output.StatusOK
				switch e.Status {
				case w.StatusError:
					status = output.StatusError
				case w.StatusSkipped:
					status = output.StatusSkipped
				}
				line := fmt.Sprintf("%s %s %s", e.Time.Format("15:04:05"), e.Operation, e.Path)
				if e.Error != "" {
					line += ": " + e.Error
				}
				output.Line(out, status, "%s", line)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&conos, "cono", nil, "Only watch these Cono names")
	cmd.Flags().DurationVar(&debounce, "debounce", w.DefaultDebounce, "Quiet period after the last write before generating")
	cmd.Flags().BoolVar(&initial, "initial", false, "Run generate for every Cono before watching")
	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "Build but do not write output files")

	return cmd
}

func filterConos(found []discover.Cono, names []string) []discover.Cono {
	if len(names) == 0 {
		return found
	}
	var out []discover.Cono
	for _, c := range found {
		for _, n := range names {
			if strings.EqualFold(c.Name, n) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := w.DefaultStateDir()
			pid, err := w.ReadPIDFile(stateDir)
			if err != nil {
				return output.WithCode(output.ExitUserError, fmt.Errorf("no watcher running (PID file not found)"))
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(stateDir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}
			w.RemovePIDFile(stateDir)

			if cmdutil.JSON(cmd) {
				return output.PrintJSON("watch stop", map[string]any{"stopped": true, "pid": pid})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a watcher is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := w.DefaultStateDir()
			pid, err := w.ReadPIDFile(stateDir)
			running := err == nil
			if running {
				// signal 0 only checks that the process exists
				if process, err := os.FindProcess(pid); err != nil || process.Signal(syscall.Signal(0)) != nil {
					running = false
					w.RemovePIDFile(stateDir)
				}
			}

			if cmdutil.JSON(cmd) {
				status := map[string]any{"running": running}
				if running {
					status["pid"] = pid
				}
				return output.PrintJSON("watch status", status)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Watcher is not running")
				return nil
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Watcher running (PID %d)\n", pid)
			return nil
		},
	}
}
