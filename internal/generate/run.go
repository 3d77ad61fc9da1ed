package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/discover"
	"github.com/klytics/conokit/internal/formats/xlsx"
	"github.com/klytics/conokit/internal/logging"
	"github.com/klytics/conokit/internal/runlog"
)

// Job is one Cono and the workbook picked for it.
type Job struct {
	Cono   string
	Source discover.FileInfo
}

// RunOptions tune a single run.
type RunOptions struct {
	DryRun bool
	Now    func() time.Time
	// OnDone is called by RunAll after each job, possibly from several goroutines.
	OnDone func(Outcome)
}

// Result summarises one Cono run.
type Result struct {
	RunID    string         `json:"runId"`
	Cono     string         `json:"cono"`
	Source   string         `json:"source"`
	Output   string         `json:"output"`
	DryRun   bool           `json:"dryRun,omitempty"`
	OK       int            `json:"ok"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Sheets   []string       `json:"sheets"`
	Entries  []runlog.Entry `json:"entries"`
	Duration time.Duration  `json:"durationNs"`
}

// Run reads the job's source workbook, builds the output and writes it. Only workbook-level
// I/O problems are returned as errors; chart problems end up in the run log.
func Run(ctx context.Context, job Job, cfg *config.Config, logger *zap.Logger, opts RunOptions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	started := now()

	res := &Result{
		RunID:  logging.NewRunID(),
		Cono:   job.Cono,
		Source: job.Source.Path,
		DryRun: opts.DryRun,
	}
	log := logging.WithRun(logger, res.RunID, job.Cono)
	log.Info("processing workbook", zap.String("source", job.Source.Path))

	loc, err := discover.Location(cfg.Output.Timezone)
	if err != nil {
		return nil, err
	}

	src, err := xlsx.ReadFile(job.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("could not read source for %s: %w", job.Cono, err)
	}

	out := Build(src, OptionsFromConfig(cfg))
	for _, e := range out.Log.Entries() {
		fields := []zap.Field{zap.String("entry", e.ID), zap.String("status", string(e.Status))}
		if e.Reason != "" {
			fields = append(fields, zap.String("reason", e.Reason))
		}
		switch e.Status {
		case runlog.StatusError:
			log.Warn("chart failed", fields...)
		default:
			log.Debug("chart processed", fields...)
		}
	}

	name := discover.OutputName(cfg.Output.FilenamePattern, job.Cono, discover.SourceTime(job.Source, loc), started, loc)
	res.Output = filepath.Join(cfg.OutputDir(job.Source.Path), name)
	res.OK = out.Log.Count(runlog.StatusOK)
	res.Skipped = out.Log.Count(runlog.StatusSkipped)
	res.Failed = out.Log.Count(runlog.StatusError)
	res.Sheets = out.Workbook.SheetNames()
	res.Entries = out.Log.Entries()

	if opts.DryRun {
		log.Info("dry run, not writing", zap.String("output", res.Output))
		res.Duration = now().Sub(started)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(res.Output), 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}
	if err := xlsx.WriteFile(out.Workbook, res.Output); err != nil {
		return nil, fmt.Errorf("could not write output for %s: %w", job.Cono, err)
	}
	res.Duration = now().Sub(started)

	if cfg.Output.RunLogFile != "" {
		if err := AppendRunLog(cfg.Output.RunLogFile, started.In(loc), res); err != nil {
			log.Warn("could not append run log file", zap.Error(err))
		}
	}

	log.Info("wrote workbook",
		zap.String("output", res.Output),
		zap.Int("ok", res.OK),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// AppendRunLog appends a one-line summary of res to a plain-text history file.
func AppendRunLog(path string, at time.Time, res *Result) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s run=%s cono=%s source=%s output=%s ok=%d skipped=%d failed=%d\n",
		discover.FormatStamp(at, discover.RunStampFormat), res.RunID, res.Cono,
		res.Source, res.Output, res.OK, res.Skipped, res.Failed)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
