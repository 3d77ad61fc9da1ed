package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/klytics/conokit/internal/chart"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Validate checks config values and returns a list of issues. Chart spec problems are
// reported here and again per chart in the run log; they never stop a run.
func Validate(cfg *Config) []ConfigIssue {
	var issues []ConfigIssue

	if len(cfg.Discovery.Paths) == 0 {
		issues = append(issues, ConfigIssue{
			Key:      "discovery.paths",
			Severity: "error",
			Message:  "no discovery paths configured — nothing to process",
			Fix:      `discovery: {paths: ["./Cono*/Consolidated_reports"]}`,
		})
	}

	if len(cfg.Charts) == 0 {
		issues = append(issues, ConfigIssue{
			Key:      "charts",
			Severity: "warning",
			Message:  "no charts configured — output will only contain Section 11, originals and the run log",
			Fix:      "grph config init --force  (writes a sample with one chart)",
		})
	}
	for i, spec := range cfg.Charts {
		if err := spec.Validate(); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      fmt.Sprintf("charts[%d]", i),
				Severity: "error",
				Message:  fmt.Sprintf("%s: %v", spec.ID(), err),
			})
		}
	}
	if _, err := chart.ParseType(cfg.ChartsDefaults.ChartType); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "charts_defaults.chart_type",
			Severity: "error",
			Message:  err.Error(),
		})
	}

	if cfg.Rules.MinRowsPerSheet < 0 {
		issues = append(issues, ConfigIssue{
			Key:      "rules.min_rows_per_sheet",
			Severity: "error",
			Message:  fmt.Sprintf("min_rows_per_sheet must be >= 0, got %d", cfg.Rules.MinRowsPerSheet),
		})
	}

	if err := cfg.Number.Validate(); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "number",
			Severity: "error",
			Message:  err.Error(),
		})
	}

	if cfg.Section11.Enabled {
		if strings.TrimSpace(cfg.Section11.OutputSheet) == "" {
			issues = append(issues, ConfigIssue{
				Key:      "section11.output_sheet",
				Severity: "error",
				Message:  "section11 is enabled but output_sheet is empty",
			})
		}
		if len(cfg.Section11.SheetCandidates) == 0 {
			issues = append(issues, ConfigIssue{
				Key:      "section11.sheet_candidates",
				Severity: "info",
				Message:  "no sheet candidates; only sheets named like section11/sec11 will be found",
			})
		}
	}

	if _, err := time.LoadLocation(cfg.Output.Timezone); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "output.timezone",
			Severity: "error",
			Message:  fmt.Sprintf("unknown timezone %q", cfg.Output.Timezone),
			Fix:      "use an IANA name such as America/New_York",
		})
	}
	if !strings.Contains(cfg.Output.FilenamePattern, "{cono}") {
		issues = append(issues, ConfigIssue{
			Key:      "output.filename_pattern",
			Severity: "warning",
			Message:  "filename_pattern has no {cono} token — outputs of different Conos may collide",
		})
	}

	for i, job := range cfg.Consolidate {
		key := fmt.Sprintf("consolidate[%d]", i)
		if job.Cono == "" || job.SourcePath == "" || job.DestinationPath == "" {
			issues = append(issues, ConfigIssue{
				Key:      key,
				Severity: "error",
				Message:  "cono, source_path and destination_path are required",
			})
		}
		for j, sec := range job.Sections {
			if sec.File == "" || len(sec.KeyCols) == 0 {
				issues = append(issues, ConfigIssue{
					Key:      fmt.Sprintf("%s.sections[%d]", key, j),
					Severity: "error",
					Message:  "file and key_cols are required",
				})
			}
		}
	}

	if cfg.Path != "" {
		issues = append(issues, ConfigIssue{
			Key:      "path",
			Severity: "info",
			Message:  fmt.Sprintf("loaded %s", cfg.Path),
		})
	}

	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []ConfigIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
