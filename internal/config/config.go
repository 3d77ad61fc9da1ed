// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/conokit/internal/chart"
)

// DefaultFileName is looked up in the working directory when no --config is given.
const DefaultFileName = "config_grph.yaml"

// ErrNotFound is returned when an explicitly requested config file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config holds the application configuration.
type Config struct {
	Discovery      Discovery          `mapstructure:"discovery" yaml:"discovery" json:"discovery"`
	ChartsDefaults ChartsDefaults     `mapstructure:"charts_defaults" yaml:"charts_defaults" json:"chartsDefaults"`
	Charts         []chart.Spec       `mapstructure:"charts" yaml:"charts" json:"charts"`
	Rules          Rules              `mapstructure:"rules" yaml:"rules" json:"rules"`
	Number         chart.NumberFormat `mapstructure:"number" yaml:"number" json:"number"`
	Section11      Section11          `mapstructure:"section11" yaml:"section11" json:"section11"`
	Output         Output             `mapstructure:"output" yaml:"output" json:"output"`
	Consolidate    []ConsolidateJob   `mapstructure:"consolidate" yaml:"consolidate,omitempty" json:"consolidate,omitempty"`

	// Path is the file the configuration was read from, empty when only defaults apply.
	Path string `mapstructure:"-" yaml:"-" json:"path,omitempty"`
}

// Discovery selects the Cono folders and the workbooks inside them.
type Discovery struct {
	Paths                  []string `mapstructure:"paths" yaml:"paths" json:"paths"`
	IgnoreFilenameContains []string `mapstructure:"ignore_filename_contains" yaml:"ignore_filename_contains" json:"ignoreFilenameContains"`
	FileExtensions         []string `mapstructure:"file_extensions" yaml:"file_extensions" json:"fileExtensions"`
}

// ChartsDefaults fills chart fields left empty in individual specs.
type ChartsDefaults struct {
	ChartType string `mapstructure:"chart_type" yaml:"chart_type" json:"chartType"`
}

// Rules holds data-quality thresholds.
type Rules struct {
	MinRowsPerSheet int `mapstructure:"min_rows_per_sheet" yaml:"min_rows_per_sheet" json:"minRowsPerSheet"`
}

// Section11 configures the Section 11 cleanup sheet.
type Section11 struct {
	Enabled         bool     `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	SheetCandidates []string `mapstructure:"sheet_candidates" yaml:"sheet_candidates" json:"sheetCandidates"`
	OutputSheet     string   `mapstructure:"output_sheet" yaml:"output_sheet" json:"outputSheet"`
	Clusters        []string `mapstructure:"clusters" yaml:"clusters" json:"clusters"`
	HighlightColor  string   `mapstructure:"highlight_color" yaml:"highlight_color" json:"highlightColor"`
}

// Output controls where generated workbooks go and how they are named.
type Output struct {
	Directory       string `mapstructure:"directory" yaml:"directory" json:"directory"`
	FilenamePattern string `mapstructure:"filename_pattern" yaml:"filename_pattern" json:"filenamePattern"`
	Timezone        string `mapstructure:"timezone" yaml:"timezone" json:"timezone"`
	RunLogFile      string `mapstructure:"run_log_file" yaml:"run_log_file,omitempty" json:"runLogFile,omitempty"`
}

// SameAsSource is the output directory value that writes next to the source workbook.
const SameAsSource = "same_as_source"

// ConsolidateJob describes one Cono's consolidation inputs.
type ConsolidateJob struct {
	Cono            string    `mapstructure:"cono" yaml:"cono" json:"cono"`
	SourcePath      string    `mapstructure:"source_path" yaml:"source_path" json:"sourcePath"`
	DestinationPath string    `mapstructure:"destination_path" yaml:"destination_path" json:"destinationPath"`
	Sections        []Section `mapstructure:"sections" yaml:"sections" json:"sections"`
}

// Section is one report file merged across dated folders.
type Section struct {
	File     string   `mapstructure:"file" yaml:"file" json:"file"`
	KeyCols  []string `mapstructure:"key_cols" yaml:"key_cols" json:"keyCols"`
	CompCols []string `mapstructure:"comp_cols" yaml:"comp_cols" json:"compCols"`
}

// Load reads the configuration from path (or the default locations when path is empty)
// and GRPH_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable overrides
	v.SetEnvPrefix("GRPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
	} else {
		path = ConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	cfg.Path = v.ConfigFileUsed()
	cfg.applyDefaults()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("discovery.paths", d.Discovery.Paths)
	v.SetDefault("discovery.ignore_filename_contains", d.Discovery.IgnoreFilenameContains)
	v.SetDefault("discovery.file_extensions", d.Discovery.FileExtensions)
	v.SetDefault("charts_defaults.chart_type", d.ChartsDefaults.ChartType)
	v.SetDefault("rules.min_rows_per_sheet", d.Rules.MinRowsPerSheet)
	v.SetDefault("number.thousands_separator", d.Number.Thousands)
	v.SetDefault("number.decimal_separator", d.Number.Decimal)
	v.SetDefault("section11.enabled", d.Section11.Enabled)
	v.SetDefault("section11.sheet_candidates", d.Section11.SheetCandidates)
	v.SetDefault("section11.output_sheet", d.Section11.OutputSheet)
	v.SetDefault("section11.clusters", d.Section11.Clusters)
	v.SetDefault("section11.highlight_color", d.Section11.HighlightColor)
	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.filename_pattern", d.Output.FilenamePattern)
	v.SetDefault("output.timezone", d.Output.Timezone)
}

// Defaults returns the built-in configuration without any charts.
func Defaults() *Config {
	return &Config{
		Discovery: Discovery{
			Paths:                  []string{"./Cono*/Consolidated_reports"},
			IgnoreFilenameContains: []string{"_graph", "_graph_", "_Grph"},
			FileExtensions:         []string{".xlsx"},
		},
		ChartsDefaults: ChartsDefaults{ChartType: string(chart.ColumnChart)},
		Rules:          Rules{MinRowsPerSheet: 1},
		Number:         chart.DefaultNumberFormat,
		Section11: Section11{
			Enabled:         true,
			SheetCandidates: []string{"Section 11", "Section11", "Sec11"},
			OutputSheet:     "Modified_Section11",
			Clusters:        []string{"Login_Date", "LastWk"},
			HighlightColor:  "FFE699",
		},
		Output: Output{
			Directory:       SameAsSource,
			FilenamePattern: "{cono}_Src_{src_ts}__Grph_{run_ts_EST}",
			Timezone:        "America/New_York",
		},
	}
}

// applyDefaults fills per-chart fields from charts_defaults.
func (c *Config) applyDefaults() {
	for i := range c.Charts {
		if strings.TrimSpace(c.Charts[i].ChartType) == "" {
			c.Charts[i].ChartType = c.ChartsDefaults.ChartType
		}
	}
}

// OutputDir returns the directory a generated workbook for source should be written to.
func (c *Config) OutputDir(source string) string {
	dir := strings.TrimSpace(c.Output.Directory)
	if dir == "" || dir == SameAsSource {
		return filepath.Dir(source)
	}
	return dir
}

// ConfigPath returns the config file that Load uses when no path is given: the first of
// ./config_grph.yaml, ./config_grph.json and ~/.grph/config.yaml that exists, else the
// home location.
func ConfigPath() string {
	candidates := []string{DefaultFileName, strings.TrimSuffix(DefaultFileName, ".yaml") + ".json"}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".grph"
	}
	return filepath.Join(home, ".grph")
}
