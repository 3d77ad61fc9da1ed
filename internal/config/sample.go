package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/klytics/conokit/internal/chart"
)

const sampleHeader = `# grph configuration
# Charts pick dated columns named <MMDDYYYY>_<y_suffix> from the given sheet and plot
# one series per date against x_col. chart_type: line, column, bar, scatter, stacked_column.
`

// Sample returns the defaults plus one example chart and consolidation job.
func Sample() *Config {
	cfg := Defaults()
	cfg.Charts = []chart.Spec{{
		Sheet:     "TakenBy_Report",
		XCol:      "TakenBy",
		YSuffix:   "OE_Count",
		ChartType: string(chart.Line),
		Title:     "OE Count by TakenBy",
	}}
	cfg.Consolidate = []ConsolidateJob{{
		Cono:            "Cono1",
		SourcePath:      "./Cono1/Reports",
		DestinationPath: "./Cono1/Consolidated_reports",
		Sections: []Section{{
			File:     "Section11.xlsx",
			KeyCols:  []string{"Oper", "Vname"},
			CompCols: []string{"Login_Date", "LastWk"},
		}},
	}}
	return cfg
}

// Marshal renders the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not encode config: %w", err)
	}
	return data, nil
}

// WriteSample writes the sample configuration to path. An existing file is only replaced
// when force is set.
func WriteSample(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists — use --force to overwrite", path)
	}

	data, err := Marshal(Sample())
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append([]byte(sampleHeader), data...), 0644); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}
