// Package chart discovers date-stamped metric columns in report sheets and assembles
// multi-series chart data from them.
package chart

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is one of the supported chart kinds.
type Type string

const (
	Line          Type = "line"
	ColumnChart   Type = "column"
	Bar           Type = "bar"
	Scatter       Type = "scatter"
	StackedColumn Type = "stacked_column"
)

// Types lists the accepted chart types in documentation order.
var Types = []Type{Line, ColumnChart, Bar, Scatter, StackedColumn}

// ParseType validates a configured chart type. Matching ignores case and surrounding space.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown chart_type %q (supported: line, column, bar, scatter, stacked_column)", s)
}

// Axis is the kind of X axis a chart type renders with.
type Axis string

const (
	Categorical Axis = "categorical"
	Continuous  Axis = "continuous"
)

// Axis returns the X axis semantics for the chart type.
func (t Type) Axis() Axis {
	switch t {
	case Line, Scatter:
		return Continuous
	default:
		return Categorical
	}
}

// Stacked reports whether series stack instead of cluster.
func (t Type) Stacked() bool {
	return t == StackedColumn
}

// Base is the chart kind without stacking: column for stacked_column.
func (t Type) Base() Type {
	if t == StackedColumn {
		return ColumnChart
	}
	return t
}

// FirstColumn is the x_col value that selects the sheet's first header.
const FirstColumn = "first_column"

// AllSuffixes is the y_suffix value that expands to one chart per discovered suffix.
const AllSuffixes = "*"

// Spec describes one chart to generate.
type Spec struct {
	Sheet       string `json:"sheet" mapstructure:"sheet" yaml:"sheet"`
	SheetPrefix string `json:"sheetPrefix,omitempty" mapstructure:"sheet_prefix" yaml:"sheet_prefix,omitempty"`
	XCol        string `json:"xCol" mapstructure:"x_col" yaml:"x_col"`
	YSuffix     string `json:"ySuffix" mapstructure:"y_suffix" yaml:"y_suffix"`
	ChartType   string `json:"chartType" mapstructure:"chart_type" yaml:"chart_type"`
	Title       string `json:"title" mapstructure:"title" yaml:"title"`
	OutputSheet string `json:"outputSheet,omitempty" mapstructure:"output_sheet" yaml:"output_sheet,omitempty"`
	SortByX     string `json:"sortByX,omitempty" mapstructure:"sort_by_x" yaml:"sort_by_x,omitempty"`
}

// ID identifies the spec in the run log.
func (s Spec) ID() string {
	sheet := s.Sheet
	if sheet == "" && s.SheetPrefix != "" {
		sheet = s.SheetPrefix + "*"
	}
	return fmt.Sprintf("%s[%s|%s]", sheet, s.XCol, s.YSuffix)
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// BaseSheetName is the unbounded sheet name the chart would like to have.
func (s Spec) BaseSheetName() string {
	if s.OutputSheet != "" {
		return s.OutputSheet
	}
	return "Graph_" + unsafeNameChars.ReplaceAllString(s.XCol, "") + "_" + unsafeNameChars.ReplaceAllString(s.YSuffix, "")
}

// Validate checks the shape of the spec. It does not consult any workbook.
func (s Spec) Validate() error {
	if s.Sheet == "" && s.SheetPrefix == "" {
		return fmt.Errorf("sheet or sheet_prefix is required")
	}
	if strings.TrimSpace(s.XCol) == "" {
		return fmt.Errorf("x_col is required")
	}
	if strings.TrimSpace(s.YSuffix) == "" {
		return fmt.Errorf("y_suffix is required")
	}
	if _, err := ParseType(s.ChartType); err != nil {
		return err
	}
	switch strings.ToLower(s.SortByX) {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("sort_by_x must be asc or desc, got %q", s.SortByX)
	}
	return nil
}

// Expand resolves y_suffix "*" against the sheet headers: one spec per suffix, with the
// suffix appended to the title and output sheet.
func (s Spec) Expand(headers []string) []Spec {
	if s.YSuffix != AllSuffixes {
		return []Spec{s}
	}
	var out []Spec
	for _, suf := range Suffixes(headers) {
		c := s
		c.YSuffix = suf
		if s.Title != "" {
			c.Title = s.Title + "_" + suf
		}
		if s.OutputSheet != "" {
			c.OutputSheet = s.OutputSheet + "_" + suf
		}
		out = append(out, c)
	}
	return out
}
