package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Chart describes an embedded chart drawn from the sheet's own table: column A holds the
// categories and every further header cell names one series. Type is line, column, bar
// or scatter. Continuous charts draw across missing points; categorical ones leave a gap.
type Chart struct {
	Type       string `json:"type"`
	Stacked    bool   `json:"stacked,omitempty"`
	Continuous bool   `json:"continuous,omitempty"`
	Title      string `json:"title"`
	XTitle     string `json:"xTitle,omitempty"`
	YTitle     string `json:"yTitle,omitempty"`
	Anchor     string `json:"anchor,omitempty"`
}

// Highlight marks cells of Column that equal the cell of Previous on the same row.
type Highlight struct {
	Column   string `json:"column"`
	Previous string `json:"previous"`
	Color    string `json:"color,omitempty"`
}

// DefaultHighlightColor is the fill used for repeated values.
const DefaultHighlightColor = "FFE699"

// chartTypes maps a chart kind to its clustered and stacked excelize types.
var chartTypes = map[string][2]excelize.ChartType{
	"line":    {excelize.Line, excelize.Line},
	"column":  {excelize.Col, excelize.ColStacked},
	"bar":     {excelize.Bar, excelize.BarStacked},
	"scatter": {excelize.Scatter, excelize.Scatter},
}

func chartType(c *Chart) (excelize.ChartType, error) {
	kinds, ok := chartTypes[c.Type]
	if !ok {
		return 0, fmt.Errorf("unsupported chart type %q", c.Type)
	}
	if !c.Stacked {
		return kinds[0], nil
	}
	if kinds[1] == kinds[0] {
		return 0, fmt.Errorf("chart type %q cannot be stacked", c.Type)
	}
	return kinds[1], nil
}

// WriteFile creates a new .xlsx file from the given workbook data. Sheets are written in
// slice order. Numeric-looking text is stored as numbers.
func WriteFile(wb *Workbook, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("could not create header style: %w", err)
	}

	for i, sheet := range wb.Sheets {
		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			// Rename default sheet
			defaultSheet := f.GetSheetName(0)
			if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
				return fmt.Errorf("could not rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheetName); err != nil {
				return fmt.Errorf("could not create sheet %q: %w", sheetName, err)
			}
		}

		if err := writeRows(f, sheetName, sheet.Rows); err != nil {
			return err
		}

		if len(sheet.Rows) > 0 && len(sheet.Rows[0]) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(sheet.Rows[0]), 1)
			if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
				return fmt.Errorf("could not style header of %q: %w", sheetName, err)
			}
			if err := f.SetPanes(sheetName, &excelize.Panes{
				Freeze:      true,
				YSplit:      1,
				TopLeftCell: "A2",
				ActivePane:  "bottomLeft",
			}); err != nil {
				return fmt.Errorf("could not freeze header of %q: %w", sheetName, err)
			}
		}

		if sheet.Chart != nil {
			if err := addChart(f, sheetName, sheet.Rows, sheet.Chart); err != nil {
				return fmt.Errorf("could not add chart to %q: %w", sheetName, err)
			}
		}

		for _, h := range sheet.Highlights {
			if err := addHighlight(f, sheetName, sheet.Rows, h); err != nil {
				return fmt.Errorf("could not highlight %q in %q: %w", h.Column, sheetName, err)
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}

	return nil
}

func writeRows(f *excelize.File, sheetName string, rows [][]string) error {
	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates: %w", err)
			}
			var value interface{} = cell
			if rowIdx > 0 {
				value = CellValue(cell)
			}
			if err := f.SetCellValue(sheetName, cellName, value); err != nil {
				return fmt.Errorf("could not set cell %s: %w", cellName, err)
			}
		}
	}
	return nil
}

// CellValue converts plain decimal text (optionally with an exponent) to float64 so Excel
// stores a number. Text with leading zeros (identifiers such as "00123"), integers with
// more digits than a float64 holds and anything else stay strings.
func CellValue(s string) interface{} {
	t := strings.TrimSpace(s)
	if t == "" || t != s {
		return s
	}
	mant, exp, hasExp := strings.Cut(strings.ToLower(strings.TrimPrefix(t, "-")), "e")
	if hasExp {
		if strings.HasPrefix(exp, "-") || strings.HasPrefix(exp, "+") {
			exp = exp[1:]
		}
		if !digitsOnly(exp) {
			return s
		}
	}
	if len(mant) > 1 && mant[0] == '0' && mant[1] != '.' {
		return s
	}
	intPart, frac, hasPoint := strings.Cut(mant, ".")
	if !digitsOnly(intPart + frac) {
		return s
	}
	if !hasPoint && !hasExp && len(intPart) > 15 {
		// integer ids beyond float64 precision
		return s
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return s
	}
	return v
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// quoteSheet renders a sheet name for use in a formula reference.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func absRef(sheet string, col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row, true)
	return quoteSheet(sheet) + "!" + cell
}

func absRange(sheet string, col, fromRow, toRow int) string {
	from, _ := excelize.CoordinatesToCellName(col, fromRow, true)
	to, _ := excelize.CoordinatesToCellName(col, toRow, true)
	return quoteSheet(sheet) + "!" + from + ":" + to
}

func addChart(f *excelize.File, sheetName string, rows [][]string, c *Chart) error {
	typ, err := chartType(c)
	if err != nil {
		return err
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return fmt.Errorf("chart needs a category column, at least one series and one row")
	}

	lastRow := len(rows)
	var series []excelize.ChartSeries
	for col := 2; col <= len(rows[0]); col++ {
		series = append(series, excelize.ChartSeries{
			Name:       absRef(sheetName, col, 1),
			Categories: absRange(sheetName, 1, 2, lastRow),
			Values:     absRange(sheetName, col, 2, lastRow),
		})
	}

	anchor := c.Anchor
	if anchor == "" {
		anchor = "H2"
	}
	blanks := "gap"
	if c.Continuous {
		blanks = "span"
	}
	def := &excelize.Chart{
		Type:         typ,
		Series:       series,
		Title:        []excelize.RichTextRun{{Text: c.Title}},
		Legend:       excelize.ChartLegend{Position: "bottom"},
		Dimension:    excelize.ChartDimension{Width: 720, Height: 400},
		ShowBlanksAs: blanks,
	}
	if c.XTitle != "" {
		def.XAxis.Title = []excelize.RichTextRun{{Text: c.XTitle}}
	}
	if c.YTitle != "" {
		def.YAxis.Title = []excelize.RichTextRun{{Text: c.YTitle}}
		def.YAxis.MajorGridLines = true
	}
	return f.AddChart(sheetName, anchor, def)
}

func addHighlight(f *excelize.File, sheetName string, rows [][]string, h Highlight) error {
	if len(rows) < 2 {
		return nil
	}
	col, prev := -1, -1
	for i, name := range rows[0] {
		switch name {
		case h.Column:
			col = i + 1
		case h.Previous:
			prev = i + 1
		}
	}
	if col < 0 || prev < 0 {
		return fmt.Errorf("header %q or %q not found", h.Column, h.Previous)
	}

	color := h.Color
	if color == "" {
		color = DefaultHighlightColor
	}
	style, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	first, _ := excelize.CoordinatesToCellName(col, 2)
	last, _ := excelize.CoordinatesToCellName(col, len(rows))
	prevFirst, _ := excelize.CoordinatesToCellName(prev, 2)
	return f.SetConditionalFormat(sheetName, first+":"+last, []excelize.ConditionalFormatOptions{{
		Type:     "formula",
		Criteria: fmt.Sprintf(`AND(%s<>"",%s=%s)`, first, first, prevFirst),
		Format:   &style,
	}})
}
