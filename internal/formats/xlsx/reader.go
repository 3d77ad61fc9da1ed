// Package xlsx reads report workbooks and writes generated output workbooks (.xlsx).
package xlsx

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/conokit/internal/chart"
)

// ErrNotFound is returned when the workbook path does not exist.
var ErrNotFound = errors.New("file not found")

// Sheet is a single worksheet. Rows hold the cell text: numbers as stored, everything
// else (dates included) as Excel displays it. Chart and Highlights are only used when
// writing.
type Sheet struct {
	Name       string      `json:"name"`
	Rows       [][]string  `json:"rows"`
	Chart      *Chart      `json:"chart,omitempty"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

// Workbook is an ordered list of sheets.
type Workbook struct {
	Path   string  `json:"path,omitempty"`
	Sheets []Sheet `json:"sheets"`
}

// ReadFile reads an .xlsx file and returns its structured data.
func ReadFile(path string) (*Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s — check that the path is correct", ErrNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	defer f.Close()

	wb, err := readWorkbook(f)
	if err != nil {
		return nil, err
	}
	wb.Path = path
	return wb, nil
}

func readWorkbook(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}

	for _, name := range f.GetSheetList() {
		rows, err := readRows(f, name)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}

	return wb, nil
}

// readRows returns the display text of every cell, except that numeric cells under a
// non-date number format ("50%", "$1,234.50", "1.23E+05") carry their stored value.
func readRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	for r := 0; r < len(rows) && r < len(raw); r++ {
		for c := 0; c < len(rows[r]) && c < len(raw[r]); c++ {
			v := raw[r][c]
			if v == rows[r][c] {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if storedNumber(f, sheet, cell) {
				rows[r][c] = v
			}
		}
	}
	return rows, nil
}

// storedNumber reports whether cell is a plain number whose format is not a date or time.
func storedNumber(f *excelize.File, sheet, cell string) bool {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil || (typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
		return false
	}
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(idx)
	if err != nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return !isDateFormat(*style.CustomNumFmt)
	}
	return !builtinDateFormat(style.NumFmt)
}

func builtinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47,
		id >= 50 && id <= 58, id >= 71 && id <= 81:
		return true
	}
	return false
}

// isDateFormat looks for date or time tokens outside quoted text, escapes and
// [bracketed] sections.
func isDateFormat(code string) bool {
	inQuote, inBracket, escaped := false, false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == '\\' || r == '_' || r == '*':
			escaped = true
		case strings.ContainsRune("ymdhs", r):
			return true
		}
	}
	return false
}

// GetSheet returns a specific sheet by name. Returns an error if the sheet is not found.
func (wb *Workbook) GetSheet(name string) (*Sheet, error) {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i], nil
		}
	}
	return nil, fmt.Errorf("sheet %q not found — available sheets: %v", name, wb.SheetNames())
}

// SheetNames returns the sheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

// Table exposes a sheet as a header row plus data rows. The first row is the header;
// rows that are entirely blank are skipped.
func (wb *Workbook) Table(name string) (chart.Table, bool) {
	s, err := wb.GetSheet(name)
	if err != nil {
		return chart.Table{}, false
	}
	return s.Table(), true
}

// Table splits the sheet into header and non-blank data rows.
func (s *Sheet) Table() chart.Table {
	if len(s.Rows) == 0 {
		return chart.Table{}
	}
	t := chart.Table{Header: s.Rows[0]}
	for _, row := range s.Rows[1:] {
		if !blankRow(row) {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
