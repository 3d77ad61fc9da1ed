package xlsx

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteAndRead(t *testing.T) {
	// Create a workbook, write it, then read it back
	original := &Workbook{
		Sheets: []Sheet{
			{
				Name: "TestSheet",
				Rows: [][]string{
					{"Name", "Age", "City"},
					{"Alice", "30", "New York"},
					{"Bob", "25", "San Francisco"},
				},
			},
		},
	}

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.xlsx")

	if err := WriteFile(original, path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("WriteFile did not create the file")
	}

	// Read back
	wb, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(wb.Sheets) != 1 {
		t.Fatalf("expected 1 sheet, got %d", len(wb.Sheets))
	}

	sheet := wb.Sheets[0]
	if sheet.Name != "TestSheet" {
		t.Errorf("expected sheet name 'TestSheet', got %q", sheet.Name)
	}

	if len(sheet.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(sheet.Rows))
	}

	if sheet.Rows[1][0] != "Alice" || sheet.Rows[1][1] != "30" {
		t.Errorf("unexpected row %v", sheet.Rows[1])
	}
}

func TestWriteKeepsSheetOrderAndNumbers(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{
		{Name: "Graph_A", Rows: [][]string{{"TakenBy", "08/04/2025"}, {"Al", "7"}, {"Bo", "3"}},
			Chart: &Chart{Type: "line", Title: "OE Count", XTitle: "TakenBy", YTitle: "OE_Count"}},
		{Name: "Original_X", Rows: [][]string{{"Id", "Qty"}, {"00123", "1.5"}}},
		{Name: "Run_Log", Rows: [][]string{{"Chart", "Status", "Reason"}}},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteFile(wb, path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	want := []string{"Graph_A", "Original_X", "Run_Log"}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected sheets %v, got %v", want, got)
	}

	typ, err := f.GetCellType("Graph_A", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
		t.Errorf("expected B2 to be numeric, got type %v", typ)
	}

	id, _ := f.GetCellValue("Original_X", "A2")
	if id != "00123" {
		t.Errorf("expected identifier to keep leading zeros, got %q", id)
	}
}

func TestWriteChartRejectsUnknownType(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{
		{Name: "G", Rows: [][]string{{"k", "v"}, {"a", "1"}}, Chart: &Chart{Type: "pie"}},
	}}

	if err := WriteFile(wb, filepath.Join(t.TempDir(), "bad.xlsx")); err == nil {
		t.Error("expected error for unsupported chart type")
	}
}

func TestWriteChartAxisAndStacking(t *testing.T) {
	rows := [][]string{{"TakenBy", "08/04/2025", "08/05/2025"}, {"Al", "7", ""}, {"Bo", "3", "4"}}
	wb := &Workbook{Sheets: []Sheet{
		{Name: "Line", Rows: rows, Chart: &Chart{Type: "line", Continuous: true, Title: "L"}},
		{Name: "Stacked", Rows: rows, Chart: &Chart{Type: "column", Stacked: true, Title: "S"}},
	}}
	path := filepath.Join(t.TempDir(), "charts.xlsx")
	if err := WriteFile(wb, path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	line := chartXML(t, path, "xl/charts/chart1.xml")
	if !strings.Contains(line, `dispBlanksAs val="span"`) {
		t.Errorf("continuous chart should span blanks:\n%s", line)
	}
	stacked := chartXML(t, path, "xl/charts/chart2.xml")
	if !strings.Contains(stacked, `grouping val="stacked"`) || !strings.Contains(stacked, `dispBlanksAs val="gap"`) {
		t.Errorf("expected a stacked categorical chart:\n%s", stacked)
	}
}

func TestWriteChartRejectsStackedLine(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{
		{Name: "G", Rows: [][]string{{"k", "v"}, {"a", "1"}}, Chart: &Chart{Type: "line", Stacked: true}},
	}}
	if err := WriteFile(wb, filepath.Join(t.TempDir(), "bad.xlsx")); err == nil {
		t.Error("expected error for a stacked line chart")
	}
}

func chartXML(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}
	t.Fatalf("%s not found in %s", name, path)
	return ""
}

func TestReadFileUsesStoredNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	custom := "#,##0.0"
	styles := map[string]*excelize.Style{
		"percent": {NumFmt: 9},
		"money":   {NumFmt: 7},
		"custom":  {CustomNumFmt: &custom},
		"date":    {NumFmt: 14},
	}
	ids := map[string]int{}
	for name, st := range styles {
		id, err := f.NewStyle(st)
		if err != nil {
			t.Fatal(err)
		}
		ids[name] = id
	}

	third := 1234567.0 / 3
	cells := []struct {
		key   string
		value interface{}
		style string
	}{
		{"Al", 0.5, "percent"},
		{"Bo", 1234.5, "money"},
		{"Cy", 1234567.25, "custom"},
		{"Di", 45873, "date"},
		{"Ed", true, ""},
		{"Fa", third, ""},
	}
	sheet := "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &[]string{"TakenBy", "08042025_OE_Count"}); err != nil {
		t.Fatal(err)
	}
	for i, c := range cells {
		row := i + 2
		if err := f.SetCellValue(sheet, "A"+strconv.Itoa(row), c.key); err != nil {
			t.Fatal(err)
		}
		ref := "B" + strconv.Itoa(row)
		if err := f.SetCellValue(sheet, ref, c.value); err != nil {
			t.Fatal(err)
		}
		if c.style != "" {
			if err := f.SetCellStyle(sheet, ref, ref, ids[c.style]); err != nil {
				t.Fatal(err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "formatted.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	wb, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rows := wb.Sheets[0].Rows
	got := map[string]string{}
	for _, row := range rows[1:] {
		got[row[0]] = row[1]
	}

	want := map[string]string{
		"Al": "0.5",
		"Bo": "1234.5",
		"Cy": "1234567.25",
		"Ed": "TRUE",
		"Fa": strconv.FormatFloat(third, 'f', -1, 64),
	}
	for key, v := range want {
		if got[key] != v {
			t.Errorf("%s: got %q, want %q", key, got[key], v)
		}
	}
	if got["Di"] == "" || got["Di"] == "45873" {
		t.Errorf("date cell should keep its display text, got %q", got["Di"])
	}
}

func TestIsDateFormat(t *testing.T) {
	cases := map[string]bool{
		"yyyy-mm-dd":           true,
		"[$-409]mmm d, yyyy":   true,
		"h:mm AM/PM":           true,
		"#,##0.00":             false,
		`"$"#,##0.00`:          false,
		`0.0 "days"`:           false,
		`_("$"* #,##0.00_)`:    false,
		"0.00E+00":             false,
		"[Red]0.00;[Blue]0.00": false,
	}
	for code, want := range cases {
		if got := isDateFormat(code); got != want {
			t.Errorf("isDateFormat(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestWriteHighlight(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{
		{
			Name: "Modified_Section11",
			Rows: [][]string{
				{"Oper", "08042025_Login_Date", "08052025_Login_Date"},
				{"A", "08/01/2025", "08/01/2025"},
			},
			Highlights: []Highlight{{Column: "08052025_Login_Date", Previous: "08042025_Login_Date"}},
		},
	}}

	path := filepath.Join(t.TempDir(), "hl.xlsx")
	if err := WriteFile(wb, path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	formats, err := f.GetConditionalFormats("Modified_Section11")
	if err != nil {
		t.Fatal(err)
	}
	opts, ok := formats["C2:C2"]
	if !ok || len(opts) != 1 {
		t.Fatalf("expected one rule on C2:C2, got %v", formats)
	}
	if opts[0].Criteria != `AND(C2<>"",C2=B2)` {
		t.Errorf("unexpected formula %q", opts[0].Criteria)
	}
}

func TestWriteHighlightMissingHeader(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{
		{Name: "S", Rows: [][]string{{"A"}, {"1"}}, Highlights: []Highlight{{Column: "A", Previous: "B"}}},
	}}
	if err := WriteFile(wb, filepath.Join(t.TempDir(), "x.xlsx")); err == nil {
		t.Error("expected error for missing highlight header")
	}
}

func TestCellValue(t *testing.T) {
	cases := map[string]interface{}{
		"7":        float64(7),
		"-3.5":     -3.5,
		"0.25":     0.25,
		"0":        float64(0),
		"00123":    "00123",
		"1,234":    "1,234",
		" 5":       " 5",
		"abc":      "abc",
		"08/04/25": "08/04/25",
		"-":        "-",

		"0.666666666666667":    0.666666666666667,
		"411522.333333333":     411522.333333333,
		"411522.33333333331":   411522.33333333331,
		"-1234567890.12345678": -1234567890.12345678,
		"1.5E-05":              1.5e-05,
		"2e3":                  float64(2000),
		"1234567890123456789":  "1234567890123456789",
		"1.2.3":                "1.2.3",
		"1e":                   "1e",
		"1e999":                "1e999",
		"Pending":              "Pending",
	}
	for in, want := range cases {
		if got := CellValue(in); got != want {
			t.Errorf("CellValue(%q) = %#v, want %#v", in, got, want)
		}
	}
}

func TestGetSheet(t *testing.T) {
	wb := &Workbook{
		Sheets: []Sheet{
			{Name: "One"},
			{Name: "Two"},
		},
	}

	s, err := wb.GetSheet("Two")
	if err != nil {
		t.Fatalf("GetSheet failed: %v", err)
	}
	if s.Name != "Two" {
		t.Errorf("expected 'Two', got %q", s.Name)
	}

	_, err = wb.GetSheet("Missing")
	if err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestTable(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{{
		Name: "Report",
		Rows: [][]string{
			{"TakenBy", "08042025_OE_Count"},
			{"Al", "5"},
			{"", ""},
			{"Bo"},
		},
	}}}

	table, ok := wb.Table("Report")
	if !ok {
		t.Fatal("expected Report table")
	}
	if len(table.Header) != 2 || len(table.Rows) != 2 {
		t.Errorf("expected header of 2 and 2 data rows, got %d and %d", len(table.Header), len(table.Rows))
	}
	if _, ok := wb.Table("Missing"); ok {
		t.Error("expected missing table")
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile("/nonexistent/file.xlsx")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
