package generate

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/conokit/internal/chart"
	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/discover"
	"github.com/klytics/conokit/internal/formats/xlsx"
	"github.com/klytics/conokit/internal/runlog"
)

func sourceWorkbook() *xlsx.Workbook {
	return &xlsx.Workbook{Sheets: []xlsx.Sheet{
		{
			Name: "TakenBy_Report",
			Rows: [][]string{
				{"TakenBy", "08042025_OE_Count", "08052025_OE_Count"},
				{"Al", "5", ""},
				{"Bo", "", "3"},
				{"Al", "7", ""},
			},
		},
		{
			Name: "Section 11",
			Rows: [][]string{
				{"Oper", "Vname", "08042025_Login_Date", "08052025_Login_Date"},
				{"B", "Vb", "08/01/2025", "08/01/2025"},
				{"A", "Va", "07/30/2025", "08/04/2025"},
			},
		},
	}}
}

func testOptions() Options {
	cfg := config.Defaults()
	cfg.Charts = []chart.Spec{
		{Sheet: "TakenBy_Report", XCol: "TakenBy", YSuffix: "OE_Count", ChartType: "line", Title: "OE Count"},
		{Sheet: "Nope", XCol: "TakenBy", YSuffix: "OE_Count", ChartType: "line"},
		{Sheet: "TakenBy_Report", XCol: "TakenBy", YSuffix: "OE_Count", ChartType: "pie"},
	}
	return OptionsFromConfig(cfg)
}

func TestBuildOrderAndLog(t *testing.T) {
	out := Build(sourceWorkbook(), testOptions())

	want := []string{
		"Graph_TakenBy_OE_Count",
		"Modified_Section11",
		"Original_TakenBy_Report",
		"Original_Section 11",
		"Run_Log",
	}
	if got := out.Workbook.SheetNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sheet order = %v, want %v", got, want)
	}

	graph := out.Workbook.Sheets[0]
	if graph.Chart == nil || graph.Chart.Type != "line" || !graph.Chart.Continuous || graph.Chart.Title != "OE Count" {
		t.Errorf("unexpected chart %+v", graph.Chart)
	}
	wantRows := [][]string{
		{"TakenBy", "08/04/2025", "08/05/2025"},
		{"Al", "7", ""},
		{"Bo", "", "3"},
	}
	if !reflect.DeepEqual(graph.Rows, wantRows) {
		t.Errorf("chart rows = %v, want %v", graph.Rows, wantRows)
	}

	if out.Log.Count(runlog.StatusOK) != 2 { // chart + Section11
		t.Errorf("expected 2 ok entries, got %+v", out.Log.Entries())
	}
	if out.Log.Count(runlog.StatusSkipped) != 1 || out.Log.Count(runlog.StatusError) != 1 {
		t.Errorf("expected one skipped and one error entry, got %+v", out.Log.Entries())
	}

	runLog := out.Workbook.Sheets[len(out.Workbook.Sheets)-1]
	if len(runLog.Rows) != 5 || !reflect.DeepEqual(runLog.Rows[0], runlog.Header) {
		t.Errorf("unexpected run log sheet %v", runLog.Rows)
	}

	s11 := out.Workbook.Sheets[1]
	if len(s11.Highlights) != 1 || s11.Rows[1][0] != "A" {
		t.Errorf("unexpected Section 11 sheet %+v", s11)
	}
}

func TestBuildAllSkippedStillProducesWorkbook(t *testing.T) {
	opts := Options{
		Charts: []chart.Spec{{Sheet: "Missing", XCol: "x", YSuffix: "y", ChartType: "bar"}},
	}
	src := &xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: "Data", Rows: [][]string{{"a"}, {"1"}}}}}

	out := Build(src, opts)
	want := []string{"Original_Data", "Run_Log"}
	if got := out.Workbook.SheetNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("sheet order = %v, want %v", got, want)
	}
	entries := out.Log.Entries()
	if len(entries) != 1 || entries[0].Status != runlog.StatusSkipped || entries[0].Reason != chart.ReasonMissingSheet {
		t.Errorf("expected exactly one skipped entry, got %+v", entries)
	}
}

func TestBuildReservesFixedNames(t *testing.T) {
	opts := testOptions()
	opts.Charts = []chart.Spec{
		{Sheet: "TakenBy_Report", XCol: "TakenBy", YSuffix: "OE_Count", ChartType: "bar", OutputSheet: "Run_Log"},
	}
	out := Build(sourceWorkbook(), opts)
	names := out.Workbook.SheetNames()
	if names[0] != "Run_Log_2" || names[len(names)-1] != "Run_Log" {
		t.Errorf("run log name must stay reserved, got %v", names)
	}
}

func TestBuildSection11Missing(t *testing.T) {
	src := &xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: "Data", Rows: [][]string{{"a"}}}}}
	out := Build(src, OptionsFromConfig(config.Defaults()))
	entries := out.Log.Entries()
	if len(entries) != 1 || entries[0].ID != Section11ID || entries[0].Status != runlog.StatusSkipped {
		t.Errorf("expected Section11 skip, got %+v", entries)
	}
	if out.Layout.Section11 != "" {
		t.Error("no Section 11 sheet expected")
	}
}

func TestBuildChartKinds(t *testing.T) {
	cases := []struct {
		typ        string
		kind       string
		stacked    bool
		continuous bool
	}{
		{"line", "line", false, true},
		{"scatter", "scatter", false, true},
		{"column", "column", false, false},
		{"bar", "bar", false, false},
		{"stacked_column", "column", true, false},
	}
	for _, tc := range cases {
		opts := testOptions()
		opts.Charts = []chart.Spec{{Sheet: "TakenBy_Report", XCol: "TakenBy", YSuffix: "OE_Count", ChartType: tc.typ}}
		c := Build(sourceWorkbook(), opts).Workbook.Sheets[0].Chart
		if c == nil {
			t.Errorf("%s: no chart", tc.typ)
			continue
		}
		if c.Type != tc.kind || c.Stacked != tc.stacked || c.Continuous != tc.continuous {
			t.Errorf("%s: got %+v", tc.typ, c)
		}
	}
}

// Values formatted in the source (percentages, long fractions) must reach the chart
// table as numbers.
func TestBuildKeepsNumbersThroughWorkbooks(t *testing.T) {
	dir := t.TempDir()
	src := excelize.NewFile()
	defer src.Close()

	sheet := "TakenBy_Report"
	if err := src.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	pct, err := src.NewStyle(&excelize.Style{NumFmt: 9})
	if err != nil {
		t.Fatal(err)
	}
	values := []float64{1234567.0 / 3, 2.0 / 3, 0.5}
	if err := src.SetSheetRow(sheet, "A1", &[]string{"TakenBy", "08042025_OE_Count"}); err != nil {
		t.Fatal(err)
	}
	for i, key := range []string{"Al", "Bo", "Cy"} {
		row := strconv.Itoa(i + 2)
		if err := src.SetCellValue(sheet, "A"+row, key); err != nil {
			t.Fatal(err)
		}
		if err := src.SetCellValue(sheet, "B"+row, values[i]); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.SetCellStyle(sheet, "B4", "B4", pct); err != nil {
		t.Fatal(err)
	}
	srcPath := filepath.Join(dir, "source.xlsx")
	if err := src.SaveAs(srcPath); err != nil {
		t.Fatal(err)
	}

	wb, err := xlsx.ReadFile(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	cfg.Charts = testOptions().Charts[:1]
	out := Build(wb, OptionsFromConfig(cfg))
	outPath := filepath.Join(dir, "out.xlsx")
	if err := xlsx.WriteFile(out.Workbook, outPath); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	graph := out.Workbook.Sheets[0].Name
	for i, want := range values {
		cell := "B" + strconv.Itoa(i+2)
		typ, err := f.GetCellType(graph, cell)
		if err != nil {
			t.Fatal(err)
		}
		if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
			t.Errorf("%s: expected a numeric cell, got type %v", cell, typ)
		}
		raw, err := f.GetCellValue(graph, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatal(err)
		}
		if got, err := strconv.ParseFloat(raw, 64); err != nil || got != want {
			t.Errorf("%s: got %q, want %v", cell, raw, want)
		}
	}
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := xlsx.WriteFile(sourceWorkbook(), path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesOutput(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Cono1", "Consolidated_reports")
	writeSource(t, dir, "Report_08052025_07_00.xlsx")

	cfg := config.Defaults()
	cfg.Charts = testOptions().Charts[:1]
	cfg.Discovery.Paths = []string{filepath.Join(root, "Cono*", "Consolidated_reports")}
	cfg.Output.RunLogFile = filepath.Join(root, "graph_generation_log.txt")

	picks, err := Plan(cfg)
	if err != nil {
		t.Fatal(err)
	}
	jobs := Jobs(picks)
	if len(jobs) != 1 || jobs[0].Cono != "Cono1" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}

	fixed := time.Date(2025, 8, 6, 13, 5, 0, 0, time.UTC)
	res, err := Run(context.Background(), jobs[0], cfg, nil, RunOptions{Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatal(err)
	}

	wantName := "Cono1_Src_050825_07_00__Grph_08062025_0905.xlsx"
	if filepath.Base(res.Output) != wantName || filepath.Dir(res.Output) != dir {
		t.Errorf("output = %s, want %s in %s", res.Output, wantName, dir)
	}
	if res.OK != 2 || res.Failed != 0 {
		t.Errorf("unexpected counts %+v", res)
	}

	wb, err := xlsx.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Graph_TakenBy_OE_Count", "Modified_Section11", "Original_TakenBy_Report", "Original_Section 11", "Run_Log"}
	if got := wb.SheetNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("written sheets = %v, want %v", got, want)
	}

	history, err := os.ReadFile(cfg.Output.RunLogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(history), "cono=Cono1") || !strings.HasPrefix(string(history), "08062025_0905") {
		t.Errorf("unexpected run log line %q", history)
	}

	// the generated workbook is ignored by the next discovery
	picks, err = Plan(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if picks[0].File.Name != "Report_08052025_07_00.xlsx" {
		t.Errorf("generated workbook must not be picked, got %s", picks[0].File.Name)
	}
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "Report.xlsx")

	cfg := config.Defaults()
	job := Job{Cono: "Cono9", Source: discover.FileInfo{Path: path, Name: "Report.xlsx", ModifiedAt: time.Now()}}
	res, err := Run(context.Background(), job, cfg, nil, RunOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun {
		t.Error("expected dry run flag")
	}
	if _, err := os.Stat(res.Output); !os.IsNotExist(err) {
		t.Errorf("dry run must not write %s", res.Output)
	}
}

func TestRunMissingSource(t *testing.T) {
	job := Job{Cono: "Cono1", Source: discover.FileInfo{Path: filepath.Join(t.TempDir(), "gone.xlsx")}}
	if _, err := Run(context.Background(), job, config.Defaults(), nil, RunOptions{}); err == nil {
		t.Error("expected error for unreadable source")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, Job{}, config.Defaults(), nil, RunOptions{}); err == nil {
		t.Error("expected context error")
	}
}

func TestRunAll(t *testing.T) {
	root := t.TempDir()
	var jobs []Job
	for _, c := range []string{"Cono1", "Cono2", "Cono3"} {
		dir := filepath.Join(root, c)
		path := writeSource(t, dir, "Report.xlsx")
		jobs = append(jobs, Job{Cono: c, Source: discover.FileInfo{Path: path, Name: "Report.xlsx", ModifiedAt: time.Now()}})
	}
	jobs = append(jobs, Job{Cono: "Cono4", Source: discover.FileInfo{Path: filepath.Join(root, "missing.xlsx")}})

	cfg := config.Defaults()
	cfg.Charts = testOptions().Charts[:1]

	var done atomic.Int32
	opts := RunOptions{OnDone: func(Outcome) { done.Add(1) }}
	outcomes := RunAll(context.Background(), jobs, cfg, nil, opts, 3)
	if len(outcomes) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes[:3] {
		if o.Err != nil || o.Cono != jobs[i].Cono {
			t.Errorf("outcome %d: %+v", i, o)
		}
	}
	if done.Load() != 4 {
		t.Errorf("OnDone called %d times, want 4", done.Load())
	}
	if Failed(outcomes) != 1 || outcomes[3].Error == "" {
		t.Errorf("expected the missing source to fail alone, got %+v", outcomes[3])
	}
}
