package chart

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/klytics/conokit/internal/runlog"
)

// Skip reasons recorded in the run log.
const (
	ReasonMissingSheet = "missing sheet"
	ReasonMissingXCol  = "missing x_col"
	ReasonNoColumns    = "no matching columns"
	ReasonNoRows       = "no usable rows"
)

// Table is a worksheet as a header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Source gives the assembler read access to the sheets of a source workbook.
type Source interface {
	SheetNames() []string
	Table(sheet string) (Table, bool)
}

// Data is the chart-ready result of one build: ordered categories and date-sorted series.
type Data struct {
	Spec       Spec          `json:"spec"`
	Type       Type          `json:"type"`
	Title      string        `json:"title"`
	Sheet      string        `json:"sheet"`
	XHeader    string        `json:"xHeader"`
	Categories []string      `json:"categories"`
	Series     []DatedSeries `json:"series"`
}

// Labels returns the series display labels in legend order.
func (d *Data) Labels() []string {
	labels := make([]string, len(d.Series))
	for i := range d.Series {
		labels[i] = d.Series[i].Label
	}
	return labels
}

// Rows renders the chart table: header (x column, one label per series) and one row per
// category. Empty values render as "".
func (d *Data) Rows() [][]string {
	rows := make([][]string, 0, len(d.Categories)+1)
	rows = append(rows, append([]string{d.XHeader}, d.Labels()...))
	for _, key := range d.Categories {
		row := make([]string, 0, len(d.Series)+1)
		row = append(row, key)
		for i := range d.Series {
			v := d.Series[i].Value(key)
			if v.Valid {
				row = append(row, v.Decimal.String())
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Result is the outcome of one chart build. Data is set only when Status is ok.
type Result struct {
	Spec   Spec          `json:"spec"`
	Status runlog.Status `json:"status"`
	Reason string        `json:"reason,omitempty"`
	Data   *Data         `json:"data,omitempty"`
}

// Ok wraps assembled chart data.
func Ok(data *Data) Result {
	return Result{Spec: data.Spec, Status: runlog.StatusOK, Data: data}
}

// Skipped marks an expected, non-exceptional miss.
func Skipped(spec Spec, reason string) Result {
	return Result{Spec: spec, Status: runlog.StatusSkipped, Reason: reason}
}

// Failed marks a configuration or data error confined to this chart.
func Failed(spec Spec, reason string) Result {
	return Result{Spec: spec, Status: runlog.StatusError, Reason: reason}
}

// Assembler turns chart specs into chart data.
type Assembler struct {
	Number  NumberFormat
	MinRows int
}

// NewAssembler returns an assembler with the default number format and a minimum of one row.
func NewAssembler() *Assembler {
	return &Assembler{Number: DefaultNumberFormat, MinRows: 1}
}

// Build resolves the spec's sheet in src and assembles one result per chart. A
// y_suffix of "*" yields one result per suffix discovered in the sheet headers.
// Build never panics; internal failures become error results.
func (a *Assembler) Build(spec Spec, src Source) (results []Result) {
	defer func() {
		if r := recover(); r != nil {
			results = []Result{Failed(spec, fmt.Sprintf("internal error: %v", r))}
		}
	}()

	if err := spec.Validate(); err != nil {
		return []Result{Failed(spec, "configuration error: "+err.Error())}
	}

	sheet, ok := ResolveSheet(src.SheetNames(), spec.Sheet, spec.SheetPrefix)
	if !ok {
		return []Result{Skipped(spec, ReasonMissingSheet)}
	}
	table, ok := src.Table(sheet)
	if !ok {
		return []Result{Skipped(spec, ReasonMissingSheet)}
	}

	expanded := spec.Expand(table.Header)
	if len(expanded) == 0 {
		return []Result{Skipped(spec, ReasonNoColumns)}
	}
	for _, s := range expanded {
		results = append(results, a.Assemble(s, sheet, table))
	}
	return results
}

// Assemble builds the chart data for a single spec against an already resolved table.
func (a *Assembler) Assemble(spec Spec, sheet string, table Table) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Failed(spec, fmt.Sprintf("internal error: %v", r))
		}
	}()

	typ, err := ParseType(spec.ChartType)
	if err != nil {
		return Failed(spec, "configuration error: "+err.Error())
	}

	xIdx := FindColumn(table.Header, spec.XCol)
	if xIdx < 0 {
		return Skipped(spec, ReasonMissingXCol)
	}

	cols := Match(table.Header, spec.YSuffix)
	if len(cols) == 0 {
		return Skipped(spec, ReasonNoColumns)
	}

	nf := a.Number
	if nf.Decimal == "" {
		nf = DefaultNumberFormat
	}
	if err := nf.Validate(); err != nil {
		return Failed(spec, "configuration error: "+err.Error())
	}

	series := make([]DatedSeries, len(cols))
	for i, col := range cols {
		series[i] = BuildSeries(table.Rows, xIdx, col, nf)
	}

	categories := keepNonEmpty(unionKeys(series), series)
	switch strings.ToLower(spec.SortByX) {
	case "asc":
		sort.SliceStable(categories, func(i, j int) bool { return categories[i] < categories[j] })
	case "desc":
		sort.SliceStable(categories, func(i, j int) bool { return categories[i] > categories[j] })
	}

	if len(categories) == 0 {
		return Skipped(spec, ReasonNoRows)
	}
	if a.MinRows > 1 && len(categories) < a.MinRows {
		return Skipped(spec, fmt.Sprintf("not enough rows (%d < %d)", len(categories), a.MinRows))
	}

	title := spec.Title
	if title == "" {
		title = spec.BaseSheetName()
	}
	return Ok(&Data{
		Spec:       spec,
		Type:       typ,
		Title:      title,
		Sheet:      sheet,
		XHeader:    strings.TrimSpace(table.Header[xIdx]),
		Categories: categories,
		Series:     series,
	})
}

// unionKeys merges the category keys of all series, keeping first-seen order.
func unionKeys(series []DatedSeries) []string {
	seen := make(map[string]bool)
	var keys []string
	for i := range series {
		for _, k := range series[i].Keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// keepNonEmpty drops the keys for which every series is empty.
func keepNonEmpty(keys []string, series []DatedSeries) []string {
	out := keys[:0]
	for _, k := range keys {
		for i := range series {
			if series[i].Value(k).Valid {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// ResolveSheet picks the sheet by exact name, then by prefix.
func ResolveSheet(names []string, sheet, prefix string) (string, bool) {
	if sheet != "" {
		for _, n := range names {
			if n == sheet {
				return n, true
			}
		}
	}
	if prefix != "" {
		for _, n := range names {
			if strings.HasPrefix(n, prefix) {
				return n, true
			}
		}
	}
	return "", false
}

var spaceRun = regexp.MustCompile(`\s+`)

func normalizeHeader(s string) string {
	return strings.ToLower(spaceRun.ReplaceAllString(strings.TrimSpace(s), " "))
}

// FindColumn returns the index of the x column: exact match first, then a match that
// ignores case and collapses whitespace. "first_column" selects index 0.
// It returns -1 when the column is absent.
func FindColumn(header []string, name string) int {
	if name == FirstColumn {
		if len(header) > 0 && strings.TrimSpace(header[0]) != "" {
			return 0
		}
		return -1
	}
	for i, h := range header {
		if h == name {
			return i
		}
	}
	target := normalizeHeader(name)
	if target == "" {
		return -1
	}
	for i, h := range header {
		if normalizeHeader(h) == target {
			return i
		}
	}
	return -1
}
