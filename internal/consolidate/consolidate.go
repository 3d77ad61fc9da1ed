// Package consolidate merges dated report folders of one Cono into a single workbook:
// one sheet per section file, one row per key and one column per report date and
// compared column.
package consolidate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klytics/conokit/internal/chart"
	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/discover"
	"github.com/klytics/conokit/internal/formats/xlsx"
	"github.com/klytics/conokit/internal/logging"
)

// DateColumn holds the report date inside each section file.
const DateColumn = "Date_of_rep"

// Options tune a consolidation run.
type Options struct {
	DryRun bool
	Now    func() time.Time
	Logger *zap.Logger
}

// SectionResult describes one merged section sheet.
type SectionResult struct {
	File    string   `json:"file"`
	Sheet   string   `json:"sheet,omitempty"`
	Inputs  int      `json:"inputs"`
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Notes   []string `json:"notes,omitempty"`
}

// Result summarises one Cono.
type Result struct {
	Cono     string          `json:"cono"`
	Output   string          `json:"output,omitempty"`
	Written  bool            `json:"written"`
	Sections []SectionResult `json:"sections"`
}

// Input is one dated section file.
type Input struct {
	Path string
	Date string // MMDDYYYY, or the folder name when no date could be read
	Rows [][]string
}

// Run consolidates every section of job and writes the workbook into the destination
// folder. Unreadable or incomplete section files are noted and skipped.
func Run(ctx context.Context, job config.ConsolidateJob, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With(zap.String("cono", job.Cono))
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	res := &Result{Cono: job.Cono}
	wb := &xlsx.Workbook{}
	used := chart.NewNameSet()

	for _, sec := range job.Sections {
		sr := SectionResult{File: sec.File}
		inputs, notes, err := collect(job.SourcePath, sec.File)
		if err != nil {
			return nil, err
		}
		sr.Notes = append(sr.Notes, notes...)
		sr.Inputs = len(inputs)

		rows, mergeNotes := Merge(sec.KeyCols, sec.CompCols, inputs)
		sr.Notes = append(sr.Notes, mergeNotes...)
		if len(rows) > 1 {
			base := strings.TrimSuffix(sec.File, filepath.Ext(sec.File))
			sr.Sheet, used = chart.UniqueName(base, used)
			sr.Rows = len(rows) - 1
			sr.Columns = len(rows[0])
			wb.Sheets = append(wb.Sheets, xlsx.Sheet{Name: sr.Sheet, Rows: rows})
		}
		logger.Debug("section merged",
			zap.String("file", sec.File),
			zap.Int("inputs", sr.Inputs),
			zap.Int("rows", sr.Rows),
		)
		res.Sections = append(res.Sections, sr)
	}

	if len(wb.Sheets) == 0 {
		logger.Info("no data consolidated")
		return res, nil
	}

	name := fmt.Sprintf("Consolidate_report_%s.xlsx", discover.FormatStamp(now(), "MMDDYYYY_HH_mm"))
	res.Output = filepath.Join(job.DestinationPath, name)
	if opts.DryRun {
		return res, nil
	}

	if err := os.MkdirAll(job.DestinationPath, 0755); err != nil {
		return nil, fmt.Errorf("could not create destination %s: %w", job.DestinationPath, err)
	}
	if err := xlsx.WriteFile(wb, res.Output); err != nil {
		return nil, fmt.Errorf("could not write consolidated report: %w", err)
	}
	res.Written = true
	logger.Info("consolidated report written", zap.String("output", res.Output))
	return res, nil
}

// collect reads <source>/*/<file>, skipping paths that contain "_del". Inputs are returned
// in report date order.
func collect(source, file string) ([]Input, []string, error) {
	matches, err := filepath.Glob(filepath.Join(source, "*", file))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid section file name %q: %w", file, err)
	}
	sort.Strings(matches)

	var inputs []Input
	var notes []string
	for _, path := range matches {
		if strings.Contains(strings.ToLower(path), "_del") {
			continue
		}
		wb, err := xlsx.ReadFile(path)
		if err != nil || len(wb.Sheets) == 0 {
			notes = append(notes, fmt.Sprintf("%s: unreadable", path))
			continue
		}
		rows := wb.Sheets[0].Rows
		folder := filepath.Base(filepath.Dir(path))
		inputs = append(inputs, Input{Path: path, Date: ReportDate(rows, folder), Rows: rows})
	}

	sort.SliceStable(inputs, func(i, j int) bool {
		a, aok := chart.ParseDate(inputs[i].Date)
		b, bok := chart.ParseDate(inputs[j].Date)
		if aok && bok {
			return a.Before(b)
		}
		return aok && !bok
	})
	return inputs, notes, nil
}

// ReportDate returns the first Date_of_rep value as MMDDYYYY. The folder name is used,
// normalized when it is a date, when the column is absent or unparseable.
func ReportDate(rows [][]string, folder string) string {
	if len(rows) > 1 {
		idx := chart.FindColumn(rows[0], DateColumn)
		if idx >= 0 {
			for _, row := range rows[1:] {
				if idx < len(row) && strings.TrimSpace(row[idx]) != "" {
					if d, ok := NormalizeDate(row[idx]); ok {
						return d
					}
					break
				}
			}
		}
	}
	if d, ok := NormalizeDate(folder); ok {
		return d
	}
	return folder
}

var dateLayouts = []string{
	"01/02/06", "1/2/06", "01/02/2006", "1/2/2006",
	"2006-01-02", "2006-01-02 15:04:05", "01-02-06", "01-02-2006",
	"01022006", "20060102", "Jan 2, 2006", "02-Jan-2006", "02-Jan-06",
}

// NormalizeDate parses the common report date spellings and renders MMDDYYYY.
func NormalizeDate(v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(chart.DateLayout), true
		}
	}
	return "", false
}

// Merge outer-joins the inputs on the key columns. Each compared column is renamed
// <date>_<column>. Keys keep first-seen order; within one input the last row for a key
// wins. Inputs missing a key or compared column are skipped with a note.
func Merge(keyCols, compCols []string, inputs []Input) ([][]string, []string) {
	var notes []string
	header := append([]string(nil), keyCols...)
	colIdx := make(map[string]int)
	for i, k := range keyCols {
		colIdx[k] = i
	}

	var order []string
	keys := make(map[string][]string)
	values := make(map[string]map[string]string)

	for _, in := range inputs {
		if len(in.Rows) == 0 {
			notes = append(notes, fmt.Sprintf("%s: empty", in.Path))
			continue
		}
		head := in.Rows[0]
		keyIdx, ok := indexes(head, keyCols)
		if !ok {
			notes = append(notes, fmt.Sprintf("%s: missing key columns", in.Path))
			continue
		}
		compIdx, ok := indexes(head, compCols)
		if !ok {
			notes = append(notes, fmt.Sprintf("%s: missing compared columns", in.Path))
			continue
		}

		renamed := make([]string, len(compCols))
		for i, c := range compCols {
			renamed[i] = in.Date + "_" + c
			if _, seen := colIdx[renamed[i]]; !seen {
				colIdx[renamed[i]] = len(header)
				header = append(header, renamed[i])
			}
		}

		for _, row := range in.Rows[1:] {
			kv := make([]string, len(keyIdx))
			blank := true
			for i, idx := range keyIdx {
				kv[i] = cell(row, idx)
				if kv[i] != "" {
					blank = false
				}
			}
			if blank {
				continue
			}
			id := strings.Join(kv, "\x00")
			if _, ok := keys[id]; !ok {
				keys[id] = kv
				values[id] = make(map[string]string)
				order = append(order, id)
			}
			for i, idx := range compIdx {
				values[id][renamed[i]] = cell(row, idx)
			}
		}
	}

	if len(order) == 0 {
		return nil, notes
	}
	rows := [][]string{header}
	for _, id := range order {
		row := make([]string, len(header))
		copy(row, keys[id])
		for col, v := range values[id] {
			row[colIdx[col]] = v
		}
		rows = append(rows, row)
	}
	return rows, notes
}

func indexes(header, names []string) ([]int, bool) {
	out := make([]int, len(names))
	for i, n := range names {
		idx := -1
		for j, h := range header {
			if strings.TrimSpace(h) == n {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		out[i] = idx
	}
	return out, true
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
