// Package generate turns one source report workbook into the graph workbook: chart sheets,
// the cleaned Section 11 sheet, copies of the original sheets and the run log.
package generate

import (
	"fmt"
	"strings"

	"github.com/klytics/conokit/internal/chart"
	"github.com/klytics/conokit/internal/config"
	"github.com/klytics/conokit/internal/formats/xlsx"
	"github.com/klytics/conokit/internal/runlog"
	"github.com/klytics/conokit/internal/section11"
)

// Section11ID identifies the Section 11 cleanup in the run log.
const Section11ID = "Section11"

// OriginalPrefix is prepended to copied source sheets.
const OriginalPrefix = "Original_"

// Options drives a single build.
type Options struct {
	Charts    []chart.Spec
	Number    chart.NumberFormat
	MinRows   int
	Section11 config.Section11
}

// OptionsFromConfig extracts the build options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Charts:    cfg.Charts,
		Number:    cfg.Number,
		MinRows:   cfg.Rules.MinRowsPerSheet,
		Section11: cfg.Section11,
	}
}

// Output is the assembled output workbook and what went into it.
type Output struct {
	Workbook  *xlsx.Workbook
	Log       *runlog.Log
	Results   []chart.Result
	Section11 *section11.Result
	Layout    chart.Layout
}

// Build assembles the output workbook in memory. It does not fail: every chart or sheet
// problem is recorded in the run log and the workbook is still produced.
func Build(src *xlsx.Workbook, opts Options) *Output {
	log := runlog.New()
	out := &Output{Log: log}
	sheets := make(map[string]xlsx.Sheet)

	// fixed names are reserved before any chart is named
	used := chart.NewNameSet(runlog.SheetName)
	s11Name := ""
	if opts.Section11.Enabled {
		s11Name, used = chart.UniqueName(opts.Section11.OutputSheet, used)
	}

	asm := &chart.Assembler{Number: opts.Number, MinRows: opts.MinRows}
	for _, spec := range opts.Charts {
		for _, res := range asm.Build(spec, src) {
			out.Results = append(out.Results, res)
			id := res.Spec.ID()
			switch res.Status {
			case runlog.StatusOK:
				var name string
				name, used = chart.UniqueName(res.Data.Spec.BaseSheetName(), used)
				sheets[name] = chartSheet(name, res.Data)
				out.Layout.Charts = append(out.Layout.Charts, name)
				log.OK(id, "%d series x %d categories from %s -> %s",
					len(res.Data.Series), len(res.Data.Categories), res.Data.Sheet, name)
			case runlog.StatusSkipped:
				log.Skip(id, res.Reason)
			default:
				log.Fail(id, res.Reason)
			}
		}
	}

	if opts.Section11.Enabled {
		if s, ok := cleanSection11(src, opts.Section11, log); ok {
			out.Section11 = s
			sheets[s11Name] = xlsx.Sheet{Name: s11Name, Rows: s.Rows, Highlights: s.Highlights}
			out.Layout.Section11 = s11Name
		}
	}

	for _, s := range src.Sheets {
		var name string
		name, used = chart.UniqueName(OriginalPrefix+s.Name, used)
		sheets[name] = xlsx.Sheet{Name: name, Rows: s.Rows}
		out.Layout.Originals = append(out.Layout.Originals, name)
	}

	out.Layout.RunLog = runlog.SheetName
	sheets[runlog.SheetName] = xlsx.Sheet{Name: runlog.SheetName, Rows: log.Rows()}

	wb := &xlsx.Workbook{}
	for _, name := range out.Layout.Order() {
		wb.Sheets = append(wb.Sheets, sheets[name])
	}
	out.Workbook = wb
	return out
}

func chartSheet(name string, d *chart.Data) xlsx.Sheet {
	return xlsx.Sheet{
		Name: name,
		Rows: d.Rows(),
		Chart: &xlsx.Chart{
			Type:       string(d.Type.Base()),
			Stacked:    d.Type.Stacked(),
			Continuous: d.Type.Axis() == chart.Continuous,
			Title:      d.Title,
			XTitle:     d.XHeader,
			YTitle:     d.Spec.YSuffix,
		},
	}
}

func cleanSection11(src *xlsx.Workbook, cfg config.Section11, log *runlog.Log) (*section11.Result, bool) {
	name, ok := section11.Locate(src.SheetNames(), cfg.SheetCandidates)
	if !ok {
		log.Skip(Section11ID, "sheet not found")
		return nil, false
	}
	sheet, err := src.GetSheet(name)
	if err != nil {
		log.Fail(Section11ID, err.Error())
		return nil, false
	}

	res := section11.Clean(name, sheet.Rows, section11.Options{
		Clusters:       cfg.Clusters,
		HighlightColor: cfg.HighlightColor,
	})
	if len(res.Rows) == 0 {
		log.Skip(Section11ID, fmt.Sprintf("%s: sheet is empty", name))
		return nil, false
	}
	log.OK(Section11ID, "%s: %d rows; %s", name, len(res.Rows)-1, strings.Join(res.Notes, "; "))
	return res, true
}
