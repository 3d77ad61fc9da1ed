// Package section11 cleans the Section 11 login report: it removes layout debris, puts the
// dated Login_Date and LastWk columns in chronological order and marks values that did not
// change since the previous report.
package section11

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/klytics/conokit/internal/chart"
	"github.com/klytics/conokit/internal/formats/xlsx"
)

// Options configures the cleanup.
type Options struct {
	Clusters       []string // dated column suffixes; rows blank across the first one are dropped
	HighlightColor string
}

// DefaultClusters are the dated column groups of the Section 11 report.
var DefaultClusters = []string{"Login_Date", "LastWk"}

// Result is a cleaned Section 11 table ready to be written.
type Result struct {
	Sheet      string           `json:"sheet"`
	Rows       [][]string       `json:"rows"`
	Clusters   [][]string       `json:"clusters"`
	Highlights []xlsx.Highlight `json:"highlights"`
	Dropped    int              `json:"dropped"`
	Notes      []string         `json:"notes"`
}

var (
	separators = regexp.MustCompile(`[\s_-]+`)
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Locate returns the Section 11 sheet among names. Candidates are compared ignoring case,
// spaces, underscores and hyphens; failing that, any sheet whose name contains section11
// or sec11 is taken.
func Locate(names, candidates []string) (string, bool) {
	for _, cand := range candidates {
		want := separators.ReplaceAllString(strings.ToLower(cand), "")
		if want == "" {
			continue
		}
		for _, name := range names {
			if separators.ReplaceAllString(strings.ToLower(name), "") == want {
				return name, true
			}
		}
	}
	for _, name := range names {
		n := nonAlnum.ReplaceAllString(strings.ToLower(name), "")
		if strings.Contains(n, "section11") || strings.Contains(n, "sec11") {
			return name, true
		}
	}
	return "", false
}

// Clean runs the full cleanup on the raw rows of the located sheet.
func Clean(sheet string, rows [][]string, opts Options) *Result {
	clusters := opts.Clusters
	if len(clusters) == 0 {
		clusters = DefaultClusters
	}
	color := opts.HighlightColor
	if color == "" {
		color = xlsx.DefaultHighlightColor
	}

	res := &Result{Sheet: sheet}
	table := tidy(rows)
	if len(table) == 0 {
		res.Notes = append(res.Notes, "sheet is empty")
		return res
	}

	header, data := table[0], table[1:]
	order, groups := columnOrder(header, clusters)
	res.Clusters = groups

	header = pick(header, order)
	for i := range data {
		data[i] = pick(data[i], order)
	}

	if len(groups[0]) > 0 {
		kept := data[:0]
		for _, row := range data {
			if anyFilled(row, header, groups[0]) {
				kept = append(kept, row)
			}
		}
		res.Dropped = len(data) - len(kept)
		data = kept
		res.Notes = append(res.Notes, fmt.Sprintf("dropped %d rows with all %s blank", res.Dropped, clusters[0]))
	} else {
		res.Notes = append(res.Notes, fmt.Sprintf("no dated %s columns", clusters[0]))
	}

	if oper := findColumn(header, "oper"); oper >= 0 {
		sort.SliceStable(data, func(i, j int) bool {
			a, b := data[i][oper], data[j][oper]
			if a == "" || b == "" {
				return b == "" && a != ""
			}
			return a < b
		})
		res.Notes = append(res.Notes, fmt.Sprintf("sorted by %s", header[oper]))
	} else {
		res.Notes = append(res.Notes, "Oper column not found for sorting")
	}

	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		res.Highlights = append(res.Highlights, xlsx.Highlight{
			Column:   g[len(g)-1],
			Previous: g[len(g)-2],
			Color:    color,
		})
	}

	res.Rows = append([][]string{header}, data...)
	return res
}

// tidy trims cells, collapses header whitespace and removes empty rows, empty columns and
// repeated header rows. Every returned row has the header's width.
func tidy(rows [][]string) [][]string {
	width := 0
	var out [][]string
	for _, row := range rows {
		r := make([]string, len(row))
		filled := false
		for i, c := range row {
			r[i] = strings.TrimSpace(c)
			if r[i] != "" {
				filled = true
			}
		}
		if !filled {
			continue
		}
		if len(r) > width {
			width = len(r)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	for i := range out {
		for len(out[i]) < width {
			out[i] = append(out[i], "")
		}
	}
	for i, h := range out[0] {
		out[0][i] = spaces.ReplaceAllString(h, " ")
	}

	var keep []int
	for col := 0; col < width; col++ {
		for _, row := range out {
			if row[col] != "" {
				keep = append(keep, col)
				break
			}
		}
	}

	header := pick(out[0], keep)
	table := [][]string{header}
	for _, row := range out[1:] {
		r := pick(row, keep)
		if slices.Equal(r, header) {
			continue
		}
		table = append(table, r)
	}
	return table
}

// columnOrder returns the new column order (Oper, Vname, each cluster by date, leftovers)
// and the headers of each cluster.
func columnOrder(header []string, clusters []string) ([]int, [][]string) {
	var order []int
	placed := make(map[int]bool)
	place := func(i int) {
		if i >= 0 && !placed[i] {
			placed[i] = true
			order = append(order, i)
		}
	}

	place(findColumn(header, "oper"))
	place(findColumn(header, "vname", "vendorname", "name"))

	groups := make([][]string, len(clusters))
	for g, suffix := range clusters {
		for _, col := range chart.Match(header, suffix) {
			if placed[col.Index] {
				continue
			}
			place(col.Index)
			groups[g] = append(groups[g], header[col.Index])
		}
	}
	for i := range header {
		place(i)
	}
	return order, groups
}

func findColumn(header []string, names ...string) int {
	for _, want := range names {
		for i, h := range header {
			if separators.ReplaceAllString(strings.ToLower(h), "") == want {
				return i
			}
		}
	}
	return -1
}

func anyFilled(row, header, cols []string) bool {
	for _, c := range cols {
		for i, h := range header {
			if h == c && i < len(row) && row[i] != "" {
				return true
			}
		}
	}
	return false
}

func pick(row []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		if j < len(row) {
			out[i] = row[j]
		}
	}
	return out
}
