package chart

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of the 8-digit date prefix on metric columns (MMDDYYYY).
const DateLayout = "01022006"

// LabelLayout is the display layout for series labels (MM/DD/YYYY).
const LabelLayout = "01/02/2006"

var datePrefixPattern = regexp.MustCompile(`^(\d{8})_(.+)$`)

// Column is a header whose text carries a valid MMDDYYYY prefix.
type Column struct {
	Header string    `json:"header"`
	Index  int       `json:"index"`
	Date   time.Time `json:"date"`
}

// Label returns the MM/DD/YYYY rendering of the column date.
func (c Column) Label() string {
	return c.Date.Format(LabelLayout)
}

// Match returns the headers of the form <MMDDYYYY>_<suffix>, sorted ascending by date.
// The suffix comparison is exact and case-sensitive. Headers whose prefix is not a real
// calendar date are not matches. Headers sharing a date keep their input order.
// An empty result means the suffix has no data yet.
func Match(headers []string, suffix string) []Column {
	if suffix == "" {
		return nil
	}
	pattern := regexp.MustCompile(`^\d{8}_` + regexp.QuoteMeta(suffix) + `$`)

	var cols []Column
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if !pattern.MatchString(h) {
			continue
		}
		d, ok := ParseDate(h[:8])
		if !ok {
			continue
		}
		cols = append(cols, Column{Header: h, Index: i, Date: d})
	}

	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].Date.Before(cols[j].Date)
	})
	return cols
}

// Suffixes lists every distinct suffix found behind a valid date prefix, sorted.
func Suffixes(headers []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range headers {
		m := datePrefixPattern.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		if _, ok := ParseDate(m[1]); !ok {
			continue
		}
		if !seen[m[2]] {
			seen[m[2]] = true
			out = append(out, m[2])
		}
	}
	sort.Strings(out)
	return out
}

// ParseDate decodes an 8-digit MMDDYYYY string. It rejects impossible dates such as
// 02302025 instead of normalizing them.
func ParseDate(s string) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}
	month, _ := strconv.Atoi(s[0:2])
	day, _ := strconv.Atoi(s[2:4])
	year, _ := strconv.Atoi(s[4:8])
	if month < 1 || month > 12 || day < 1 || year < 1 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
