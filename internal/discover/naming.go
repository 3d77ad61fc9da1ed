package discover

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

// Default stamp layouts for the bare {src_ts} and {run_ts_EST} tokens.
const (
	SourceStampFormat = "DDMMYY_HH_mm"
	RunStampFormat    = "MMDDYYYY_HHmm"
)

// Location resolves an IANA timezone name; empty means UTC.
func Location(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("could not load timezone %q: %w", name, err)
	}
	return loc, nil
}

// SourceTime returns the time a workbook's data was exported: the filename stamp read as
// wall-clock time in loc, else the modification time converted to loc.
func SourceTime(f FileInfo, loc *time.Location) time.Time {
	if f.HasStamp {
		s := f.Stamp
		return time.Date(s.Year(), s.Month(), s.Day(), s.Hour(), s.Minute(), 0, 0, loc)
	}
	return f.ModifiedAt.In(loc)
}

var stampTokens = regexp.MustCompile(`YYYY|YY|MM|DD|HH|mm`)

// FormatStamp renders t using the DD, MM, YY, YYYY, HH and mm tokens. Other characters
// are copied as-is.
func FormatStamp(t time.Time, layout string) string {
	return stampTokens.ReplaceAllStringFunc(layout, func(tok string) string {
		switch tok {
		case "YYYY":
			return fmt.Sprintf("%04d", t.Year())
		case "YY":
			return fmt.Sprintf("%02d", t.Year()%100)
		case "MM":
			return fmt.Sprintf("%02d", int(t.Month()))
		case "DD":
			return fmt.Sprintf("%02d", t.Day())
		case "HH":
			return fmt.Sprintf("%02d", t.Hour())
		default:
			return fmt.Sprintf("%02d", t.Minute())
		}
	})
}

var patternTokens = regexp.MustCompile(`\{(cono|src_ts|run_ts_EST|run_ts)(?::([^}]*))?\}`)

// OutputName expands a filename pattern. Supported tokens are {cono}, {src_ts} and
// {run_ts_EST} (alias {run_ts}); the time tokens accept an explicit layout such as
// {src_ts:DDMMYY_HH_mm}. Both times are rendered in loc. ".xlsx" is appended when missing.
func OutputName(pattern, cono string, src, run time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	name := patternTokens.ReplaceAllStringFunc(pattern, func(tok string) string {
		m := patternTokens.FindStringSubmatch(tok)
		key, layout := m[1], m[2]
		switch key {
		case "cono":
			return cono
		case "src_ts":
			if layout == "" {
				layout = SourceStampFormat
			}
			return FormatStamp(src.In(loc), layout)
		default:
			if layout == "" {
				layout = RunStampFormat
			}
			return FormatStamp(run.In(loc), layout)
		}
	})
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}
