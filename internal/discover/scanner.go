// Package discover finds Cono folders and picks the workbook each run should process.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoWorkbook is returned when a folder holds no eligible workbook.
var ErrNoWorkbook = errors.New("no eligible workbook")

// Cono is one business-unit folder.
type Cono struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

// FileInfo represents a candidate report workbook.
type FileInfo struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Stamp      time.Time `json:"stamp,omitempty"`
	HasStamp   bool      `json:"hasStamp"`
}

// SourceTime is the filename timestamp when present, else the modification time.
func (f FileInfo) SourceTime() time.Time {
	if f.HasStamp {
		return f.Stamp
	}
	return f.ModifiedAt
}

// HumanSize renders Size with a binary unit, e.g. "12.3 KB".
func (f FileInfo) HumanSize() string {
	const unit = 1024
	if f.Size < unit {
		return fmt.Sprintf("%d B", f.Size)
	}
	div, exp := int64(unit), 0
	for n := f.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(f.Size)/float64(div), "KMGTPE"[exp])
}

// Options configures workbook selection.
type Options struct {
	Recursive  bool
	Extensions []string // empty = .xlsx
	Ignore     []string // case-insensitive filename substrings
}

// ExtensionSet returns the lower-case, dot-prefixed extensions to accept.
func (o Options) ExtensionSet() map[string]bool {
	set := make(map[string]bool)
	for _, e := range o.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	if len(set) == 0 {
		set[".xlsx"] = true
	}
	return set
}

var conoNameRe = regexp.MustCompile(`(?i)^cono\d+$`)

// Conos expands the glob patterns and returns the matching directories. The Cono name is
// the nearest path element that looks like Cono<digits>, else the parent directory name.
func Conos(patterns []string) ([]Cono, error) {
	seen := make(map[string]bool)
	var out []Cono
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid discovery pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			clean := filepath.Clean(m)
			if seen[clean] {
				continue
			}
			seen[clean] = true
			out = append(out, Cono{Name: conoName(clean), Dir: clean})
		}
	}

	// Sort by path for deterministic output
	sort.Slice(out, func(i, j int) bool {
		return out[i].Dir < out[j].Dir
	})
	return out, nil
}

func conoName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	parts := strings.Split(filepath.ToSlash(abs), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if conoNameRe.MatchString(parts[i]) {
			return parts[i]
		}
	}
	return filepath.Base(filepath.Dir(abs))
}

// Scan lists the eligible workbooks in dir, sorted by path.
func Scan(dir string, opts Options) ([]FileInfo, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("could not access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	extFilter := opts.ExtensionSet()
	var files []FileInfo
	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible
		}
		if d.IsDir() {
			if !opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !Eligible(d.Name(), extFilter, opts.Ignore) {
			return nil
		}

		finfo, err := d.Info()
		if err != nil {
			return nil
		}
		fi := FileInfo{
			Path:       path,
			Name:       d.Name(),
			Size:       finfo.Size(),
			ModifiedAt: finfo.ModTime(),
		}
		fi.Stamp, fi.HasStamp = ParseFilenameTimestamp(d.Name())
		files = append(files, fi)
		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Stat describes a single workbook given on the command line.
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("could not access %s: %w", path, err)
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	fi := FileInfo{
		Path:       path,
		Name:       info.Name(),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}
	fi.Stamp, fi.HasStamp = ParseFilenameTimestamp(info.Name())
	return fi, nil
}

// Eligible reports whether a file name passes the extension, lock-file and ignore filters.
func Eligible(name string, extensions map[string]bool, ignore []string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	if !extensions[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	lower := strings.ToLower(name)
	for _, sub := range ignore {
		if sub != "" && strings.Contains(lower, strings.ToLower(sub)) {
			return false
		}
	}
	return true
}

// Latest picks the newest eligible workbook in dir. Files with a filename timestamp rank
// above files without one; within each group the later time wins and ties go to the
// lexically greater name.
func Latest(dir string, opts Options) (*FileInfo, error) {
	files, err := Scan(dir, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoWorkbook, dir)
	}

	best := files[0]
	for _, f := range files[1:] {
		if newer(f, best) {
			best = f
		}
	}
	return &best, nil
}

func newer(a, b FileInfo) bool {
	if a.HasStamp != b.HasStamp {
		return a.HasStamp
	}
	ta, tb := a.SourceTime(), b.SourceTime()
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a.Name > b.Name
}

var filenameTSRe = regexp.MustCompile(`(\d{2})(\d{2})(\d{4})_(\d{2})_(\d{2})`)

// ParseFilenameTimestamp extracts the first valid MMDDYYYY_HH_MM stamp from a file name.
// The stamp is a wall-clock time and is returned in UTC without conversion.
func ParseFilenameTimestamp(name string) (time.Time, bool) {
	for _, m := range filenameTSRe.FindAllStringSubmatch(name, -1) {
		var n [5]int
		for i := range n {
			n[i], _ = strconv.Atoi(m[i+1])
		}
		month, day, year, hour, minute := n[0], n[1], n[2], n[3], n[4]
		if hour > 23 || minute > 59 {
			continue
		}
		t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}
