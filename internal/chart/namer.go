package chart

import (
	"strconv"
	"strings"
)

// MaxSheetNameLen is Excel's limit on worksheet names, in characters.
const MaxSheetNameLen = 31

// NameSet holds the sheet names already used in one output workbook. Excel compares
// sheet names case-insensitively, so keys are folded.
type NameSet map[string]struct{}

// NewNameSet builds a set from existing names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[fold(n)] = struct{}{}
	}
	return s
}

// Has reports whether name is taken.
func (s NameSet) Has(name string) bool {
	_, ok := s[fold(name)]
	return ok
}

func (s NameSet) with(name string) NameSet {
	out := make(NameSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[fold(name)] = struct{}{}
	return out
}

func fold(name string) string {
	return strings.ToLower(name)
}

var invalidSheetChars = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// SanitizeSheetName replaces characters Excel rejects in sheet names.
func SanitizeSheetName(base string) string {
	s := invalidSheetChars.Replace(strings.TrimSpace(base))
	s = strings.Trim(s, "'")
	if s == "" {
		return "Sheet"
	}
	return s
}

// UniqueName returns a name for base that fits MaxSheetNameLen and is not in used,
// together with a new set that includes it. used is not modified.
// Collisions get the smallest free suffix _2, _3, ... with the base truncated to fit.
func UniqueName(base string, used NameSet) (string, NameSet) {
	base = SanitizeSheetName(base)

	name := truncate(base, MaxSheetNameLen)
	if !used.Has(name) {
		return name, used.with(name)
	}
	for n := 2; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		name = truncate(base, MaxSheetNameLen-len(suffix)) + suffix
		if !used.Has(name) {
			return name, used.with(name)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " ")
}
