package chart

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NumberFormat describes the separators used by numeric text in report cells.
type NumberFormat struct {
	Thousands string `json:"thousands" mapstructure:"thousands_separator" yaml:"thousands_separator"`
	Decimal   string `json:"decimal" mapstructure:"decimal_separator" yaml:"decimal_separator"`
}

// DefaultNumberFormat is "1,234.5".
var DefaultNumberFormat = NumberFormat{Thousands: ",", Decimal: "."}

// Validate reports separators that would make coercion ambiguous.
func (nf NumberFormat) Validate() error {
	if len([]rune(nf.Decimal)) != 1 {
		return fmt.Errorf("decimal separator must be a single character, got %q", nf.Decimal)
	}
	if len([]rune(nf.Thousands)) > 1 {
		return fmt.Errorf("thousands separator must be at most one character, got %q", nf.Thousands)
	}
	if nf.Thousands == nf.Decimal {
		return fmt.Errorf("thousands and decimal separators must differ (both %q)", nf.Decimal)
	}
	return nil
}

// maxExponent bounds scientific notation to the float64 range.
const maxExponent = 308

// Coerce converts cell text to a number. Blank, whitespace-only and non-numeric text
// yield an invalid (empty) value, never zero. Scientific notation is accepted; the
// mantissa follows the same separator rules as plain numbers.
func (nf NumberFormat) Coerce(cell string) decimal.NullDecimal {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.NullDecimal{}
	}

	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if i == 0 || err != nil || exp > maxExponent || exp < -maxExponent {
			return decimal.NullDecimal{}
		}
		m := nf.Coerce(s[:i])
		if !m.Valid || strings.TrimSpace(s[:i]) != s[:i] {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(m.Decimal.Shift(int32(exp)))
	}

	intPart, fracPart := s, ""
	if i := strings.LastIndex(s, nf.Decimal); i >= 0 {
		intPart, fracPart = s[:i], s[i+len(nf.Decimal):]
		if fracPart == "" || !allDigits(fracPart) {
			return decimal.NullDecimal{}
		}
	}

	sign := ""
	if strings.HasPrefix(intPart, "-") || strings.HasPrefix(intPart, "+") {
		sign, intPart = intPart[:1], intPart[1:]
	}
	if nf.Thousands != "" && strings.Contains(intPart, nf.Thousands) {
		groups := strings.Split(intPart, nf.Thousands)
		if len(groups[0]) == 0 || len(groups[0]) > 3 || !allDigits(groups[0]) {
			return decimal.NullDecimal{}
		}
		for _, g := range groups[1:] {
			if len(g) != 3 || !allDigits(g) {
				return decimal.NullDecimal{}
			}
		}
		intPart = strings.Join(groups, "")
	}
	if intPart == "" && fracPart == "" {
		return decimal.NullDecimal{}
	}
	if intPart != "" && !allDigits(intPart) {
		return decimal.NullDecimal{}
	}

	normalized := sign + intPart
	if normalized == sign {
		normalized += "0"
	}
	if fracPart != "" {
		normalized += "." + fracPart
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DatedSeries is the numeric series extracted from one matched column.
type DatedSeries struct {
	Date   time.Time                      `json:"date"`
	Header string                         `json:"header"`
	Label  string                         `json:"label"`
	Keys   []string                       `json:"keys"`
	Values map[string]decimal.NullDecimal `json:"values"`
}

// Value returns the value for a category key; unknown keys are empty.
func (s *DatedSeries) Value(key string) decimal.NullDecimal {
	return s.Values[key]
}

// BuildSeries extracts the series of col from rows, keyed by the trimmed text of the
// xIdx column. Rows with a blank key are excluded. A key repeated in later rows
// takes the later row's value.
func BuildSeries(rows [][]string, xIdx int, col Column, nf NumberFormat) DatedSeries {
	s := DatedSeries{
		Date:   col.Date,
		Header: col.Header,
		Label:  col.Label(),
		Values: make(map[string]decimal.NullDecimal),
	}
	for _, row := range rows {
		key := strings.TrimSpace(cellAt(row, xIdx))
		if key == "" {
			continue
		}
		if _, seen := s.Values[key]; !seen {
			s.Keys = append(s.Keys, key)
		}
		s.Values[key] = nf.Coerce(cellAt(row, col.Index))
	}
	return s
}

// cellAt tolerates the ragged rows excelize returns for trailing empty cells.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
