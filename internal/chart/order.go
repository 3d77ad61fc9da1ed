package chart

// Layout names the sheets of one output workbook by group.
type Layout struct {
	Charts    []string
	Section11 string
	Originals []string
	RunLog    string
}

// Order returns the final sheet order: charts in configuration order, the cleaned
// Section 11 sheet, the original sheets in source order, and the run log last.
// Empty names are omitted.
func (l Layout) Order() []string {
	out := make([]string, 0, len(l.Charts)+len(l.Originals)+2)
	for _, n := range l.Charts {
		if n != "" {
			out = append(out, n)
		}
	}
	if l.Section11 != "" {
		out = append(out, l.Section11)
	}
	for _, n := range l.Originals {
		if n != "" {
			out = append(out, n)
		}
	}
	if l.RunLog != "" {
		out = append(out, l.RunLog)
	}
	return out
}
