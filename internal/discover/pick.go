package discover

// Pick is the workbook chosen for one Cono, or the reason none was.
type Pick struct {
	Cono  Cono      `json:"cono"`
	File  *FileInfo `json:"file,omitempty"`
	Error string    `json:"error,omitempty"`
}

// PickAll resolves the Cono folders and the latest workbook in each. A folder without an
// eligible workbook is reported in its Pick rather than failing the whole call.
func PickAll(patterns []string, opts Options) ([]Pick, error) {
	conos, err := Conos(patterns)
	if err != nil {
		return nil, err
	}
	picks := make([]Pick, 0, len(conos))
	for _, c := range conos {
		p := Pick{Cono: c}
		f, err := Latest(c.Dir, opts)
		if err != nil {
			p.Error = err.Error()
		} else {
			p.File = f
		}
		picks = append(picks, p)
	}
	return picks, nil
}
