package excel

// RawRowData represents a row of raw sheet data as header -> cell pairs
type RawRowData map[string]string

// ExcelData represents the complete sheet
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// HasColumn reports whether name is one of the headers, case-insensitively.
func (d *ExcelData) HasColumn(name string) bool {
	_, ok := d.header(name)
	return ok
}

func (d *ExcelData) header(name string) (string, bool) {
	for _, h := range d.Headers {
		if equalFold(h, name) {
			return h, true
		}
	}
	return "", false
}

// Column headers of an interaction sheet.
const (
	HeaderQueryID      = "ORF_Q"
	HeaderArrayID      = "ORF_A"
	HeaderQueryGene    = "GENE_Q"
	HeaderArrayGene    = "GENE_A"
	HeaderDMF          = "DMF"
	HeaderQuerySMF     = "SMF_Q"
	HeaderArraySMF     = "SMF_A"
	HeaderGIS          = "GIS"
	HeaderGISPValue    = "GIS_P"
	HeaderBioprocess   = "BSS"
	HeaderQueryProfile = "PROF_Q"
	HeaderArrayProfile = "PROF_A"
	HeaderPSS          = "PSS"
)

// Column headers of a catalogue sheet.
const (
	HeaderEntity  = "ORF"
	HeaderProfile = "PROF"
)
