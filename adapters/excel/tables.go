package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
	"prowler/internal"
)

// TableReader loads interaction tables and catalogues from sheets.
type TableReader struct {
	logger *internal.Logger
}

// NewTableReader creates a TableReader.
func NewTableReader(logger *internal.Logger) *TableReader {
	return &TableReader{logger: logger}
}

// ReadInteractions implements ports.TableReader.
func (t *TableReader) ReadInteractions(ctx context.Context, path string) (interaction.Table, error) {
	data, err := t.read(ctx, path)
	if err != nil {
		return interaction.Table{}, err
	}
	return InteractionsFromData(data)
}

// ReadCatalogue implements ports.TableReader.
func (t *TableReader) ReadCatalogue(ctx context.Context, path string) (interaction.Catalogue, error) {
	data, err := t.read(ctx, path)
	if err != nil {
		return interaction.Catalogue{}, err
	}
	return CatalogueFromData(data)
}

func (t *TableReader) read(ctx context.Context, path string) (*ExcelData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := NewDataReader(path, t.logger).ReadData()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// InteractionsFromData maps sheet rows onto records. ORF_Q, ORF_A, PROF_Q and
// PROF_A are required; numeric columns default to zero when absent. When a PSS
// column is present every row must carry a score and the table comes back
// scored.
func InteractionsFromData(data *ExcelData) (interaction.Table, error) {
	for _, h := range []string{HeaderQueryID, HeaderArrayID, HeaderQueryProfile, HeaderArrayProfile} {
		if !data.HasColumn(h) {
			return interaction.Table{}, core.NewValidationError("header", "missing column "+h)
		}
	}
	scored := data.HasColumn(HeaderPSS)

	records := make([]interaction.Record, 0, len(data.Rows))
	for i, row := range data.Rows {
		c := cells{data: data, row: row, line: i + 2}
		rec := interaction.Record{
			QueryID:    c.text(HeaderQueryID),
			ArrayID:    c.text(HeaderArrayID),
			QueryGene:  c.text(HeaderQueryGene),
			ArrayGene:  c.text(HeaderArrayGene),
			Bioprocess: c.text(HeaderBioprocess),
			DMF:        c.number(HeaderDMF),
			QuerySMF:   c.number(HeaderQuerySMF),
			ArraySMF:   c.number(HeaderArraySMF),
			GIS:        c.number(HeaderGIS),
			GISPValue:  c.number(HeaderGISPValue),
		}
		rec.QueryProfile = c.profile(HeaderQueryProfile)
		rec.ArrayProfile = c.profile(HeaderArrayProfile)
		if scored {
			rec.PSS = c.requiredNumber(HeaderPSS)
			rec.Scored = true
		}
		if c.err != nil {
			return interaction.Table{}, c.err
		}
		records = append(records, rec)
	}
	return interaction.NewTable(records)
}

// CatalogueFromData maps ORF/PROF rows onto a catalogue.
func CatalogueFromData(data *ExcelData) (interaction.Catalogue, error) {
	for _, h := range []string{HeaderEntity, HeaderProfile} {
		if !data.HasColumn(h) {
			return interaction.Catalogue{}, core.NewValidationError("header", "missing column "+h)
		}
	}
	entries := make([]interaction.CatalogueEntry, 0, len(data.Rows))
	for i, row := range data.Rows {
		c := cells{data: data, row: row, line: i + 2}
		entry := interaction.CatalogueEntry{ID: c.text(HeaderEntity), Profile: c.profile(HeaderProfile)}
		if c.err != nil {
			return interaction.Catalogue{}, c.err
		}
		entries = append(entries, entry)
	}
	return interaction.NewCatalogue(entries)
}

// cells reads typed values out of one row, keeping the first error.
type cells struct {
	data *ExcelData
	row  RawRowData
	line int
	err  error
}

func (c *cells) text(name string) string {
	header, ok := c.data.header(name)
	if !ok {
		return ""
	}
	return c.row[header]
}

func (c *cells) number(name string) float64 {
	raw := c.text(name)
	if raw == "" || c.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.err = core.NewValidationError(fmt.Sprintf("line %d column %s", c.line, name),
			"not a number: "+strconv.Quote(raw))
		return 0
	}
	return v
}

// requiredNumber is number for columns where an empty cell is an error.
func (c *cells) requiredNumber(name string) float64 {
	if c.err == nil && strings.TrimSpace(c.text(name)) == "" {
		c.err = core.NewValidationError(fmt.Sprintf("line %d column %s", c.line, name), "missing value")
		return 0
	}
	return c.number(name)
}

func (c *cells) profile(name string) profile.Profile {
	if c.err != nil {
		return ""
	}
	p, err := profile.Parse(c.text(name))
	if err != nil {
		c.err = fmt.Errorf("line %d column %s: %w", c.line, name, err)
		return ""
	}
	return p
}
