package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"prowler/domain/interaction"
	"prowler/domain/stats"
	"prowler/internal/permutation"
)

// sheet is a named block of rows; the first row is the header.
type sheet struct {
	name string
	rows [][]interface{}
}

// ReportWriter exports enrichment tables, permutation runs and interaction
// tables as XLSX workbooks or, by extension, CSV/TSV files.
type ReportWriter struct{}

// NewReportWriter creates a ReportWriter.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// WriteEnrichment writes one row per bin.
func (w *ReportWriter) WriteEnrichment(path string, table stats.EnrichmentTable) error {
	rows := [][]interface{}{{string(table.Column), "COUNT", "P", "COUNT_EXP", "SCORE", "SCORE_EXP", "FOLD_CHNG"}}
	for _, b := range table.Bins {
		var fold interface{} = ""
		if b.FoldChangeDefined {
			fold = b.FoldChange
		}
		rows = append(rows, []interface{}{b.Category, b.Count, b.Probability, b.ExpectedCount, b.Score, b.ExpectedScore, fold})
	}
	return w.write(path, []sheet{{name: "Enrichment", rows: rows}})
}

// WriteRun writes the per-trial counts and, for workbooks, a summary sheet.
func (w *ReportWriter) WriteRun(path string, run *permutation.Run) error {
	trials := [][]interface{}{{"iteration", "similar", "dissimilar", "mirror"}}
	for _, t := range run.Trials {
		trials = append(trials, []interface{}{t.Index + 1, t.Similar, t.Dissimilar, t.Mirror})
	}

	summary := [][]interface{}{
		{"class", "observed", "null_mean", "null_std_dev", "null_p95", "p_value", "z_score"},
		classRow("similar", run.Significance.Similar, run.Summary.Similar),
		classRow("dissimilar", run.Significance.Dissimilar, run.Summary.Dissimilar),
		classRow("mirror", run.Significance.Mirror, run.Summary.Mirror),
	}
	return w.write(path, []sheet{{name: "Trials", rows: trials}, {name: "Summary", rows: summary}})
}

func classRow(name string, sig permutation.ClassSignificance, null permutation.ClassSummary) []interface{} {
	var z interface{} = ""
	if sig.ZScore != nil {
		z = *sig.ZScore
	}
	return []interface{}{name, sig.Observed, null.Mean, null.StdDev, null.P95, sig.PValue, z}
}

// WriteInteractions writes a table in the layout InteractionsFromData reads.
func (w *ReportWriter) WriteInteractions(path string, table interaction.Table) error {
	header := []interface{}{
		HeaderQueryID, HeaderArrayID, HeaderQueryGene, HeaderArrayGene, HeaderDMF, HeaderQuerySMF,
		HeaderArraySMF, HeaderGIS, HeaderGISPValue, HeaderBioprocess, HeaderQueryProfile, HeaderArrayProfile,
	}
	scored := table.Len() > 0 && table.Scored()
	if scored {
		header = append(header, HeaderPSS)
	}
	rows := [][]interface{}{header}
	for _, r := range table.Records() {
		row := []interface{}{
			r.QueryID, r.ArrayID, r.QueryGene, r.ArrayGene, r.DMF, r.QuerySMF,
			r.ArraySMF, r.GIS, r.GISPValue, r.Bioprocess, r.QueryProfile.String(), r.ArrayProfile.String(),
		}
		if scored {
			row = append(row, r.PSS)
		}
		rows = append(rows, row)
	}
	return w.write(path, []sheet{{name: "Sheet1", rows: rows}})
}

func (w *ReportWriter) write(path string, sheets []sheet) error {
	switch fileTypeOf(path) {
	case "csv":
		return writeDelimited(path, ',', sheets[0])
	case "tsv":
		return writeDelimited(path, '\t', sheets[0])
	default:
		return writeWorkbook(path, sheets)
	}
}

func writeWorkbook(path string, sheets []sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.name, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			values := row
			if err := f.SetSheetRow(s.name, cell, &values); err != nil {
				return fmt.Errorf("writing %s row %d: %w", s.name, r+1, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeDelimited(path string, comma rune, s sheet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	out := csv.NewWriter(file)
	out.Comma = comma
	for _, row := range s.rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return err
	}
	return file.Close()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
