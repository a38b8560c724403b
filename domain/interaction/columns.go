package interaction

import (
	"sort"
	"strconv"
	"strings"

	"prowler/domain/core"
)

// Column names a categorical attribute of a Record. The names follow the
// screen's conventional headers.
type Column string

const (
	ColumnPSS          Column = "PSS"
	ColumnBioprocess   Column = "BSS"
	ColumnQueryID      Column = "ORF_Q"
	ColumnArrayID      Column = "ORF_A"
	ColumnQueryGene    Column = "GENE_Q"
	ColumnArrayGene    Column = "GENE_A"
	ColumnQueryProfile Column = "PROF_Q"
	ColumnArrayProfile Column = "PROF_A"
	ColumnDMFType      Column = "DMF_TYPE"
)

var knownColumns = []Column{
	ColumnPSS, ColumnBioprocess, ColumnQueryID, ColumnArrayID, ColumnQueryGene,
	ColumnArrayGene, ColumnQueryProfile, ColumnArrayProfile, ColumnDMFType,
}

// ParseColumn resolves a column name, case-insensitively.
func ParseColumn(name string) (Column, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, c := range knownColumns {
		if string(c) == upper {
			return c, nil
		}
	}
	return "", core.NewValidationError("column", "unknown column "+strconv.Quote(name))
}

// Columns lists every groupable column.
func Columns() []Column {
	out := make([]Column, len(knownColumns))
	copy(out, knownColumns)
	return out
}

// SortCategories orders keys the way a group-by would: numerically when every
// key parses as a number, lexically otherwise.
func SortCategories(keys []string) {
	numeric := make([]float64, len(keys))
	allNumeric := true
	for i, k := range keys {
		v, err := strconv.ParseFloat(k, 64)
		if err != nil {
			allNumeric = false
			break
		}
		numeric[i] = v
	}
	if !allNumeric {
		sort.Strings(keys)
		return
	}
	sort.Sort(byNumber{keys: keys, values: numeric})
}

type byNumber struct {
	keys   []string
	values []float64
}

func (b byNumber) Len() int           { return len(b.keys) }
func (b byNumber) Less(i, j int) bool { return b.values[i] < b.values[j] }
func (b byNumber) Swap(i, j int) {
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
	b.values[i], b.values[j] = b.values[j], b.values[i]
}
