package stats

import (
	"encoding/json"
	"fmt"
	"math"

	"prowler/domain/core"
	"prowler/domain/interaction"
)

// EnrichmentBin is one category of an enrichment table.
type EnrichmentBin struct {
	Category      string  `json:"category"`
	Count         int     `json:"count"`
	Probability   float64 `json:"p"`
	ExpectedCount float64 `json:"count_exp"`
	Score         float64 `json:"score"`
	ExpectedScore float64 `json:"score_exp"`
	// FoldChange is log2(Count/ExpectedCount). It is NaN or ±Inf when the
	// expected count is zero, in which case FoldChangeDefined is false.
	FoldChange        float64 `json:"fold_change"`
	FoldChangeDefined bool    `json:"fold_change_defined"`
}

// MarshalJSON writes an undefined fold change as null.
func (b EnrichmentBin) MarshalJSON() ([]byte, error) {
	type plain EnrichmentBin
	out := struct {
		plain
		FoldChange *float64 `json:"fold_change"`
	}{plain: plain(b)}
	if b.FoldChangeDefined {
		fc := b.FoldChange
		out.FoldChange = &fc
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores an undefined fold change from the counts.
func (b *EnrichmentBin) UnmarshalJSON(data []byte) error {
	type plain EnrichmentBin
	var in struct {
		plain
		FoldChange *float64 `json:"fold_change"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = EnrichmentBin(in.plain)
	if in.FoldChange != nil {
		b.FoldChange = *in.FoldChange
	} else {
		b.FoldChange, b.FoldChangeDefined = FoldChange(float64(b.Count), b.ExpectedCount)
	}
	return nil
}

// EnrichmentTable holds one bin per distinct category of the selected rows.
type EnrichmentTable struct {
	Column   interaction.Column `json:"column"`
	Selected int                `json:"selected"`
	Total    int                `json:"total"`
	Bins     []EnrichmentBin    `json:"bins"`
}

// Bin returns the bin for category.
func (t EnrichmentTable) Bin(category string) (EnrichmentBin, bool) {
	for _, b := range t.Bins {
		if b.Category == category {
			return b, true
		}
	}
	return EnrichmentBin{}, false
}

// FoldChange returns log2(observed/expected) and whether it is defined.
func FoldChange(observed, expected float64) (float64, bool) {
	fc := math.Log2(observed / expected)
	defined := expected != 0 && !math.IsNaN(fc) && !math.IsInf(fc, 0)
	return fc, defined
}

// ComputeEnrichment bins selected and total by column and scores every
// category of selected against its background rate in total. selected is
// assumed to be a subset of total; a selected category missing from total has
// a zero background rate and fails with a math domain error.
func ComputeEnrichment(selected, total interaction.Table, column interaction.Column) (EnrichmentTable, error) {
	if selected.Len() == 0 || total.Len() == 0 {
		return EnrichmentTable{}, core.NewPreconditionError("selected and total tables must not be empty")
	}
	if selected.Len() > total.Len() {
		return EnrichmentTable{}, core.NewPreconditionError(
			fmt.Sprintf("selected (%d rows) must not be longer than total (%d rows)", selected.Len(), total.Len()))
	}

	selectedBins, order, err := countBy(selected, column)
	if err != nil {
		return EnrichmentTable{}, fmt.Errorf("binning selected: %w", err)
	}
	totalBins, _, err := countBy(total, column)
	if err != nil {
		return EnrichmentTable{}, fmt.Errorf("binning total: %w", err)
	}

	n := selected.Len()
	table := EnrichmentTable{
		Column:   column,
		Selected: n,
		Total:    total.Len(),
		Bins:     make([]EnrichmentBin, 0, len(order)),
	}
	for _, category := range order {
		count := selectedBins[category]
		background := totalBins[category]

		bin := EnrichmentBin{
			Category:    category,
			Count:       count,
			Probability: float64(background) / float64(total.Len()),
			// n*background is exact for any realistic screen, so a selected
			// table equal to total gives an expected count equal to Count.
			ExpectedCount: float64(n) * float64(background) / float64(total.Len()),
		}

		bin.Score, err = LogBinomialTailProbability(count, n, bin.Probability)
		if err != nil {
			return EnrichmentTable{}, fmt.Errorf("score for category %q: %w", category, err)
		}
		bin.ExpectedScore, err = LogBinomialTailProbability(int(bin.ExpectedCount), n, bin.Probability)
		if err != nil {
			return EnrichmentTable{}, fmt.Errorf("expected score for category %q: %w", category, err)
		}
		bin.FoldChange, bin.FoldChangeDefined = FoldChange(float64(count), bin.ExpectedCount)

		table.Bins = append(table.Bins, bin)
	}
	return table, nil
}

func countBy(t interaction.Table, column interaction.Column) (map[string]int, []string, error) {
	counts := make(map[string]int)
	order := make([]string, 0)
	for i := 0; i < t.Len(); i++ {
		key, err := t.Record(i).Category(column)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	interaction.SortCategories(order)
	return counts, order, nil
}
