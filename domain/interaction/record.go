// Package interaction models a genetic-interaction screen as a typed table of
// query/array pairs, each carrying fitness measures and the phylogenetic
// profiles of both entities.
package interaction

import (
	"strconv"

	"prowler/domain/core"
	"prowler/domain/profile"
)

// Bioprocess similarity tags used by the selector.
const (
	BioprocessIdentical = "identical"
	BioprocessDifferent = "different"
)

// Record is one interaction row.
type Record struct {
	QueryID   string `json:"query_id"`
	ArrayID   string `json:"array_id"`
	QueryGene string `json:"query_gene,omitempty"`
	ArrayGene string `json:"array_gene,omitempty"`

	DMF       float64 `json:"dmf"`
	QuerySMF  float64 `json:"query_smf"`
	ArraySMF  float64 `json:"array_smf"`
	GIS       float64 `json:"gis"`
	GISPValue float64 `json:"gis_p_value"`

	Bioprocess string `json:"bioprocess,omitempty"`

	QueryProfile profile.Profile `json:"query_profile"`
	ArrayProfile profile.Profile `json:"array_profile"`

	// PSS is the profile similarity score; meaningful only when Scored.
	PSS    float64 `json:"pss"`
	Scored bool    `json:"scored"`
}

// PositiveDMF reports a double-mutant fitness above both single-mutant fitnesses.
func (r Record) PositiveDMF() bool {
	return r.DMF > r.QuerySMF && r.DMF > r.ArraySMF
}

// NegativeDMF reports a double-mutant fitness below both single-mutant fitnesses.
func (r Record) NegativeDMF() bool {
	return r.DMF < r.QuerySMF && r.DMF < r.ArraySMF
}

// DMFType labels the record as positive, negative or neutral.
func (r Record) DMFType() string {
	switch {
	case r.PositiveDMF():
		return "positive"
	case r.NegativeDMF():
		return "negative"
	default:
		return "neutral"
	}
}

// Category returns the value of col rendered as a grouping key.
func (r Record) Category(col Column) (string, error) {
	switch col {
	case ColumnPSS:
		if !r.Scored {
			return "", core.NewValidationError(string(col), "record has not been scored")
		}
		return strconv.FormatFloat(r.PSS, 'g', -1, 64), nil
	case ColumnBioprocess:
		return r.Bioprocess, nil
	case ColumnQueryID:
		return r.QueryID, nil
	case ColumnArrayID:
		return r.ArrayID, nil
	case ColumnQueryGene:
		return r.QueryGene, nil
	case ColumnArrayGene:
		return r.ArrayGene, nil
	case ColumnQueryProfile:
		return r.QueryProfile.String(), nil
	case ColumnArrayProfile:
		return r.ArrayProfile.String(), nil
	case ColumnDMFType:
		return r.DMFType(), nil
	default:
		return "", core.NewValidationError("column", "unknown column "+strconv.Quote(string(col)))
	}
}
