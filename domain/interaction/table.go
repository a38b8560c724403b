package interaction

import (
	"context"
	"fmt"

	"prowler/domain/core"
	"prowler/domain/profile"
)

// Table is an ordered, immutable collection of records whose profiles all share
// one length: the number of reference species in the run.
type Table struct {
	records       []Record
	profileLength int
}

// NewTable validates records and takes a private copy of them. An empty table
// is valid and has profile length 0.
func NewTable(records []Record) (Table, error) {
	if len(records) == 0 {
		return Table{}, nil
	}
	length := records[0].QueryProfile.Len()
	if length == 0 {
		return Table{}, core.NewValidationError("row 0", "query profile is empty")
	}
	for i, r := range records {
		if r.QueryID == "" || r.ArrayID == "" {
			return Table{}, core.NewValidationError(fmt.Sprintf("row %d", i), "query and array IDs are required")
		}
		if r.QueryProfile.Len() != length || r.ArrayProfile.Len() != length {
			return Table{}, core.NewValidationError(fmt.Sprintf("row %d", i),
				fmt.Sprintf("profile lengths %d/%d, want %d", r.QueryProfile.Len(), r.ArrayProfile.Len(), length))
		}
	}
	copied := make([]Record, len(records))
	copy(copied, records)
	return Table{records: copied, profileLength: length}, nil
}

// MustTable is NewTable for fixtures.
func MustTable(records []Record) Table {
	t, err := NewTable(records)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.records) }

// ProfileLength returns the shared profile length, 0 for an empty table.
func (t Table) ProfileLength() int { return t.profileLength }

// Record returns row i by value.
func (t Table) Record(i int) Record { return t.records[i] }

// Records returns a copy of the rows.
func (t Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Filter returns a new table with the rows keep accepts.
func (t Table) Filter(keep func(Record) bool) Table {
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	length := t.profileLength
	if len(out) == 0 {
		length = 0
	}
	return Table{records: out, profileLength: length}
}

// Scored reports whether every row carries a similarity score.
func (t Table) Scored() bool {
	for _, r := range t.records {
		if !r.Scored {
			return false
		}
	}
	return true
}

// Pair is an ordered (query, array) identifier pair.
type Pair struct {
	QueryID string
	ArrayID string
}

// Pairs lists the interaction topology in row order.
func (t Table) Pairs() []Pair {
	out := make([]Pair, len(t.records))
	for i, r := range t.records {
		out[i] = Pair{QueryID: r.QueryID, ArrayID: r.ArrayID}
	}
	return out
}

// EntityProfiles collects every distinct entity from both roles with its
// profile, in first-seen order. An entity carrying two different profiles is a
// validation error.
func (t Table) EntityProfiles() (Catalogue, error) {
	seen := make(map[string]profile.Profile, len(t.records))
	entries := make([]CatalogueEntry, 0, len(t.records))
	add := func(id string, p profile.Profile) error {
		if prev, ok := seen[id]; ok {
			if prev != p {
				return core.NewValidationError("entity "+id,
					fmt.Sprintf("carries conflicting profiles %s and %s", prev, p))
			}
			return nil
		}
		seen[id] = p
		entries = append(entries, CatalogueEntry{ID: id, Profile: p})
		return nil
	}
	for _, r := range t.records {
		if err := add(r.QueryID, r.QueryProfile); err != nil {
			return Catalogue{}, err
		}
		if err := add(r.ArrayID, r.ArrayProfile); err != nil {
			return Catalogue{}, err
		}
	}
	return NewCatalogue(entries)
}

// ScoreTable rescores every row with score, returning a new table with the same
// row order and count.
func ScoreTable(t Table, score profile.ScoreFunc) (Table, error) {
	return ScoreTableContext(context.Background(), t, score)
}

// scoreCheckEvery is how many rows ScoreTableContext scores between
// context checks.
const scoreCheckEvery = 256

// ScoreTableContext is ScoreTable that stops with ctx.Err() once ctx is done.
func ScoreTableContext(ctx context.Context, t Table, score profile.ScoreFunc) (Table, error) {
	out := make([]Record, len(t.records))
	for i, r := range t.records {
		if i%scoreCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Table{}, err
			}
		}
		s, err := score(r.QueryProfile, r.ArrayProfile)
		if err != nil {
			return Table{}, fmt.Errorf("row %d (%s, %s): %w", i, r.QueryID, r.ArrayID, err)
		}
		r.PSS = s
		r.Scored = true
		out[i] = r
	}
	return Table{records: out, profileLength: t.profileLength}, nil
}

// Tally classifies every scored row against threshold.
func (t Table) Tally(threshold float64) (profile.Tally, error) {
	var tally profile.Tally
	if err := profile.ValidateThreshold(threshold); err != nil {
		return tally, err
	}
	for i, r := range t.records {
		if !r.Scored {
			return profile.Tally{}, core.NewValidationError(fmt.Sprintf("row %d", i), "record has not been scored")
		}
		class, err := profile.Classify(r.PSS, threshold)
		if err != nil {
			return profile.Tally{}, fmt.Errorf("row %d: %w", i, err)
		}
		tally.Add(class)
	}
	return tally, nil
}
