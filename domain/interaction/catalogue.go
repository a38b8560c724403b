package interaction

import (
	"fmt"

	"prowler/domain/core"
	"prowler/domain/profile"
)

// CatalogueEntry is one entity with its reference profile.
type CatalogueEntry struct {
	ID      string          `json:"id"`
	Profile profile.Profile `json:"profile"`
}

// Catalogue maps entity identifiers to profiles, keeping insertion order.
type Catalogue struct {
	entries       []CatalogueEntry
	index         map[string]int
	profileLength int
}

// NewCatalogue validates unique IDs and a shared profile length.
func NewCatalogue(entries []CatalogueEntry) (Catalogue, error) {
	if len(entries) == 0 {
		return Catalogue{}, core.NewValidationError("catalogue", "no entries")
	}
	length := entries[0].Profile.Len()
	index := make(map[string]int, len(entries))
	copied := make([]CatalogueEntry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return Catalogue{}, core.NewValidationError(fmt.Sprintf("catalogue entry %d", i), "empty ID")
		}
		if _, dup := index[e.ID]; dup {
			return Catalogue{}, core.NewValidationError("catalogue entry "+e.ID, "duplicate ID")
		}
		if e.Profile.Len() == 0 || e.Profile.Len() != length {
			return Catalogue{}, core.NewValidationError("catalogue entry "+e.ID,
				fmt.Sprintf("profile length %d, want %d", e.Profile.Len(), length))
		}
		index[e.ID] = i
		copied[i] = e
	}
	return Catalogue{entries: copied, index: index, profileLength: length}, nil
}

// Len returns the number of entities.
func (c Catalogue) Len() int { return len(c.entries) }

// ProfileLength returns the shared profile length.
func (c Catalogue) ProfileLength() int { return c.profileLength }

// Lookup returns the profile of id.
func (c Catalogue) Lookup(id string) (profile.Profile, bool) {
	i, ok := c.index[id]
	if !ok {
		return "", false
	}
	return c.entries[i].Profile, true
}

// Entries returns a copy of the entries in order.
func (c Catalogue) Entries() []CatalogueEntry {
	out := make([]CatalogueEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Profiles returns the profiles in entry order.
func (c Catalogue) Profiles() []profile.Profile {
	out := make([]profile.Profile, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Profile
	}
	return out
}

// Reassign keeps the entity order and hands entity i the profile profiles[i].
func (c Catalogue) Reassign(profiles []profile.Profile) (Catalogue, error) {
	if len(profiles) != len(c.entries) {
		return Catalogue{}, core.NewValidationError("catalogue reassignment",
			fmt.Sprintf("%d profiles for %d entities", len(profiles), len(c.entries)))
	}
	entries := make([]CatalogueEntry, len(c.entries))
	for i, e := range c.entries {
		entries[i] = CatalogueEntry{ID: e.ID, Profile: profiles[i]}
	}
	return NewCatalogue(entries)
}

// Covers checks that every entity of t is catalogued with a profile of the
// table's length.
func (c Catalogue) Covers(t Table) error {
	if t.Len() > 0 && c.profileLength != t.ProfileLength() {
		return core.NewValidationError("catalogue",
			fmt.Sprintf("profile length %d, table uses %d", c.profileLength, t.ProfileLength()))
	}
	for i, r := range t.records {
		for _, id := range [2]string{r.QueryID, r.ArrayID} {
			if _, ok := c.index[id]; !ok {
				return fmt.Errorf("%w: row %d: %w", core.ErrValidation, i, core.NewNotFoundError("catalogue entity", id))
			}
		}
	}
	return nil
}
