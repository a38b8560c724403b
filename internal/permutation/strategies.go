package permutation

import (
	"fmt"
	"math/rand"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
)

// prepared is the read-only input every trial of a run shares.
type prepared struct {
	strategy  Strategy
	records   []interaction.Record
	entities  interaction.Catalogue
	catalogue interaction.Catalogue
}

type shuffleFunc func(p *prepared, r *rand.Rand) (interaction.Table, error)

var shufflers = map[Strategy]shuffleFunc{
	StrategyIdentityShuffle:  shuffleIdentities,
	StrategyNamePermutation:  shuffleNames,
	StrategyColumnShuffle:    shuffleColumns,
	StrategyCatalogueShuffle: shuffleCatalogueProfiles,
}

func prepare(strategy Strategy, table interaction.Table, catalogue interaction.Catalogue) (*prepared, error) {
	p := &prepared{strategy: strategy, records: table.Records(), catalogue: catalogue}
	switch strategy {
	case StrategyIdentityShuffle:
		entities, err := table.EntityProfiles()
		if err != nil {
			return nil, fmt.Errorf("collecting entity profiles: %w", err)
		}
		p.entities = entities
	case StrategyCatalogueShuffle:
		if catalogue.Len() == 0 {
			return nil, core.NewPreconditionError("the catalogue strategy needs a non-empty catalogue")
		}
		if err := catalogue.Covers(table); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// fisherYates shuffles xs in place.
func fisherYates[T any](r *rand.Rand, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

func shuffleIdentities(p *prepared, r *rand.Rand) (interaction.Table, error) {
	shuffled, err := shuffleCatalogue(p.entities, r)
	if err != nil {
		return interaction.Table{}, err
	}
	return relabel(p.records, shuffled)
}

// shuffleNames moves whole query units (ID, gene, profile) between rows and,
// independently, whole array units. Fitness and process columns stay put.
func shuffleNames(p *prepared, r *rand.Rand) (interaction.Table, error) {
	type unit struct {
		id      string
		gene    string
		profile profile.Profile
	}
	queries := make([]unit, len(p.records))
	arrays := make([]unit, len(p.records))
	for i, rec := range p.records {
		queries[i] = unit{rec.QueryID, rec.QueryGene, rec.QueryProfile}
		arrays[i] = unit{rec.ArrayID, rec.ArrayGene, rec.ArrayProfile}
	}
	fisherYates(r, queries)
	fisherYates(r, arrays)

	out := make([]interaction.Record, len(p.records))
	for i, rec := range p.records {
		rec.QueryID, rec.QueryGene, rec.QueryProfile = queries[i].id, queries[i].gene, queries[i].profile
		rec.ArrayID, rec.ArrayGene, rec.ArrayProfile = arrays[i].id, arrays[i].gene, arrays[i].profile
		rec.Scored = false
		out[i] = rec
	}
	return interaction.NewTable(out)
}

func shuffleColumns(p *prepared, r *rand.Rand) (interaction.Table, error) {
	queries := make([]profile.Profile, len(p.records))
	arrays := make([]profile.Profile, len(p.records))
	for i, rec := range p.records {
		queries[i] = rec.QueryProfile
		arrays[i] = rec.ArrayProfile
	}
	fisherYates(r, queries)
	fisherYates(r, arrays)

	out := make([]interaction.Record, len(p.records))
	for i, rec := range p.records {
		rec.QueryProfile, rec.ArrayProfile = queries[i], arrays[i]
		rec.Scored = false
		out[i] = rec
	}
	return interaction.NewTable(out)
}

func shuffleCatalogueProfiles(p *prepared, r *rand.Rand) (interaction.Table, error) {
	shuffled, err := shuffleCatalogue(p.catalogue, r)
	if err != nil {
		return interaction.Table{}, err
	}
	return relabel(p.records, shuffled)
}

// shuffleCatalogue keeps the ID order and hands out the profiles in a random
// order, so the profile multiset is unchanged.
func shuffleCatalogue(c interaction.Catalogue, r *rand.Rand) (interaction.Catalogue, error) {
	profiles := c.Profiles()
	fisherYates(r, profiles)
	return c.Reassign(profiles)
}

// relabel looks up both profiles of every row in c.
func relabel(records []interaction.Record, c interaction.Catalogue) (interaction.Table, error) {
	out := make([]interaction.Record, len(records))
	for i, rec := range records {
		q, ok := c.Lookup(rec.QueryID)
		if !ok {
			return interaction.Table{}, core.NewNotFoundError("catalogue entity", rec.QueryID)
		}
		a, ok := c.Lookup(rec.ArrayID)
		if !ok {
			return interaction.Table{}, core.NewNotFoundError("catalogue entity", rec.ArrayID)
		}
		rec.QueryProfile, rec.ArrayProfile = q, a
		rec.Scored = false
		out[i] = rec
	}
	return interaction.NewTable(out)
}
