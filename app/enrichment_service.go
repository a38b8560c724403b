package app

import (
	"context"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
	"prowler/domain/stats"
	"prowler/internal"
	"prowler/internal/errors"
	"prowler/ports"
)

// EnrichmentService selects a subset of a screen and scores its categories
// against the whole screen.
type EnrichmentService struct {
	repo   ports.RunRepository
	score  profile.ScoreFunc
	logger *internal.Logger
}

// NewEnrichmentService creates the service. repo may be nil.
func NewEnrichmentService(repo ports.RunRepository, logger *internal.Logger) *EnrichmentService {
	return &EnrichmentService{repo: repo, score: profile.ScorePair, logger: logger}
}

// EnrichmentRequest defines one enrichment analysis.
type EnrichmentRequest struct {
	Table    interaction.Table    `json:"-"`
	Selector interaction.Selector `json:"selector"`
	Column   interaction.Column   `json:"column"`
	Label    string               `json:"label,omitempty"`
}

// EnrichmentResult is the outcome of an analysis.
type EnrichmentResult struct {
	ID         core.ID               `json:"id,omitempty"`
	Filters    []string              `json:"filters"`
	Names      []string              `json:"names"`
	Enrichment stats.EnrichmentTable `json:"enrichment"`
	Selected   stats.Properties      `json:"selected"`
	Total      stats.Properties      `json:"total"`
	// ExpectedCoOccurrence is set when the selector carried a threshold.
	ExpectedCoOccurrence *float64 `json:"expected_co_occurrence,omitempty"`
}

// Analyze scores an unscored table, applies the selector and computes the
// enrichment of the selection in req.Column.
func (s *EnrichmentService) Analyze(ctx context.Context, req EnrichmentRequest) (*EnrichmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Column == "" {
		req.Column = interaction.ColumnPSS
	}

	total := req.Table
	if total.Len() > 0 && !total.Scored() {
		scored, err := interaction.ScoreTable(total, s.score)
		if err != nil {
			return nil, errors.Wrap(err, "scoring table")
		}
		total = scored
	}

	sel, err := req.Selector.Apply(total)
	if err != nil {
		return nil, errors.Wrap(err, "applying selector")
	}
	s.logger.Debug("selection %v kept %d of %d rows", sel.Names, sel.Table.Len(), total.Len())

	enrichment, err := stats.ComputeEnrichment(sel.Table, total, req.Column)
	if err != nil {
		return nil, errors.Wrapf(err, "enrichment by %s", req.Column)
	}

	res := &EnrichmentResult{
		Filters:    sel.Filters,
		Names:      sel.Names,
		Enrichment: enrichment,
	}
	if res.Selected, err = stats.Describe(sel.Table, req.Selector.Threshold); err != nil {
		return nil, errors.Wrap(err, "describing selection")
	}
	if res.Total, err = stats.Describe(total, req.Selector.Threshold); err != nil {
		return nil, errors.Wrap(err, "describing table")
	}
	if req.Selector.Threshold != nil {
		expected, err := stats.ExpectedCoOccurrence(res.Selected)
		if err == nil {
			res.ExpectedCoOccurrence = &expected
		}
	}

	if s.repo != nil {
		rec := &ports.EnrichmentRecord{
			ID:        core.NewID(),
			Label:     req.Label,
			Table:     enrichment,
			CreatedAt: core.Now(),
		}
		if err := s.repo.SaveEnrichment(ctx, rec); err != nil {
			return nil, errors.Wrap(err, "saving enrichment")
		}
		res.ID = rec.ID
		s.logger.Info("stored enrichment %s (%s, %d bins)", rec.ID, req.Column, len(enrichment.Bins))
	}
	return res, nil
}

// Get loads a stored enrichment table.
func (s *EnrichmentService) Get(ctx context.Context, id string) (*ports.EnrichmentRecord, error) {
	if s.repo == nil {
		return nil, errors.InternalError("no run store configured")
	}
	rec, err := s.repo.GetEnrichment(ctx, core.ID(id))
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	return rec, nil
}
