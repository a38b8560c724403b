package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
	"prowler/internal"
	"prowler/internal/errors"
	"prowler/internal/permutation"
	"prowler/ports"
)

// SignificanceService runs permutation batches and records them.
type SignificanceService struct {
	engine *permutation.Engine
	repo   ports.RunRepository
	logger *internal.Logger
}

// NewSignificanceService creates the service. repo may be nil, in which case
// runs are not persisted.
func NewSignificanceService(engine *permutation.Engine, repo ports.RunRepository, logger *internal.Logger) *SignificanceService {
	return &SignificanceService{engine: engine, repo: repo, logger: logger}
}

// SignificanceRequest names the strategies to run over one table.
type SignificanceRequest struct {
	Table      interaction.Table
	Catalogue  interaction.Catalogue
	Strategies []permutation.Strategy
	Options    permutation.Options
}

// Run executes every requested strategy concurrently. The runs come back in
// request order; the first failure cancels the others.
func (s *SignificanceService) Run(ctx context.Context, req SignificanceRequest) ([]*permutation.Run, error) {
	if len(req.Strategies) == 0 {
		return nil, errors.InvalidInput("at least one strategy is required")
	}

	runs := make([]*permutation.Run, len(req.Strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, strategy := range req.Strategies {
		i, strategy := i, strategy
		g.Go(func() error {
			run, err := s.engine.Run(gctx, strategy, req.Table, req.Catalogue, req.Options)
			if err != nil {
				return errors.Wrapf(err, "strategy %s", strategy)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.repo != nil {
		for _, run := range runs {
			rec, err := RunRecord(run)
			if err != nil {
				return nil, err
			}
			if err := s.repo.SaveRun(ctx, rec); err != nil {
				return nil, errors.Wrapf(err, "saving run %s", run.ID)
			}
			s.logger.Info("stored permutation run %s (%s)", run.ID, run.Strategy)
		}
	}
	return runs, nil
}

// RunRecord converts a finished run into its stored form.
func RunRecord(run *permutation.Run) (*ports.RunRecord, error) {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}
	significance, err := json.Marshal(run.Significance)
	if err != nil {
		return nil, fmt.Errorf("encoding significance: %w", err)
	}
	rec := &ports.RunRecord{
		ID:           run.ID,
		Strategy:     run.Strategy.String(),
		Trials:       run.Options.Trials,
		Workers:      run.Options.Workers,
		Threshold:    run.Options.Threshold,
		Seed:         run.Options.Seed,
		Rows:         run.Rows,
		Observed:     run.Observed,
		Summary:      summary,
		Significance: significance,
		Counts:       make([]ports.TrialCounts, len(run.Trials)),
		CreatedAt:    run.FinishedAt,
	}
	for i, t := range run.Trials {
		rec.Counts[i] = ports.TrialCounts{Index: t.Index, Tally: t.Tally}
	}
	return rec, nil
}

// StoredRun is a run as read back from the repository.
type StoredRun struct {
	ID           core.RunID               `json:"id"`
	Strategy     string                   `json:"strategy"`
	Trials       int                      `json:"trials"`
	Workers      int                      `json:"workers"`
	Threshold    float64                  `json:"threshold"`
	Seed         int64                    `json:"seed"`
	Rows         int                      `json:"rows"`
	Observed     profile.Tally            `json:"observed"`
	Summary      permutation.Summary      `json:"summary"`
	Significance permutation.Significance `json:"significance"`
	Counts       []ports.TrialCounts      `json:"counts,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// Get loads a stored run and decodes its summary documents.
func (s *SignificanceService) Get(ctx context.Context, id string) (*StoredRun, error) {
	if s.repo == nil {
		return nil, errors.InternalError("no run store configured")
	}
	runID, err := core.ParseRunID(id)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	rec, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	return storedRun(rec)
}

// List returns stored runs, newest first, without their per-trial counts.
func (s *SignificanceService) List(ctx context.Context, filters ports.RunFilters) ([]*StoredRun, error) {
	if s.repo == nil {
		return nil, errors.InternalError("no run store configured")
	}
	recs, err := s.repo.ListRuns(ctx, filters)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	out := make([]*StoredRun, 0, len(recs))
	for _, rec := range recs {
		run, err := storedRun(rec)
		if err != nil {
			return nil, err
		}
		run.Counts = nil
		out = append(out, run)
	}
	return out, nil
}

// Delete removes a stored run and its trials.
func (s *SignificanceService) Delete(ctx context.Context, id string) error {
	if s.repo == nil {
		return errors.InternalError("no run store configured")
	}
	runID, err := core.ParseRunID(id)
	if err != nil {
		return errors.InvalidInput(err.Error())
	}
	if err := s.repo.DeleteRun(ctx, runID); err != nil {
		return errors.FromDomain(err)
	}
	return nil
}

func storedRun(rec *ports.RunRecord) (*StoredRun, error) {
	out := &StoredRun{
		ID:        rec.ID,
		Strategy:  rec.Strategy,
		Trials:    rec.Trials,
		Workers:   rec.Workers,
		Threshold: rec.Threshold,
		Seed:      rec.Seed,
		Rows:      rec.Rows,
		Observed:  rec.Observed,
		Counts:    rec.Counts,
		CreatedAt: rec.CreatedAt,
	}
	if err := json.Unmarshal(rec.Summary, &out.Summary); err != nil {
		return nil, errors.Wrapf(err, "decoding summary of run %s", rec.ID)
	}
	if err := json.Unmarshal(rec.Significance, &out.Significance); err != nil {
		return nil, errors.Wrapf(err, "decoding significance of run %s", rec.ID)
	}
	return out, nil
}
