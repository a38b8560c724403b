package permutation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/pool"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
	"prowler/internal"
	"prowler/ports"
)

// Engine runs permutation batches on a bounded worker pool.
type Engine struct {
	rng    ports.RNGPort
	score  profile.ScoreFunc
	logger *internal.Logger
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithScorer replaces the matching-position scorer.
func WithScorer(score profile.ScoreFunc) EngineOption {
	return func(e *Engine) { e.score = score }
}

// WithLogger sets the progress logger.
func WithLogger(logger *internal.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine drawing per-trial generators from rng.
func NewEngine(rng ports.RNGPort, opts ...EngineOption) *Engine {
	e := &Engine{rng: rng, score: profile.ScorePair, logger: internal.DefaultLogger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes opts.Trials trials of strategy over table. catalogue is only
// read by StrategyCatalogueShuffle. The first failing trial aborts the batch
// with a *core.TrialError; an expired opts.Timeout fails it with
// core.ErrTimeout.
func (e *Engine) Run(ctx context.Context, strategy Strategy, table interaction.Table, catalogue interaction.Catalogue, opts Options) (*Run, error) {
	if !strategy.Valid() {
		return nil, core.NewValidationError("strategy", strategy.String()+" is not a strategy")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, core.NewPreconditionError("cannot permute an empty table")
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	prep, err := prepare(strategy, table, catalogue)
	if err != nil {
		return nil, err
	}

	observedTable, err := interaction.ScoreTableContext(runCtx, table, e.score)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", core.ErrTimeout, opts.Timeout)
		}
		return nil, fmt.Errorf("scoring observed table: %w", err)
	}
	observed, err := observedTable.Tally(opts.Threshold)
	if err != nil {
		return nil, fmt.Errorf("classifying observed table: %w", err)
	}

	run := &Run{
		ID:        core.NewRunID(),
		Strategy:  strategy,
		Options:   opts,
		Rows:      table.Len(),
		Observed:  observed,
		StartedAt: core.Now(),
	}
	e.logger.Info("permutation run %s: strategy %s, %s trials over %s rows, %d workers",
		run.ID, strategy, humanize.Comma(int64(opts.Trials)), humanize.Comma(int64(table.Len())), opts.Workers)

	results, err := e.runTrials(runCtx, prep, opts)
	if err != nil {
		if opts.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", core.ErrTimeout, opts.Timeout)
		}
		e.logger.Error("permutation run %s failed: %v", run.ID, err)
		return nil, err
	}
	run.Trials = results

	if run.Summary, err = Aggregate(results); err != nil {
		return nil, err
	}
	if run.Significance, err = Compare(observed, results); err != nil {
		return nil, err
	}
	run.FinishedAt = core.Now()
	e.logger.Info("permutation run %s finished in %s: observed similar %d, null mean %.2f",
		run.ID, run.FinishedAt.Sub(run.StartedAt), observed.Similar, run.Summary.Similar.Mean)
	return run, nil
}

func (e *Engine) runTrials(ctx context.Context, prep *prepared, opts Options) ([]TrialResult, error) {
	p := pool.NewWithResults[TrialResult]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(opts.Workers)

	step := opts.Trials / 10
	if step == 0 {
		step = 1
	}
	var done atomic.Int64

	for i := 0; i < opts.Trials; i++ {
		index := i
		p.Go(func(ctx context.Context) (TrialResult, error) {
			res, err := e.trial(ctx, prep, index, opts)
			if err != nil {
				return res, err
			}
			if n := done.Add(1); n%int64(step) == 0 || n == int64(opts.Trials) {
				e.logger.Debug("permutation %s: %s/%s trials", prep.strategy,
					humanize.Comma(n), humanize.Comma(int64(opts.Trials)))
			}
			return res, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	// A trial that was already running when the deadline passed still
	// returns normally.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, nil
}

// trial is a pure function of the prepared input, the index and the seed.
func (e *Engine) trial(ctx context.Context, prep *prepared, index int, opts Options) (TrialResult, error) {
	if err := ctx.Err(); err != nil {
		return TrialResult{}, err
	}
	fail := func(err error) (TrialResult, error) {
		return TrialResult{}, &core.TrialError{Index: index, Strategy: prep.strategy.String(), Err: err}
	}

	r, err := e.rng.Stream(ctx, prep.strategy.String(), index, opts.Seed)
	if err != nil {
		if ctx.Err() != nil {
			return TrialResult{}, ctx.Err()
		}
		return fail(err)
	}

	shuffled, err := shufflers[prep.strategy](prep, r)
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return TrialResult{}, err
	}
	scored, err := interaction.ScoreTableContext(ctx, shuffled, e.score)
	if err != nil {
		if ctx.Err() != nil {
			return TrialResult{}, ctx.Err()
		}
		return fail(err)
	}
	tally, err := scored.Tally(opts.Threshold)
	if err != nil {
		return fail(err)
	}

	res := TrialResult{Index: index, Tally: tally}
	if opts.KeepTables {
		res.Table = &scored
	}
	return res, nil
}

// RunIdentityShuffle runs StrategyIdentityShuffle.
func (e *Engine) RunIdentityShuffle(ctx context.Context, table interaction.Table, opts Options) (*Run, error) {
	return e.Run(ctx, StrategyIdentityShuffle, table, interaction.Catalogue{}, opts)
}

// RunNamePermutation runs StrategyNamePermutation.
func (e *Engine) RunNamePermutation(ctx context.Context, table interaction.Table, opts Options) (*Run, error) {
	return e.Run(ctx, StrategyNamePermutation, table, interaction.Catalogue{}, opts)
}

// RunColumnShuffle runs StrategyColumnShuffle.
func (e *Engine) RunColumnShuffle(ctx context.Context, table interaction.Table, opts Options) (*Run, error) {
	return e.Run(ctx, StrategyColumnShuffle, table, interaction.Catalogue{}, opts)
}

// RunCatalogueShuffle runs StrategyCatalogueShuffle against catalogue.
func (e *Engine) RunCatalogueShuffle(ctx context.Context, table interaction.Table, catalogue interaction.Catalogue, opts Options) (*Run, error) {
	return e.Run(ctx, StrategyCatalogueShuffle, table, catalogue, opts)
}
