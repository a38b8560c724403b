// Package permutation builds null models for profile-similarity counts by
// shuffling an interaction table under one of four strategies, rescoring and
// classifying every shuffled row, and reducing the per-trial counts.
package permutation

import (
	"strconv"
	"strings"
	"time"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
)

// Strategy selects how a trial shuffles the table.
type Strategy int

const (
	// StrategyIdentityShuffle shuffles profiles among the distinct entities of
	// the table and rejoins them by ID in both roles. The topology is kept.
	StrategyIdentityShuffle Strategy = iota + 1
	// StrategyNamePermutation shuffles the query units and the array units
	// independently and re-pairs them by row position.
	StrategyNamePermutation
	// StrategyColumnShuffle shuffles the query profile column and the array
	// profile column independently.
	StrategyColumnShuffle
	// StrategyCatalogueShuffle shuffles catalogue IDs against catalogue
	// profiles and re-derives every row's profiles by lookup.
	StrategyCatalogueShuffle
)

var strategyNames = map[Strategy]string{
	StrategyIdentityShuffle:  "identity",
	StrategyNamePermutation:  "names",
	StrategyColumnShuffle:    "columns",
	StrategyCatalogueShuffle: "catalogue",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "strategy(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the four strategies.
func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// NeedsCatalogue reports whether the strategy reads profiles from an external
// catalogue rather than from the table.
func (s Strategy) NeedsCatalogue() bool {
	return s == StrategyCatalogueShuffle
}

// MarshalText encodes the strategy by name.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, core.NewValidationError("strategy", s.String()+" is not a strategy")
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts anything ParseStrategy does.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Strategies lists every strategy in numeric order.
func Strategies() []Strategy {
	return []Strategy{StrategyIdentityShuffle, StrategyNamePermutation, StrategyColumnShuffle, StrategyCatalogueShuffle}
}

// ParseStrategy accepts a strategy name or its number.
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if n, err := strconv.Atoi(key); err == nil {
		if s := Strategy(n); s.Valid() {
			return s, nil
		}
	}
	for s, n := range strategyNames {
		if n == key {
			return s, nil
		}
	}
	return 0, core.NewValidationError("strategy", "unknown strategy "+strconv.Quote(name))
}

// Options configures one run.
type Options struct {
	Trials    int     `json:"trials"`
	Workers   int     `json:"workers"`
	Threshold float64 `json:"threshold"`
	Seed      int64   `json:"seed"`
	// Timeout bounds the whole run; zero disables it.
	Timeout time.Duration `json:"timeout"`
	// KeepTables retains every shuffled, scored table on its TrialResult.
	KeepTables bool `json:"keep_tables"`
}

// Validate checks the options eagerly. Nothing is clamped.
func (o Options) Validate() error {
	if o.Trials <= 0 {
		return core.NewPreconditionError("trial count must be positive, got " + strconv.Itoa(o.Trials))
	}
	if o.Workers <= 0 {
		return core.NewPreconditionError("worker count must be positive, got " + strconv.Itoa(o.Workers))
	}
	if o.Timeout < 0 {
		return core.NewPreconditionError("timeout must not be negative")
	}
	return profile.ValidateThreshold(o.Threshold)
}

// TrialResult is the classification of one shuffled table.
type TrialResult struct {
	Index int `json:"index"`
	profile.Tally
	Table *interaction.Table `json:"-"`
}

// Run is a finished batch of trials.
type Run struct {
	ID       core.RunID `json:"id"`
	Strategy Strategy   `json:"strategy"`
	Options  Options    `json:"options"`
	Rows     int        `json:"rows"`
	// Observed classifies the unshuffled table under the same threshold.
	Observed     profile.Tally `json:"observed"`
	Trials       []TrialResult `json:"trials"`
	Summary      Summary       `json:"summary"`
	Significance Significance  `json:"significance"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}
