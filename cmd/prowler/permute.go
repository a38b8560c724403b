package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"prowler/adapters/excel"
	"prowler/adapters/rng"
	"prowler/app"
	"prowler/domain/interaction"
	"prowler/internal/permutation"
	"prowler/ports"
)

func newPermuteCmd(e *env) *cobra.Command {
	opts := e.defaultOptions()
	var (
		strategies []string
		catalogue  string
		out        string
		persist    bool
	)

	cmd := &cobra.Command{
		Use:   "permute [table]",
		Short: "Build a null distribution of similar/dissimilar/mirror counts",
		Long: `Shuffle an interaction table many times, rescore it and compare the observed
similar/dissimilar/mirror counts against the shuffled ones.

Strategies: identity, names, columns, catalogue (needs --catalogue).

Example: prowler permute screen.tsv --strategy names,columns --trials 1000 --threshold 14 --out null.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parsed := make([]permutation.Strategy, 0, len(strategies))
			for _, name := range strategies {
				s, err := permutation.ParseStrategy(name)
				if err != nil {
					return err
				}
				parsed = append(parsed, s)
			}

			reader := excel.NewTableReader(e.logger)
			table, err := reader.ReadInteractions(ctx, args[0])
			if err != nil {
				return err
			}
			var cat interaction.Catalogue
			if catalogue != "" {
				if cat, err = reader.ReadCatalogue(ctx, catalogue); err != nil {
					return err
				}
			}

			var repo ports.RunRepository
			if persist {
				r, err := e.openStore(ctx)
				if err != nil {
					return err
				}
				defer r.Close()
				repo = r
			}

			engine := permutation.NewEngine(rng.New(), permutation.WithLogger(e.logger))
			runs, err := app.NewSignificanceService(engine, repo, e.logger).Run(ctx, app.SignificanceRequest{
				Table:      table,
				Catalogue:  cat,
				Strategies: parsed,
				Options:    opts,
			})
			if err != nil {
				return err
			}

			if out != "" {
				writer := excel.NewReportWriter()
				for _, run := range runs {
					path := reportPath(out, run.Strategy, len(runs))
					if err := writer.WriteRun(path, run); err != nil {
						return err
					}
					e.logger.Info("wrote %s trials to %s", run.Strategy, path)
				}
			}
			return printJSON(runs)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&strategies, "strategy", "s", []string{permutation.StrategyNamePermutation.String()}, "strategies to run, comma separated")
	f.StringVar(&catalogue, "catalogue", "", "entity profile catalogue for the catalogue strategy")
	f.IntVarP(&opts.Trials, "trials", "n", opts.Trials, "permutations per strategy")
	f.IntVarP(&opts.Workers, "workers", "w", opts.Workers, "concurrent trials")
	f.Float64VarP(&opts.Threshold, "threshold", "t", opts.Threshold, "PSS at or above which a pair is similar")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "seed for the per-trial generators")
	f.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "abort the run after this long (0 disables)")
	f.BoolVar(&opts.KeepTables, "keep-tables", opts.KeepTables, "keep every shuffled table in memory")
	f.StringVarP(&out, "out", "o", "", "write the trial counts to an .xlsx, .csv or .tsv file")
	f.BoolVar(&persist, "store", false, "save the runs in the run store")

	return cmd
}

// reportPath suffixes out with the strategy name when several runs share it.
func reportPath(out string, strategy permutation.Strategy, runs int) string {
	if runs == 1 {
		return out
	}
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(out, ext), strategy, ext)
}
