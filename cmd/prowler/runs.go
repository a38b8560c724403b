package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"prowler/adapters/rng"
	"prowler/app"
	"prowler/internal/permutation"
	"prowler/ports"
)

func newRunsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored permutation runs",
	}
	cmd.AddCommand(newRunsListCmd(e), newRunsShowCmd(e), newRunsDeleteCmd(e))
	return cmd
}

func (e *env) significanceService(cmd *cobra.Command) (*app.SignificanceService, func(), error) {
	repo, err := e.openStore(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	engine := permutation.NewEngine(rng.New(), permutation.WithLogger(e.logger))
	return app.NewSignificanceService(engine, repo, e.logger), func() { repo.Close() }, nil
}

func newRunsListCmd(e *env) *cobra.Command {
	var filters ports.RunFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := e.significanceService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := svc.List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTRATEGY\tTRIALS\tTHRESHOLD\tSIMILAR\tP\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%d\t%.4f\t%s\n", r.ID, r.Strategy, humanize.Comma(int64(r.Trials)),
					r.Threshold, r.Observed.Similar, r.Significance.Similar.PValue, humanize.Time(r.CreatedAt))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filters.Strategy, "strategy", "", "only runs of this strategy")
	cmd.Flags().IntVar(&filters.Limit, "limit", 20, "maximum number of runs")
	cmd.Flags().IntVar(&filters.Offset, "offset", 0, "runs to skip")
	return cmd
}

func newRunsShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := e.significanceService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(run)
		},
	}
}

func newRunsDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [run-id]",
		Short: "Delete a stored run and its trials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := e.significanceService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return svc.Delete(cmd.Context(), args[0])
		},
	}
}
