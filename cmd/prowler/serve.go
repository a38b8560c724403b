package main

import (
	"github.com/spf13/cobra"

	"prowler/adapters/api"
	"prowler/adapters/rng"
	"prowler/app"
	"prowler/internal/permutation"
)

func newServeCmd(e *env) *cobra.Command {
	port := e.cfg.Server.Port

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the enrichment and permutation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			engine := permutation.NewEngine(rng.New(), permutation.WithLogger(e.logger))
			server := api.NewServer(
				app.NewSignificanceService(engine, repo, e.logger),
				app.NewEnrichmentService(repo, e.logger),
				e.defaultOptions(),
				e.logger,
			)
			return server.ListenAndServe(ctx, ":"+port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", port, "port to listen on")
	return cmd
}
