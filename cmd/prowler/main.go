package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"prowler/adapters/store"
	"prowler/internal"
	"prowler/internal/config"
	"prowler/internal/permutation"
)

// env is what every command shares.
type env struct {
	cfg    *config.Config
	logger *internal.Logger
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level, ok := internal.ParseLogLevel(cfg.LogLevel)
	if !ok {
		level = internal.LogLevelInfo
	}
	e := &env{cfg: cfg, logger: internal.NewLogger(level)}

	rootCmd := &cobra.Command{
		Use:           "prowler",
		Short:         "Permutation testing and enrichment scoring for genetic-interaction screens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newEnrichCmd(e),
		newPermuteCmd(e),
		newRunsCmd(e),
		newServeCmd(e),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// openStore connects to the configured run store.
func (e *env) openStore(ctx context.Context) (*store.RunRepository, error) {
	return store.Open(ctx, e.cfg.Database.Driver, e.cfg.Database.URL)
}

// defaultOptions turns the configured defaults into run options.
func (e *env) defaultOptions() permutation.Options {
	p := e.cfg.Permutation
	return permutation.Options{
		Trials:     p.Trials,
		Workers:    p.Workers,
		Threshold:  p.Threshold,
		Seed:       p.Seed,
		Timeout:    p.Timeout,
		KeepTables: p.KeepTables,
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
