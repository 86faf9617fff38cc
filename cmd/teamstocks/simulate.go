package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/efreitasn/teamstocks/internal/config"
	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/engine"
	"github.com/efreitasn/teamstocks/internal/store"
)

func newSimulateCmd() *cobra.Command {
	var ticks int
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the price simulation offline and print the final prices",
		Long: `Simulate runs the tick loop against a throwaway in-memory store, without
the HTTP API, and prints each instrument's final price next to its seed.
Set SIMULATOR_SEED for a reproducible run.

Example:
  SIMULATOR_SEED=7 teamstocks simulate --ticks 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 0 {
				return fmt.Errorf("--ticks must be >= 0, got %d", ticks)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return simulate(cmd.Context(), cfg, ticks, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 100, "number of ticks to run after seeding")
	return cmd
}

func simulate(ctx context.Context, cfg *config.Config, ticks int, out io.Writer) error {
	logger := newLogger(cfg.LogLevel)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	st := store.NewMemory()
	defer st.Close()

	simulator := engine.NewPriceSimulator(simulatorParams(cfg), engine.NewRand(cfg.SimulatorSeed))
	loop := engine.NewTickLoop(cfg.TickInterval, cat, st, simulator, nil, logger.With(slog.String("mode", "simulate")))
	if err := loop.Seed(ctx); err != nil {
		return fmt.Errorf("seed quotes: %w", err)
	}
	for i := 0; i < ticks; i++ {
		if _, err := loop.Tick(ctx); err != nil {
			return fmt.Errorf("tick %d: %w", i+1, err)
		}
	}

	latest, err := st.LatestQuotes(ctx)
	if err != nil {
		return err
	}
	return printPrices(out, cat, latest, loop.LastTick())
}

func printPrices(out io.Writer, cat *domain.Catalog, latest map[string]domain.Quote, tick int64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "INSTRUMENT\tTYPE\tSEED\tPRICE\n")
	for _, inst := range cat.Simple() {
		fmt.Fprintf(w, "%s\tTeam\t%s\t%s\n", inst.Name, domain.FormatMoney(inst.SeedPrice), priceOf(latest, inst.Name))
	}
	for _, inst := range cat.Composites() {
		fmt.Fprintf(w, "%s\tETF\t-\t%s\n", inst.Name, priceOf(latest, inst.Name))
	}
	fmt.Fprintf(w, "\nfinal tick: %d\n", tick)
	return w.Flush()
}

func priceOf(latest map[string]domain.Quote, name string) string {
	q, ok := latest[name]
	if !ok {
		return "n/a"
	}
	return domain.FormatMoney(q.Price)
}
