package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/efreitasn/teamstocks/internal/catalog"
	"github.com/efreitasn/teamstocks/internal/config"
	"github.com/efreitasn/teamstocks/internal/database"
	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/engine"
	"github.com/efreitasn/teamstocks/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "teamstocks",
		Short: "Simulated stock market where NFL teams are the listed companies",
		Long: `Teamstocks runs a simulated market: every team is an instrument whose
price follows a mean-reverting random walk, and every division is an ETF
priced as the average of its members. Users open accounts, buy and sell
shares at the latest price, and track their portfolio over time.

Configuration is read from the environment (and a .env file when present).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newHealthcheckCmd(), newSimulateCmd())
	return root
}

// newLogger builds the JSON logger for the configured level.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// openStore returns the store selected by STORE_DRIVER.
func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := database.New(database.Config{Path: cfg.DatabasePath})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		logger.Info("using sqlite store", slog.String("path", db.Path()))
		return db, nil
	default:
		logger.Info("using in-memory store")
		return store.NewMemory(), nil
	}
}

func simulatorParams(cfg *config.Config) engine.SimulatorParams {
	return engine.SimulatorParams{
		ReversionStrength: cfg.ReversionStrength,
		VolatilityBase:    cfg.VolatilityBase,
		VolatilityFloor:   cfg.VolatilityFloor,
		FloorMult:         cfg.PriceFloorMult,
		CeilMult:          cfg.PriceCeilMult,
	}
}

func loadCatalog(cfg *config.Config) (*domain.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
