package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/efreitasn/teamstocks/internal/config"
	"github.com/efreitasn/teamstocks/internal/engine"
	"github.com/efreitasn/teamstocks/internal/handler"
	"github.com/efreitasn/teamstocks/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the price tick loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// Services.
	accountSvc := service.NewAccountService(st)
	tradeSvc := service.NewTradeService(st, cat, service.RetryPolicy{
		MaxRetries: cfg.TradeMaxRetries,
		Backoff:    cfg.TradeRetryBackoff,
	}, logger)
	portfolioSvc := service.NewPortfolioService(st)
	marketSvc := service.NewMarketService(st, cat)
	snapshotSvc := service.NewSnapshotService(st, logger)

	// Engine.
	simulator := engine.NewPriceSimulator(simulatorParams(cfg), engine.NewRand(cfg.SimulatorSeed))
	ticks := engine.NewTickLoop(cfg.TickInterval, cat, st, simulator, snapshotSvc, logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ticks.Seed(ctx); err != nil {
		return fmt.Errorf("seed quotes: %w", err)
	}
	ticks.Start(ctx)

	router := handler.NewRouter(accountSvc, tradeSvc, portfolioSvc, marketSvc, logger, cfg.CORSOrigins)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.Duration("tick_interval", cfg.TickInterval),
			slog.Int64("tick", ticks.LastTick()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Graceful shutdown: stop accepting requests and let in-flight ones
	// finish, then stop the tick loop and wait out its current tick. The
	// store is closed only after both.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	stop()
	ticks.Wait()

	logger.Info("server stopped", slog.Int64("tick", ticks.LastTick()))
	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}
