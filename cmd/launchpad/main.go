// ==========================================
// File: cmd/launchpad/main.go
// ==========================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/biswap-org/curve-launchpad/internal/api"
	"github.com/biswap-org/curve-launchpad/internal/config"
	"github.com/biswap-org/curve-launchpad/internal/events"
	"github.com/biswap-org/curve-launchpad/internal/launchpad"
	"github.com/biswap-org/curve-launchpad/internal/logger"
	"github.com/biswap-org/curve-launchpad/internal/metrics"
	"github.com/biswap-org/curve-launchpad/internal/storage"
	"github.com/biswap-org/curve-launchpad/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "launchpad: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting curve launchpad",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(log.Logger, cfg.EventBufferSize)

	var store storage.Storage
	opts := []launchpad.Option{}
	if cfg.PostgresURL != "" {
		store, err = postgres.NewStorage(ctx, cfg.PostgresURL, log.WithComponent("storage"))
		if err != nil {
			return fmt.Errorf("connect storage: %w", err)
		}
		defer func() { _ = store.Close() }()
		if err := store.RunMigrations(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		opts = append(opts, launchpad.WithStorage(store))
	} else {
		log.Warn("No postgres_url configured; receipts and snapshots are not persisted")
	}
	if cfg.MetricsEnabled {
		opts = append(opts, launchpad.WithMetrics(metrics.NewCollector(nil)))
	}

	service := launchpad.NewService(log.Logger, bus, launchpad.NewLedger(), opts...)
	subscribeLifecycleLogs(bus, log.WithComponent("events"))

	server := api.NewServer(log.Logger, service, api.Options{
		ListenAddr:     cfg.ListenAddr,
		MetricsEnabled: cfg.MetricsEnabled,
		Store:          store,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()

		shutdownTimeout := time.Duration(cfg.ShutdownTimeout) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("Shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP shutdown failed", zap.Error(err))
		}
		return bus.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// subscribeLifecycleLogs mirrors curve lifecycle events into the log so
// operators can follow completions and withdrawals without the database.
func subscribeLifecycleLogs(bus *events.Bus, log *zap.Logger) {
	bus.SubscribeFunc(events.CurveCompleted, func(_ context.Context, e events.Event) error {
		if completed, ok := e.(events.CurveCompletedEvent); ok {
			log.Info("Bonding curve completed",
				zap.String("mint", completed.Mint.String()),
				zap.Uint64("real_sol_reserves", completed.RealSolReserves))
		}
		return nil
	})
	bus.SubscribeFunc(events.CurveWithdrawn, func(_ context.Context, e events.Event) error {
		if withdrawn, ok := e.(events.CurveWithdrawnEvent); ok {
			log.Info("Curve balances withdrawn",
				zap.String("mint", withdrawn.Mint.String()),
				zap.Uint64("sol_amount", withdrawn.SolAmount),
				zap.Uint64("token_amount", withdrawn.TokenAmount))
		}
		return nil
	})
}
