package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/predictify/predictify/internal/auth"
	"github.com/predictify/predictify/internal/config"
	"github.com/predictify/predictify/internal/database"
	"github.com/predictify/predictify/internal/database/postgres"
	"github.com/predictify/predictify/internal/event"
	"github.com/predictify/predictify/internal/handler"
	"github.com/predictify/predictify/internal/logger"
	"github.com/predictify/predictify/internal/market"
	"github.com/predictify/predictify/internal/oracle"
	"github.com/predictify/predictify/internal/payout"
	"github.com/predictify/predictify/internal/server"
	"github.com/predictify/predictify/internal/vault"
	"github.com/predictify/predictify/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Init(logger.NewConfig(
		cfg.LogLevel, cfg.LogFormat, "predictify", handler.Version,
		os.Getenv("ENVIRONMENT"), false))

	if err := database.Migrate(cfg.GetDBConnString()); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPool(context.Background(), cfg.GetDBConnString(), database.PoolConfig{
		MaxConns:        int32(cfg.DBMaxConns),
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	marketRepo := postgres.NewMarketRepository(pool)
	vaultRepo := postgres.NewVaultRepository(pool)
	ledger := postgres.NewTokenLedger(pool)

	providers := make(map[string]oracle.Client, len(cfg.OracleProviders))
	for name, baseURL := range cfg.OracleProviders {
		providers[name] = oracle.NewHTTPClient(baseURL, cfg.OracleTimeout, cfg.OracleMaxStale)
	}
	adapter := oracle.NewAdapter(providers)

	authorizer := auth.NewAllowList(cfg.AdminIDs)
	eventBus := event.NewMemoryBus()

	marketService := market.NewService(marketRepo, ledger, authorizer, adapter, eventBus)
	vaultService := vault.NewService(marketRepo, vaultRepo, ledger, authorizer, eventBus)
	distributor := payout.NewDistributor(marketRepo, vaultService, ledger, eventBus)

	settlementWorker := worker.NewSettlementWorker(marketService, distributor, cfg.ResolvePollInterval)
	settlementWorker.Subscribe(eventBus)
	settlementWorker.Start()

	srv := server.NewServer(cfg.Port, cfg.APIKey, pool, marketService, vaultService, distributor)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("Server stopped unexpectedly", "error", err)
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	if err := settlementWorker.Shutdown(ctx); err != nil {
		slog.Error("Worker shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
