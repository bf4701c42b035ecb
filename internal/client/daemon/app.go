// Package daemon wires the sync subsystem into one process: local storage,
// the dispatcher loop, reachability probes and the diagnostics HTTP surface.
package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/connection"
	"github.com/iudanet/possync/internal/client/data"
	"github.com/iudanet/possync/internal/client/idempotency"
	"github.com/iudanet/possync/internal/client/observability"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/storage/boltdb"
	clientsync "github.com/iudanet/possync/internal/client/sync"
	"github.com/iudanet/possync/internal/config"
	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/internal/retry"
)

// App holds every component of the client sync subsystem.
// CLI commands and the long-running daemon share it.
type App struct {
	Storage    *boltdb.Storage
	Client     *api.Client
	Queue      *queue.Store
	Guard      *idempotency.Guard
	Recorder   *observability.Recorder
	Oracle     *connection.Oracle
	Dispatcher *clientsync.Service
	Data       *data.Service
	Registry   *prometheus.Registry

	cfg    *config.ClientConfig
	logger *slog.Logger
}

// Open opens local storage and builds the components from cfg
func Open(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger) (*App, error) {
	var opts []boltdb.Option
	if cfg.EncryptionPassphrase != "" {
		opts = append(opts, boltdb.WithPassphrase(cfg.EncryptionPassphrase))
	}

	st, err := boltdb.New(ctx, cfg.DBPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	client := api.NewClient(cfg.ServerURL, api.WithAccessToken(cfg.AccessToken))
	recorder := observability.NewRecorder(cfg.Observability.LogCapacity, metrics)
	q := queue.NewStore(st, logger)
	guard := idempotency.NewGuard(st, cfg.Idempotency.Retention.Std(), logger)

	oracle := connection.NewOracle(client, connection.Options{
		ProbeInterval: cfg.Connection.ProbeInterval.Std(),
		ProbeTimeout:  cfg.Connection.ProbeTimeout.Std(),
	}, metrics, logger)

	dispatcher := clientsync.NewService(client, q, st, oracle, recorder, clientsync.Options{
		Retry: retry.Options{
			MaxRetries: cfg.Sync.MaxRetries,
			BaseDelay:  cfg.Sync.BaseDelay.Std(),
			MaxDelay:   cfg.Sync.MaxDelay.Std(),
			Jitter:     0.2,
		},
		Interval:    cfg.Sync.Interval.Std(),
		MaxAttempts: cfg.Sync.MaxAttempts,
	}, logger)

	checkout := retry.Options{
		MaxRetries: cfg.Checkout.MaxRetries,
		BaseDelay:  cfg.Checkout.BaseDelay.Std(),
	}
	dataService := data.NewService(client, q, guard, oracle, recorder, data.Options{
		Write:    checkout,
		Checkout: checkout,
	}, logger)

	recorder.OnError(func(e models.SyncLogEntry) {
		logger.Warn("Sync operation failed",
			"entity", e.Entity,
			"entity_id", e.EntityID,
			"action", e.Operation,
			"error", e.Error,
		)
	})

	return &App{
		Storage:    st,
		Client:     client,
		Queue:      q,
		Guard:      guard,
		Recorder:   recorder,
		Oracle:     oracle,
		Dispatcher: dispatcher,
		Data:       dataService,
		Registry:   reg,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Close releases local storage
func (a *App) Close() error {
	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("failed to close local storage: %w", err)
	}
	return nil
}
