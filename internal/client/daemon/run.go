package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"
)

const (
	// SweepInterval период очистки устаревших отметок о транзакциях
	SweepInterval = time.Hour

	shutdownTimeout = 5 * time.Second
)

// Run starts reachability probes, the dispatcher loop, the transaction sweeper
// and the diagnostics server, and blocks until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// восстановление связи запускает внеочередной проход
	unsubscribe := a.Oracle.Subscribe(a.Dispatcher.OnConnectionChange)
	defer unsubscribe()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	fail := func(err error) {
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
		cancel()
	}

	wg.Go(func() {
		if err := a.Oracle.Run(ctx); err != nil {
			fail(fmt.Errorf("connection probe: %w", err))
		}
	})
	wg.Go(func() {
		if err := a.Dispatcher.Run(ctx); err != nil {
			fail(fmt.Errorf("dispatcher: %w", err))
		}
	})
	wg.Go(func() {
		a.sweepLoop(ctx, SweepInterval)
	})

	if addr := a.cfg.Observability.ListenAddr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           a.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		wg.Go(func() {
			a.logger.Info("Diagnostics server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fail(fmt.Errorf("diagnostics server: %w", err))
			}
		})
		wg.Go(func() {
			<-ctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fail(fmt.Errorf("diagnostics server shutdown: %w", err))
			}
		})
	}

	// очередь могла накопиться, пока процесс не работал
	a.Dispatcher.Trigger("startup")

	wg.Wait()
	a.logger.Info("Sync daemon stopped")
	return errs
}

// Sweep removes expired transaction marks
func (a *App) Sweep(ctx context.Context) {
	if _, err := a.Guard.Sweep(ctx); err != nil {
		a.logger.Error("Failed to sweep transactions", "error", err)
	}
}

func (a *App) sweepLoop(ctx context.Context, interval time.Duration) {
	a.Sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Sweep(ctx)
		}
	}
}
