package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/possync/internal/client/daemon"
	"github.com/iudanet/possync/internal/client/sync"
	"github.com/iudanet/possync/internal/models"
)

func (c *Cli) newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one drain pass over the queue",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runSync),
	}
}

func (c *Cli) runSync(ctx context.Context, app *daemon.App, _ []string) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	if state := app.Oracle.Probe(ctx); state == models.StateDisconnected {
		return fmt.Errorf("server %s is unreachable, queued mutations are kept", c.cfg.ServerURL)
	}

	pending, err := app.Dispatcher.PendingCount(ctx)
	if err != nil {
		return err
	}
	if pending == 0 {
		c.io.Println("✓ Queue is empty, nothing to send")
		return nil
	}
	c.io.Printf("Sending %d queued mutation(s)...\n", pending)

	result, err := app.Dispatcher.Drain(ctx)
	if errors.Is(err, sync.ErrDrainInProgress) {
		return fmt.Errorf("another sync is running, try again later")
	}
	if err != nil && result == nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Println()
	c.io.Printf("Delivered:       %d\n", result.SuccessCount)
	c.io.Printf("Left in queue:   %d\n", result.FailCount)
	c.io.Printf("Dead-lettered:   %d\n", result.DroppedCount)

	if result.DroppedCount > 0 {
		c.io.Println()
		c.io.Println("Run 'possync queue dead' to see why mutations were dropped.")
	}
	if err != nil {
		return fmt.Errorf("synchronization interrupted: %w", err)
	}
	return nil
}

func (c *Cli) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend reachability and queue state",
		Args:  cobra.NoArgs,
		RunE:  c.withApp(c.runStatus),
	}
}

func (c *Cli) runStatus(ctx context.Context, app *daemon.App, _ []string) error {
	c.io.Println("=== Sync Status ===")
	c.io.Println()

	state := app.Oracle.Probe(ctx)
	c.io.Printf("Server:      %s\n", c.cfg.ServerURL)
	c.io.Printf("Connection:  %s\n", state)
	if app.Storage.Sealed() {
		c.io.Println("Encryption:  on")
	}

	pending, err := app.Dispatcher.PendingCount(ctx)
	if err != nil {
		return err
	}
	dead, err := app.Queue.DeadLetters(ctx)
	if err != nil {
		return err
	}
	c.io.Printf("Queued:      %d\n", pending)
	c.io.Printf("Dead:        %d\n", len(dead))

	ts, err := app.Storage.GetLastSyncTimestamp(ctx)
	if err != nil {
		// Не прерываем выполнение, просто предупреждаем
		c.io.Printf("\nWarning: Failed to get last sync time: %v\n", err)
	} else if ts > 0 {
		c.io.Printf("Last sync:   %s\n", time.Unix(ts, 0).Format(time.RFC3339))
	} else {
		c.io.Println("Last sync:   never")
	}

	c.io.Println()
	switch {
	case pending > 0 && state == models.StateDisconnected:
		c.io.Printf("⚠️  %d mutation(s) waiting for the server to come back\n", pending)
	case pending > 0:
		c.io.Printf("⚠️  %d mutation(s) waiting to be synchronized\n", pending)
		c.io.Println("Run 'possync sync' to send them now.")
	default:
		c.io.Println("✓ All mutations synchronized with server")
	}
	return nil
}

func (c *Cli) newRunCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon until interrupted",
		Long: `Run probes the backend periodically, drains the queue on a timer and
whenever the connection comes back, and serves /debug/sync and /metrics.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				c.cfg.Observability.ListenAddr = listen
			}
			return nil
		},
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			c.logger.Info("Sync daemon started",
				"server", c.cfg.ServerURL,
				"interval", c.cfg.Sync.Interval.Std(),
			)
			return app.Run(ctx)
		}),
	}
	cmd.Flags().StringVar(&listen, "listen", "", "diagnostics listen address, empty disables it")
	return cmd
}

func (c *Cli) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// конфигурация для вывода версии не нужна
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			c.io.Println("possync client")
			c.io.Printf("Version:    %s\n", c.build.Version)
			c.io.Printf("Build Date: %s\n", c.build.BuildDate)
			c.io.Printf("Git Commit: %s\n", c.build.GitCommit)
		},
	}
}
