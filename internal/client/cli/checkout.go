package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/possync/internal/client/daemon"
	"github.com/iudanet/possync/internal/client/idempotency"
	"github.com/iudanet/possync/internal/models"
)

func (c *Cli) newCheckoutCommand() *cobra.Command {
	var (
		payload payloadFlags
		txn     string
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Finalize an order exactly once",
		Long: `Checkout sends an order under a transaction id. Repeating the command with
the same --txn never creates a second order, so it is safe to retry after a
failure or a lost response.`,
		Example: `  possync checkout --file order.json
  possync checkout --file order.json --txn txn_0192f7c4-...`,
		Args: cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, _ []string) error {
			raw, err := payload.read()
			if err != nil {
				return err
			}
			if len(raw) == 0 {
				return errors.New("order is required, use --data or --file")
			}
			p, err := models.DecodePayload(models.EntityOrders, raw)
			if err != nil {
				return fmt.Errorf("invalid order: %w", err)
			}
			order, ok := p.(*models.OrderPayload)
			if !ok {
				return fmt.Errorf("unexpected payload type %T", p)
			}

			txID := models.TransactionID(txn)
			if txID == "" {
				txID = idempotency.GenerateTransactionID()
			}
			c.io.Printf("Transaction: %s\n", txID)

			res, err := app.Data.FinalizeOrder(ctx, txID, order, func(attempt int, err error) {
				c.io.Printf("Retrying (%d)... %v\n", attempt, err)
			})
			if errors.Is(err, idempotency.ErrAlreadyProcessed) {
				c.io.Println("✓ Transaction was already submitted, nothing to do")
				return nil
			}
			if err != nil {
				c.io.Printf("Checkout failed. Retry with --txn %s to keep it idempotent.\n", txID)
				return err
			}

			if res.Queued {
				c.io.Println("⚠️  Server unreachable, order saved and will be sent automatically")
				return nil
			}
			c.io.Println("✓ Order submitted")
			return nil
		}),
	}
	payload.register(cmd)
	cmd.Flags().StringVar(&txn, "txn", "", "transaction id to reuse (generated when empty)")
	return cmd
}

func (c *Cli) newTxnCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Inspect submitted transaction ids",
	}

	check := &cobra.Command{
		Use:   "check <transaction-id>",
		Short: "Report whether a transaction was already submitted",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, args []string) error {
			submitted, err := app.Guard.IsSubmitted(ctx, models.TransactionID(args[0]))
			if err != nil {
				return err
			}
			if submitted {
				c.io.Printf("%s: submitted\n", args[0])
			} else {
				c.io.Printf("%s: not submitted\n", args[0])
			}
			return nil
		}),
	}

	forget := &cobra.Command{
		Use:   "forget <transaction-id>",
		Short: "Allow a transaction id to be submitted again",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, args []string) error {
			if err := app.Guard.Forget(ctx, models.TransactionID(args[0])); err != nil {
				return err
			}
			c.io.Printf("Forgot %s\n", args[0])
			return nil
		}),
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Remove transaction ids older than the retention period",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, _ []string) error {
			n, err := app.Guard.Sweep(ctx)
			if err != nil {
				return err
			}
			c.io.Printf("Removed %d expired transaction(s)\n", n)
			return nil
		}),
	}

	cmd.AddCommand(check, forget, sweep)
	return cmd
}
