package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/possync/internal/client/daemon"
	"github.com/iudanet/possync/internal/models"
)

// payloadFlags источник тела мутации
type payloadFlags struct {
	data string
	file string
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.data, "data", "d", "", "payload as inline JSON")
	cmd.Flags().StringVarP(&p.file, "file", "f", "", "read payload JSON from file")
	cmd.MarkFlagsMutuallyExclusive("data", "file")
}

func (p *payloadFlags) read() ([]byte, error) {
	switch {
	case p.file != "":
		raw, err := os.ReadFile(p.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		return raw, nil
	case p.data != "":
		return []byte(p.data), nil
	}
	return nil, nil
}

// buildMutation собирает мутацию из аргументов <entity> <action> <id>
func buildMutation(args []string, payload *payloadFlags) (models.Mutation, error) {
	kind, err := models.ParseEntityKind(args[0])
	if err != nil {
		return models.Mutation{}, err
	}
	action, err := models.ParseAction(args[1])
	if err != nil {
		return models.Mutation{}, err
	}

	m := models.Mutation{ID: args[2], Kind: kind, Action: action}
	if action == models.ActionDelete {
		return m, nil
	}

	raw, err := payload.read()
	if err != nil {
		return models.Mutation{}, err
	}
	if len(raw) == 0 {
		return models.Mutation{}, fmt.Errorf("payload is required for %s, use --data or --file", action)
	}

	m.Payload, err = models.DecodePayload(kind, raw)
	if err != nil {
		return models.Mutation{}, fmt.Errorf("invalid %s payload: %w", kind, err)
	}
	return m, nil
}

func (c *Cli) newEnqueueCommand() *cobra.Command {
	var payload payloadFlags

	cmd := &cobra.Command{
		Use:   "enqueue <entity> <action> <id>",
		Short: "Put a mutation into the durable queue",
		Example: `  possync enqueue customers create cust-1 --data '{"name":"Ann","phone":"+15550001"}'
  possync enqueue inventory delete item-7`,
		Args: cobra.ExactArgs(3),
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, args []string) error {
			m, err := buildMutation(args, &payload)
			if err != nil {
				return err
			}

			status := app.Queue.Enqueue(ctx, m)
			if !status.Queued {
				return fmt.Errorf("mutation was not queued: %w", status.Err)
			}
			c.io.Printf("Queued %s %s %s\n", m.Action, m.Kind, m.ID)
			c.io.Printf("Key: %s\n", status.Key)
			return nil
		}),
	}
	payload.register(cmd)
	return cmd
}

func (c *Cli) newWriteCommand() *cobra.Command {
	var payload payloadFlags

	cmd := &cobra.Command{
		Use:   "write <entity> <action> <id>",
		Short: "Send a mutation now, queueing it if the backend is unavailable",
		Args:  cobra.ExactArgs(3),
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, args []string) error {
			m, err := buildMutation(args, &payload)
			if err != nil {
				return err
			}

			res, err := app.Data.Write(ctx, m)
			if err != nil {
				return fmt.Errorf("write failed: %w", err)
			}
			if res.Delivered {
				c.io.Printf("✓ Delivered %s %s %s\n", m.Action, m.Kind, m.ID)
				return nil
			}
			c.io.Printf("⚠️  Backend unavailable, queued as %s\n", res.Key)
			c.io.Println("It will be sent by the next sync.")
			return nil
		}),
	}
	payload.register(cmd)
	return cmd
}

func (c *Cli) newQueueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the durable queue",
	}
	cmd.AddCommand(
		c.newQueueListCommand(),
		c.newQueueClearCommand(),
		c.newQueueDeadCommand(),
		c.newQueueRequeueCommand(),
		c.newQueuePurgeDeadCommand(),
	)
	return cmd
}

func (c *Cli) newQueueListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued mutations in delivery order",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, _ []string) error {
			items, err := app.Queue.List(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return c.printJSON(items)
			}
			if len(items) == 0 {
				c.io.Println("Queue is empty")
				return nil
			}

			w := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "KEY\tENTITY\tACTION\tID\tRETRIES\tENQUEUED")
			for _, item := range items {
				if item.ReadErr != nil {
					_, _ = fmt.Fprintf(w, "%s\t(unreadable)\t-\t-\t-\t%v\n", item.Key, item.ReadErr)
					continue
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					item.Key, item.Kind, item.Action, item.ID, item.RetryCount,
					item.EnqueuedAt.Local().Format(time.DateTime))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			c.io.Printf("\nTotal: %d\n", len(items))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print items as JSON")
	return cmd
}

func (c *Cli) newQueueClearCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every queued mutation without sending it",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, _ []string) error {
			n, err := app.Queue.Len(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				c.io.Println("Queue is empty")
				return nil
			}

			prompt := fmt.Sprintf("Discard %d unsent mutation(s)?", n)
			if err := c.confirm(prompt, force); err != nil {
				return err
			}

			if err := app.Queue.Clear(ctx); err != nil {
				return err
			}
			c.io.Printf("Removed %d mutation(s)\n", n)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "do not ask for confirmation")
	return cmd
}

func (c *Cli) newQueueDeadCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dead",
		Short: "List mutations taken out of delivery",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, _ []string) error {
			letters, err := app.Queue.DeadLetters(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return c.printJSON(letters)
			}
			if len(letters) == 0 {
				c.io.Println("No dead letters")
				return nil
			}

			w := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "KEY\tENTITY\tACTION\tID\tFAILED\tREASON")
			for _, dl := range letters {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					dl.Item.Key, dl.Item.Kind, dl.Item.Action, dl.Item.ID,
					dl.FailedAt.Local().Format(time.DateTime), dl.Reason)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print dead letters as JSON")
	return cmd
}

func (c *Cli) newQueueRequeueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <key>",
		Short: "Move a dead letter back to the end of the queue",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, args []string) error {
			item, err := app.Queue.Requeue(ctx, models.QueueKey(args[0]))
			if err != nil {
				return err
			}
			c.io.Printf("Requeued %s %s %s as %s\n", item.Action, item.Kind, item.ID, item.Key)
			return nil
		}),
	}
}

func (c *Cli) newQueuePurgeDeadCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge-dead",
		Short: "Delete all dead letters",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, app *daemon.App, _ []string) error {
			if err := c.confirm("Delete all dead letters?", force); err != nil {
				return err
			}
			n, err := app.Queue.PurgeDeadLetters(ctx)
			if err != nil {
				return err
			}
			c.io.Printf("Purged %d dead letter(s)\n", n)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "do not ask for confirmation")
	return cmd
}

func (c *Cli) printJSON(v any) error {
	enc := json.NewEncoder(c.io)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
