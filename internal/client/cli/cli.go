// Package cli implements the possync operator commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/iudanet/possync/internal/client/daemon"
	"github.com/iudanet/possync/internal/client/iocli"
	"github.com/iudanet/possync/internal/config"
	"github.com/iudanet/possync/internal/logging"
)

// errAborted возвращается, когда пользователь отказался от операции
var errAborted = errors.New("aborted by user")

// BuildInfo is set via ldflags during build
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigPath     string
	EnvFile        string
	ServerURL      string
	DBPath         string
	PassphraseFile string
	Verbose        bool
}

type Cli struct {
	io     iocli.IO
	cfg    *config.ClientConfig
	logger *slog.Logger
	logOut io.Writer
	build  BuildInfo
	opts   RootOptions
}

func New(stdio iocli.IO, build BuildInfo) *Cli {
	return &Cli{
		io:     stdio,
		build:  build,
		logOut: os.Stderr,
	}
}

// RootCommand builds the command tree
func (c *Cli) RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "possync",
		Short: "Offline-tolerant sync client for POS terminals",
		Long: `possync keeps POS mutations in a durable local queue while the backend
is unreachable and delivers them once it is back.

Configuration is read from possync.toml, then .env, then POSSYNC_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.opts.ConfigPath, "config", "c", config.DefaultConfigFile, "path to TOML config file")
	flags.StringVar(&c.opts.EnvFile, "env-file", ".env", "path to .env file")
	flags.StringVar(&c.opts.ServerURL, "server", "", "backend URL (overrides config)")
	flags.StringVar(&c.opts.DBPath, "db", "", "path to local database (overrides config)")
	flags.StringVar(&c.opts.PassphraseFile, "passphrase-file", "", "file with the at-rest encryption passphrase")
	flags.BoolVarP(&c.opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		c.newEnqueueCommand(),
		c.newWriteCommand(),
		c.newQueueCommand(),
		c.newSyncCommand(),
		c.newStatusCommand(),
		c.newCheckoutCommand(),
		c.newTxnCommand(),
		c.newRunCommand(),
		c.newVersionCommand(),
	)
	return cmd
}

// loadConfig читает конфигурацию и применяет глобальные флаги
func (c *Cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadClient(c.opts.ConfigPath, c.opts.EnvFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = c.opts.ServerURL
	}
	if flags.Changed("db") {
		cfg.DBPath = c.opts.DBPath
	}
	if c.opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if cfg.EncryptionPassphrase == "" && c.opts.PassphraseFile != "" {
		passphrase, err := readPassphraseFile(c.opts.PassphraseFile)
		if err != nil {
			return err
		}
		cfg.EncryptionPassphrase = passphrase
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logging.New(cfg.LogLevel, cfg.LogFormat, c.logOut)
	return nil
}

// withApp открывает локальное хранилище на время выполнения команды
func (c *Cli) withApp(run func(ctx context.Context, app *daemon.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		app, err := daemon.Open(ctx, c.cfg, c.logger)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, app.Close())
		}()

		return run(ctx, app, args)
	}
}

// confirm asks for confirmation unless force is set.
// Without a terminal there is nobody to ask, so the operation is refused.
func (c *Cli) confirm(prompt string, force bool) error {
	if force {
		return nil
	}
	if !c.io.IsInteractive() {
		return errors.New("refusing to continue without --force: input is not a terminal")
	}

	answer, err := c.io.ReadInput(prompt + " [y/N]: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	}
	return errAborted
}

func readPassphraseFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase file: %w", err)
	}
	// Убираем trailing newline/whitespace
	passphrase := strings.TrimSpace(string(content))
	if passphrase == "" {
		return "", fmt.Errorf("passphrase file is empty")
	}
	return passphrase, nil
}
