// Package cli implements the possync-server commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/iudanet/possync/internal/config"
	"github.com/iudanet/possync/internal/logging"
	"github.com/iudanet/possync/internal/server"
	"github.com/iudanet/possync/internal/server/jwt"
	"github.com/iudanet/possync/internal/server/storage/sqlite"
	"github.com/iudanet/possync/internal/validation"
	"github.com/iudanet/possync/pkg/api"
)

// BuildInfo is set via ldflags during build
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

type Cli struct {
	cfg     *config.ServerConfig
	logOut  io.Writer
	build   BuildInfo
	envFile string
}

func New(build BuildInfo) *Cli {
	return &Cli{build: build, logOut: os.Stderr}
}

// RootCommand builds the command tree
func (c *Cli) RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "possync-server",
		Short: "Reference record store for possync clients",
		Long: `possync-server stores entity records sent by POS terminals and rejects
repeated orders with the same transaction id.

Configuration is read from .env and POSSYNC_SERVER_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(c.envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			c.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "path to .env file")

	cmd.AddCommand(c.serveCommand(), c.tokenCommand(), c.versionCommand())
	return cmd
}

func (c *Cli) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if cmd.Flags().Changed("addr") {
				c.cfg.Addr = addr
			}

			logger := logging.New(c.cfg.LogLevel, c.cfg.LogFormat, c.logOut)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := sqlite.New(ctx, c.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				err = multierr.Append(err, store.Close())
			}()

			srv := server.New(store, jwt.NewService(c.cfg.JWTSecret, c.cfg.TokenTTL), server.Options{
				Addr:      c.cfg.Addr,
				Version:   c.build.Version,
				RateLimit: c.cfg.RateLimit,
				RateBurst: c.cfg.RateBurst,
			}, logger)
			defer srv.Close()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (c *Cli) tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <device-id>",
		Short: "Issue an access token for a POS device",
		Long: `Issue an access token for a POS device.

Put the printed access_token into the device's possync.toml as access_token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID := args[0]
			if err := validation.ValidateDeviceID(deviceID); err != nil {
				return err
			}

			token, expiresIn, err := jwt.NewService(c.cfg.JWTSecret, c.cfg.TokenTTL).GenerateDeviceToken(deviceID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.TokenResponse{
				AccessToken: token,
				DeviceID:    deviceID,
				ExpiresIn:   expiresIn,
			})
		},
	}
}

func (c *Cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// версия не требует конфигурации
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "possync-server\n")
			_, _ = fmt.Fprintf(out, "Version:    %s\n", c.build.Version)
			_, _ = fmt.Fprintf(out, "Build Date: %s\n", c.build.BuildDate)
			_, _ = fmt.Fprintf(out, "Git Commit: %s\n", c.build.GitCommit)
		},
	}
}

// Execute runs the root command with ctx
func (c *Cli) Execute(ctx context.Context) error {
	return c.RootCommand().ExecuteContext(ctx)
}
