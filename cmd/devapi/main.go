// Command devapi runs the reference invoicing REST backend on gorm.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/invoicer-web/internal/config"
	"github.com/diewo77/invoicer-web/internal/db"
	"github.com/diewo77/invoicer-web/internal/devapi"
	"github.com/diewo77/invoicer-web/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		migrateOnly bool
		seedOnly    bool
		port        string
	)
	cmd := &cobra.Command{
		Use:          "devapi",
		Short:        "Reference invoicing REST backend",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.App.LogLevel, cfg.App.Dev)
			logger := logging.Component("devapi")

			conn, err := db.Open(cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}

			switch {
			case migrateOnly:
				if err := db.Migrate(conn); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				logger.Info().Msg("migrations completed successfully")
				return nil
			case seedOnly:
				if err := db.Seed(conn); err != nil {
					return fmt.Errorf("seeding failed: %w", err)
				}
				logger.Info().Msg("seeding completed successfully")
				return nil
			}

			if cfg.App.Migrations {
				if err := db.Migrate(conn); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				logger.Info().Msg("migrations completed")
			}
			if err := db.Seed(conn); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			return serve(cmd.Context(), conn, cfg.Server, port)
		},
	}
	cmd.Flags().BoolVar(&migrateOnly, "migrate-only", false, "run DB migrations and exit")
	cmd.Flags().BoolVar(&seedOnly, "seed-only", false, "run DB seed and exit")
	cmd.Flags().StringVar(&port, "port", envOr("DEVAPI_PORT", "8081"), "listen port")
	return cmd
}

func serve(ctx context.Context, conn *gorm.DB, sc config.ServerConfig, port string) error {
	logger := logging.Component("devapi")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      logging.Middleware(logging.Component("http"))(devapi.New(conn, logger)),
		ReadTimeout:  time.Duration(sc.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(sc.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(sc.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", port).Str("prefix", devapi.Prefix).Msg("backend starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("backend stopped gracefully")
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
