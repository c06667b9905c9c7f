package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diewo77/invoicer-web/internal/api"
	"github.com/diewo77/invoicer-web/internal/config"
	"github.com/diewo77/invoicer-web/internal/logging"
	"github.com/diewo77/invoicer-web/internal/metrics"
	"github.com/diewo77/invoicer-web/internal/pdf"
	"github.com/diewo77/invoicer-web/internal/session"
	"github.com/diewo77/invoicer-web/view"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config
	root := &cobra.Command{
		Use:           "invoicer",
		Short:         "Web front-end for the invoicing REST backend",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c
			logging.Setup(cfg.App.LogLevel, cfg.App.Dev)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	})

	var outDir string
	pdfCmd := &cobra.Command{
		Use:   "pdf <invoice-id>",
		Short: "Download one invoice as a PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid invoice id %q", args[0])
			}
			path, err := writePDF(cmd.Context(), cfg, id, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	pdfCmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory the PDF is written to")
	root.AddCommand(pdfCmd)

	return root
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Component("server")
	view.SetDevMode(cfg.App.Dev)

	m := metrics.New()
	client := api.NewClient(cfg.API, api.WithObserver(m), api.WithLogger(logging.Component("api")))
	sessions := session.NewMemoryStore()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sweepSessions(ctx, sessions, cfg.App.SessionTTLDuration())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(client, sessions, m, logging.Component("http")),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Server.Port).Str("api", cfg.API.BaseURL).Bool("dev", cfg.App.Dev).Msg("server starting")
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
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
		return err
	}
	logger.Info().Msg("server stopped gracefully")
	return nil
}

// sweepSessions drops idle edit sessions until ctx is done.
func sweepSessions(ctx context.Context, store *session.MemoryStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(min(ttl, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.SweepIdle(ttl); n > 0 {
				log.Debug().Int("swept", n).Int("open", store.Len()).Msg("swept idle edit sessions")
			}
		}
	}
}

// writePDF fetches an invoice and writes its PDF into dir, returning the file path.
func writePDF(ctx context.Context, cfg *config.Config, id int64, dir string) (string, error) {
	client := api.NewClient(cfg.API, api.WithLogger(logging.Component("api")))
	inv, err := client.GetInvoice(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := pdf.Invoice(*inv)
	if err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}
	path := filepath.Join(dir, pdf.FileName(inv.ID, time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}
