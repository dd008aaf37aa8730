package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/apkscout/api"
	"github.com/use-agent/apkscout/webhook"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			slog.Info("apkscout starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
				"version", version,
			)

			// ── 1. Resolution stack ─────────────────────────────────
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			// Browser and background loops go last, after the server drained.
			defer a.Close()

			// ── 2. Router ───────────────────────────────────────────
			router := api.NewRouter(a.orchestrator, a.session, webhook.NewNotifier(cfg.Webhook), cfg, time.Now())

			// ── 3. Start HTTP server ────────────────────────────────
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// ── 4. Graceful shutdown ────────────────────────────────
			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				slog.Info("shutdown signal received")
			}

			// Give in-flight requests 5 seconds to complete.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}
			slog.Info("apkscout stopped")
			return nil
		},
	}
}
