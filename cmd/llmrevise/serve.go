package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/howard-nolan/llmrevise/internal/observability"
	"github.com/howard-nolan/llmrevise/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := observability.Setup(ctx, observability.Options{
				Endpoint:    a.cfg.Telemetry.OTLPEndpoint,
				ServiceName: a.cfg.Telemetry.ServiceName,
				Insecure:    a.cfg.Telemetry.Insecure,
			}, a.log)
			if err != nil {
				return fmt.Errorf("setting up tracing: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					a.log.Warn().Err(err).Msg("flushing traces")
				}
			}()

			if port == 0 {
				port = a.cfg.Server.Port
			}

			httpServer := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      server.New(a.cfg, a.adapters, a.log),
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Int("port", port).Msg("llmrevise listening")
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")

	return cmd
}
