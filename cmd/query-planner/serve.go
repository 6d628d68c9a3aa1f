// cmd/query-planner/serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"query-planner/internal/api"
	"query-planner/internal/common/config"
)

func serveCmd(load configLoader) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			srv := api.NewServer(cfg.Server, a.planner, a.queryLog(), a.log, a.pingers...)
			return runServer(ctx, srv, cfg.Server, a)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

// runServer blocks until ctx is cancelled or the server fails, then shuts it
// down within the configured timeout.
func runServer(ctx context.Context, srv *api.Server, cfg config.ServerConfig, a *app) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutdown signal received, stopping server...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		return err
	}
	a.log.Info("Server stopped gracefully", nil)
	return nil
}
