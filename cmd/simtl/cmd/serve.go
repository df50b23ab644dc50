package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "simtl/internal/log"
	"simtl/internal/web"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var listen string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the widget over HTTP",
		Long: `Serve the widget over HTTP.

The server will:
- Render the widget on demand and keep the output for cache_ttl
- Drop the cached output on the refresh cron schedule
- Expose /health, /, /timeline.js and /metrics
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  simtl serve --config /etc/simtl/config.yaml
  simtl serve --listen 0.0.0.0:9090 --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, cleanup, err := newWidget(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := web.NewServer(cfg, w)

			sched := cron.New()
			if _, err := sched.AddFunc(cfg.RefreshCron, srv.Refresh); err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
			}
			sched.Start()
			defer sched.Stop()

			return serveHTTP(ctx, &http.Server{
				Addr:              cfg.Listen,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      60 * time.Second,
			})
		},
	}
	c.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return c
}

// serveHTTP runs server until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}
