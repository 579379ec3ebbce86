package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/funnel/pkg/adapters/http"
	"github.com/aretw0/funnel/pkg/adapters/mcp"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Handler builds the HTTP surface for app.
func Handler(app *App) http.Handler {
	cfg := app.Config.Server

	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(app.Logger),
		httpAdapter.WithAuthenticator(httpAdapter.NewAuthenticator(secret)),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, httpAdapter.WithRateLimiter(httpAdapter.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)))
	}
	if cfg.Metrics {
		opts = append(opts, httpAdapter.WithMetrics(app.Registry))
	}
	return httpAdapter.NewHandler(app.Engine, opts...)
}

// Serve runs the HTTP server until ctx is done, then drains it.
func Serve(ctx context.Context, app *App) error {
	srv := &http.Server{
		Addr:              app.Config.Server.Addr,
		Handler:           Handler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting funnel server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		app.Logger.Info("Shutting down funnel server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}

// ServeMCP exposes app over MCP on stdio, or SSE when port is positive.
func ServeMCP(ctx context.Context, app *App, transport string, port int) error {
	srv := mcp.NewServer(app.Engine, mcp.WithLogger(app.Logger))
	switch transport {
	case "stdio":
		app.Logger.Info("Starting funnel MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		err := srv.ServeSSE(ctx, port)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}
