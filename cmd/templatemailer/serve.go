package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/templatemailer/pkg/health"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/smtp"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
	"github.com/dmitrymomot/templatemailer/pkg/preview"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

func newServeCommand(rt *runtime) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve template previews, health probes and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				rt.config.Server.Address = addr
			}

			ln, err := net.Listen("tcp", rt.config.Server.Address)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			handler, err := rt.router(ctx)
			if err != nil {
				_ = ln.Close()
				return err
			}
			return serve(ctx, ln, handler, rt.config.Server.ShutdownTimeout, rt.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from settings or :8080)")
	return cmd
}

// router mounts the preview handler, health probes and metrics.
func (rt *runtime) router(ctx context.Context) (http.Handler, error) {
	transport, err := rt.transport(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := rt.service(transport)
	if err != nil {
		return nil, err
	}

	checks := health.Checks{
		"templates": health.TemplatePackages(rt.loader, svc.Config().Packages()),
	}
	if pinger, ok := transport.(*smtp.Transport); ok {
		checks["smtp"] = pinger.Ping
	}
	if rt.redis != nil {
		checks["redis"] = health.Redis(rt.redis)
	}

	r := chi.NewRouter()
	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(checks, health.WithLogger(rt.logger)))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(rt.registry))
	r.Mount("/preview", preview.New(svc, preview.WithLogger(rt.logger)))
	return r, nil
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down
// gracefully within timeout.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, timeout time.Duration, log *slog.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.String("error", err.Error()))
		return err
	}
	log.Info("shutdown completed")
	return nil
}
