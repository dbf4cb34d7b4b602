// Package health exposes liveness and readiness probes for the preview
// server and the checks it runs: template package availability, SMTP relay
// and Redis reachability.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "templates": health.TemplatePackages(loader, cfg.Packages()),
//	    "smtp":      smtpTransport.Ping,
//	    "redis":     health.Redis(client),
//	}))
package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/templatemailer/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ErrCheckFailed is returned by Run when one or more checks fail.
var ErrCheckFailed = errors.New("health: check failed")

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to checks.
type Checks map[string]CheckFunc

// Response is the JSON body of the readiness probe.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the result of one check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures the readiness probe.
type Option func(*config)

// WithTimeout bounds the time all checks may take together.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failing checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{timeout: defaultTimeout, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes checks concurrently. The error joins ErrCheckFailed with
// every failure.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Response, error) {
	resp := run(ctx, checks, newConfig(opts...))
	if resp.Status == StatusHealthy {
		return resp, nil
	}

	errs := []error{ErrCheckFailed}
	for name, c := range resp.Checks {
		if c.Status == StatusUnhealthy {
			errs = append(errs, errors.New(name+": "+c.Error))
		}
	}
	return resp, errors.Join(errs...)
}

func run(ctx context.Context, checks Checks, cfg *config) *Response {
	resp := &Response{Status: StatusHealthy}
	if len(checks) == 0 {
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	done := make(chan result, len(checks))

	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Go(func() { done <- result{name: name, err: check(ctx)} })
	}
	wg.Wait()
	close(done)

	resp.Checks = make(map[string]Check, len(checks))
	for res := range done {
		if res.err == nil {
			resp.Checks[res.name] = Check{Status: StatusHealthy}
			continue
		}
		cfg.logger.WarnContext(ctx, "health check failed",
			slog.String("check", res.name),
			slog.String("error", res.err.Error()),
		)
		resp.Checks[res.name] = Check{Status: StatusUnhealthy, Error: res.err.Error()}
		resp.Status = StatusUnhealthy
	}
	return resp
}
