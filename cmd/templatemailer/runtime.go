package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/templatemailer"
	"github.com/dmitrymomot/templatemailer/pkg/cache"
	"github.com/dmitrymomot/templatemailer/pkg/logger"
	"github.com/dmitrymomot/templatemailer/pkg/mailer"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/resend"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/sendgrid"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/ses"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/smtp"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/stdout"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
	"github.com/dmitrymomot/templatemailer/pkg/settings"
)

// runtime is the state shared by all commands, built once before a
// command runs.
type runtime struct {
	out      io.Writer
	errOut   io.Writer
	flags    globalFlags
	settings *settings.Settings
	config   cliConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	loader   resource.Loader
	redis    redis.UniversalClient
	store    cache.Store
	closers  []func() error
}

type globalFlags struct {
	settingsFiles []string
	envFiles      []string
	root          string
	logLevel      string
	logFormat     string
	transport     string
	packagesDir   string
}

func (rt *runtime) setup(ctx context.Context) error {
	if err := loadEnv(rt.flags.envFiles); err != nil {
		return err
	}

	conf, err := settings.Load(rt.flags.settingsFiles...)
	if err != nil {
		return err
	}
	rt.settings = conf

	if v, ok := conf.Get(rt.flags.root); ok && v != nil {
		if err := settings.DecodeValue(v, &rt.config); err != nil {
			return fmt.Errorf("decode %s: %w", rt.flags.root, err)
		}
	}
	rt.applyFlags()
	rt.config.applyDefaults()

	if rt.config.Log.Output == nil {
		rt.config.Log.Output = rt.errOut
	}
	rt.logger = logger.New(rt.config.Log)

	rt.metrics = metrics.New(rt.config.Metrics.Namespace)
	rt.registry = prometheus.NewRegistry()
	if err := errors.Join(
		rt.metrics.Register(rt.registry),
		rt.registry.Register(collectors.NewGoCollector()),
		rt.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
	); err != nil {
		return err
	}

	if rt.loader, err = newLoader(rt.config.Resources); err != nil {
		return err
	}

	return rt.openLookupCache(ctx)
}

func (rt *runtime) applyFlags() {
	if rt.flags.logLevel != "" {
		rt.config.Log.Level = rt.flags.logLevel
	}
	if rt.flags.logFormat != "" {
		rt.config.Log.Format = rt.flags.logFormat
	}
	if rt.flags.transport != "" {
		rt.config.Transport.Type = rt.flags.transport
	}
	if rt.flags.packagesDir != "" {
		rt.config.Resources.Type = "dir"
		rt.config.Resources.Dir = rt.flags.packagesDir
	}
}

func (rt *runtime) openLookupCache(ctx context.Context) error {
	switch rt.config.LookupCache.Type {
	case "none":
		return nil
	case "memory":
		mem := cache.NewMemory(time.Minute)
		rt.store = mem
		rt.closers = append(rt.closers, mem.Close)
		return nil
	case "redis":
		client, err := cache.OpenRedis(ctx, rt.config.LookupCache.RedisURL, cache.RedisOptions{})
		if err != nil {
			return err
		}
		rt.redis = client
		rt.store = cache.NewRedis(client, rt.config.LookupCache.Prefix)
		rt.closers = append(rt.closers, client.Close)
		return nil
	default:
		return fmt.Errorf("unknown lookup cache type %q (want none, memory or redis)", rt.config.LookupCache.Type)
	}
}

// service builds the mailer service sending through transport.
func (rt *runtime) service(transport mailer.Transport) (*templatemailer.Service, error) {
	opts := []templatemailer.Option{
		templatemailer.WithLoader(rt.loader),
		templatemailer.WithLogger(rt.logger),
		templatemailer.WithMetrics(rt.metrics),
		templatemailer.WithRootPath(rt.flags.root),
	}
	if rt.store != nil {
		opts = append(opts, templatemailer.WithLookupCache(rt.store, rt.config.LookupCache.TTL))
	}
	return templatemailer.New(transport, rt.settings, opts...)
}

// transport builds the configured mail transport.
func (rt *runtime) transport(ctx context.Context) (mailer.Transport, error) {
	cfg := rt.config.Transport
	switch cfg.Type {
	case "stdout":
		return stdout.NewWithWriter(rt.out), nil
	case "smtp":
		return smtp.New(cfg.SMTP), nil
	case "ses":
		t, err := ses.New(ctx, cfg.SES)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "sendgrid":
		return sendgrid.New(cfg.SendGrid), nil
	case "resend":
		return resend.New(cfg.Resend), nil
	default:
		return nil, fmt.Errorf("unknown transport type %q (want smtp, ses, sendgrid, resend or stdout)", cfg.Type)
	}
}

func (rt *runtime) close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func newLoader(cfg resourcesConfig) (resource.Loader, error) {
	switch cfg.Type {
	case "dir":
		return resource.NewDirLoader(cfg.Dir), nil
	case "s3":
		l, err := resource.NewS3Loader(cfg.S3)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown resources type %q (want dir or s3)", cfg.Type)
	}
}

// loadEnv loads .env files into the environment. Missing files are ignored
// so a checkout without .env still works.
func loadEnv(files []string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
