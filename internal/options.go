package internal

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/templatemailer/pkg/cache"
	"github.com/dmitrymomot/templatemailer/pkg/mailer"
	"github.com/dmitrymomot/templatemailer/pkg/markdown"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
)

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithLoader sets where template packages are read from. Required.
//
// Example:
//
//	templatemailer.New(transport, settings,
//	    templatemailer.WithLoader(resource.NewDirLoader("./packages")),
//	)
func WithLoader(l resource.Loader) Option {
	return func(s *Service) {
		s.loader = l
	}
}

// WithRenderer replaces the built-in body renderer.
func WithRenderer(r TemplateRenderer) Option {
	return func(s *Service) {
		s.renderer = r
	}
}

// WithInliner replaces the CSS inliner used for html bodies.
func WithInliner(i CSSInliner) Option {
	return func(s *Service) {
		s.inliner = i
	}
}

// WithMarkdown sets the converter behind the markdown template function.
func WithMarkdown(c *markdown.Converter) Option {
	return func(s *Service) {
		s.markdown = c
	}
}

// WithLookupCache memoizes which package provides a template for ttl.
// Missing templates are never cached.
//
// Example:
//
//	store := cache.NewMemory(time.Minute)
//	defer store.Close()
//
//	templatemailer.New(transport, settings,
//	    templatemailer.WithLookupCache(store, 10*time.Minute),
//	)
func WithLookupCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.lookup = cache.NewLookup(store, ttl)
	}
}

// WithMetrics records send and render metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRootPath sets the settings path holding the mailer configuration.
// Default: "TemplateMailer".
func WithRootPath(path string) Option {
	return func(s *Service) {
		s.root = path
	}
}

// SendOption adjusts a SendRequest built by SendTemplateEmail.
type SendOption func(*SendRequest)

// FromSender sends as the configured sender with the given name.
func FromSender(name string) SendOption {
	return func(r *SendRequest) {
		r.Sender = NamedSender(name)
	}
}

// FromAddress sends as the given address.
func FromAddress(address, name string) SendOption {
	return func(r *SendRequest) {
		r.Sender = ExplicitSender(address, name)
	}
}

// WithCC adds carbon copy recipients.
func WithCC(addresses ...string) SendOption {
	return func(r *SendRequest) {
		r.CC = append(r.CC, addresses...)
	}
}

// WithBCC adds blind carbon copy recipients.
func WithBCC(addresses ...string) SendOption {
	return func(r *SendRequest) {
		r.BCC = append(r.BCC, addresses...)
	}
}

// WithAttachments attaches files to the email.
func WithAttachments(attachments ...mailer.Attachment) SendOption {
	return func(r *SendRequest) {
		r.Attachments = append(r.Attachments, attachments...)
	}
}

// RenderOption adjusts a RenderEmailBody call.
type RenderOption func(*RenderInput)

// WithoutEmogrify keeps <style> blocks instead of inlining them.
func WithoutEmogrify() RenderOption {
	return func(in *RenderInput) {
		in.Emogrify = false
	}
}
