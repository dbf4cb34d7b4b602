package templatemailer

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/templatemailer/internal"
	"github.com/dmitrymomot/templatemailer/pkg/cache"
	"github.com/dmitrymomot/templatemailer/pkg/mailer"
	"github.com/dmitrymomot/templatemailer/pkg/markdown"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
)

// Type aliases - public API
type (
	// Service renders email templates and sends them.
	Service = internal.Service

	// Option configures the Service.
	Option = internal.Option

	// SendOption adjusts a single SendTemplateEmail call.
	SendOption = internal.SendOption

	// RenderOption adjusts a single RenderEmailBody call.
	RenderOption = internal.RenderOption

	// SendRequest describes one templated email.
	SendRequest = internal.SendRequest

	// SenderRef names a sender: an explicit address or a configured name.
	SenderRef = internal.SenderRef

	// RenderInput describes one body render.
	RenderInput = internal.RenderInput

	// TemplateRenderer renders a template variant to a string.
	TemplateRenderer = internal.TemplateRenderer

	// CSSInliner moves <style> rules into inline style attributes.
	CSSInliner = internal.CSSInliner

	// ConfigurationSource resolves dotted settings paths.
	ConfigurationSource = internal.ConfigurationSource

	// Config is the decoded mailer configuration.
	Config = internal.Config

	// Policy controls what happens when sending fails or succeeds.
	Policy = internal.Policy

	// ConfigurationError reports a missing or invalid setting.
	ConfigurationError = internal.ConfigurationError

	// TemplateNotFoundError reports that no template package has the template.
	TemplateNotFoundError = internal.TemplateNotFoundError

	// Transport delivers messages.
	Transport = mailer.Transport

	// Address is an email address with an optional display name.
	Address = mailer.Address

	// Attachment is a file attached to an email.
	Attachment = mailer.Attachment
)

// Policies
const (
	PolicyNone  = internal.PolicyNone
	PolicyLog   = internal.PolicyLog
	PolicyThrow = internal.PolicyThrow
)

// DefaultRootPath is the settings path holding the mailer configuration.
const DefaultRootPath = internal.DefaultRootPath

// Errors
var (
	ErrConfiguration    = internal.ErrConfiguration
	ErrTemplateNotFound = internal.ErrTemplateNotFound
	ErrRenderFailed     = internal.ErrRenderFailed
	ErrTransport        = internal.ErrTransport
	ErrNoRecipient      = internal.ErrNoRecipient
)

// Constructors

// New creates a Service sending through transport, configured from the
// settings below DefaultRootPath in src.
//
// Example:
//
//	conf, err := settings.Load("config/settings.yaml")
//	if err != nil {
//	    return err
//	}
//
//	svc, err := templatemailer.New(smtp.New(smtpConfig), conf,
//	    templatemailer.WithLoader(resource.NewDirLoader("./packages")),
//	    templatemailer.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ok, err := svc.SendTemplateEmail(ctx, "Welcome", "Welcome aboard",
//	    []string{"alice@example.com"}, map[string]any{"name": "Alice"})
func New(transport Transport, src ConfigurationSource, opts ...Option) (*Service, error) {
	return internal.New(transport, src, opts...)
}

// ExplicitSender returns a SenderRef for the given address and display name.
func ExplicitSender(address, name string) SenderRef {
	return internal.ExplicitSender(address, name)
}

// NamedSender returns a SenderRef for a configured sender.
func NamedSender(name string) SenderRef {
	return internal.NamedSender(name)
}

// Service options

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithLoader sets where template packages are read from. Required.
func WithLoader(l resource.Loader) Option {
	return internal.WithLoader(l)
}

// WithRenderer replaces the built-in body renderer.
func WithRenderer(r TemplateRenderer) Option {
	return internal.WithRenderer(r)
}

// WithInliner replaces the CSS inliner.
func WithInliner(i CSSInliner) Option {
	return internal.WithInliner(i)
}

// WithMarkdown sets the converter behind the markdown template function.
func WithMarkdown(c *markdown.Converter) Option {
	return internal.WithMarkdown(c)
}

// WithLookupCache memoizes template to package lookups for ttl.
func WithLookupCache(store cache.Store, ttl time.Duration) Option {
	return internal.WithLookupCache(store, ttl)
}

// WithMetrics records send and render metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return internal.WithMetrics(m)
}

// WithRootPath sets the settings path holding the mailer configuration.
func WithRootPath(path string) Option {
	return internal.WithRootPath(path)
}

// Send options

// FromSender sends as the configured sender with the given name.
func FromSender(name string) SendOption {
	return internal.FromSender(name)
}

// FromAddress sends as the given address.
func FromAddress(address, name string) SendOption {
	return internal.FromAddress(address, name)
}

// WithCC adds carbon copy recipients.
func WithCC(addresses ...string) SendOption {
	return internal.WithCC(addresses...)
}

// WithBCC adds blind carbon copy recipients.
func WithBCC(addresses ...string) SendOption {
	return internal.WithBCC(addresses...)
}

// WithAttachments attaches files.
func WithAttachments(attachments ...Attachment) SendOption {
	return internal.WithAttachments(attachments...)
}

// Render options

// WithoutEmogrify keeps <style> blocks instead of inlining them.
func WithoutEmogrify() RenderOption {
	return internal.WithoutEmogrify()
}
