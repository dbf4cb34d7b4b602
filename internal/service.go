package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/templatemailer/pkg/cache"
	"github.com/dmitrymomot/templatemailer/pkg/logger"
	"github.com/dmitrymomot/templatemailer/pkg/mailer"
	"github.com/dmitrymomot/templatemailer/pkg/markdown"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
	"github.com/dmitrymomot/templatemailer/pkg/sanitizer"
)

// SendRequest describes one templated email.
type SendRequest struct {
	Variables   map[string]any
	Sender      SenderRef
	Template    string
	Subject     string
	To          []string
	CC          []string
	BCC         []string
	Attachments []mailer.Attachment
}

// Service renders email templates from template packages and sends them.
// It is safe for concurrent use.
type Service struct {
	transport  mailer.Transport
	source     ConfigurationSource
	loader     resource.Loader
	renderer   TemplateRenderer
	inliner    CSSInliner
	markdown   *markdown.Converter
	lookup     *cache.Lookup
	metrics    *metrics.Metrics
	logger     *slog.Logger
	locator    *TemplateLocator
	dispatcher *MailDispatcher
	root       string
	config     Config
}

// New creates a Service sending through transport and configured from the
// settings below the root path of src.
func New(transport mailer.Transport, src ConfigurationSource, opts ...Option) (*Service, error) {
	s := &Service{
		transport: transport,
		source:    src,
		root:      DefaultRootPath,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.NewNope()
	}
	if transport == nil {
		return nil, configError("", "mail transport is required")
	}
	if s.loader == nil {
		return nil, configError("", "template resource loader is required")
	}

	cfg, err := DecodeConfig(src, s.root)
	if err != nil {
		return nil, err
	}
	s.config = cfg

	if cfg.Logging.SendingSuccess == PolicyThrow {
		s.logger.Warn("sending success cannot throw, treating the policy as none",
			slog.String("path", cfg.path("logging.sendingSuccess")),
		)
	}

	if s.renderer == nil {
		s.renderer = NewBodyRenderer(s.loader, BodyRendererConfig{
			Inliner:      s.inliner,
			Markdown:     s.markdown,
			Metrics:      s.metrics,
			DisableCache: !*cfg.CacheTemplates,
		})
	}
	s.locator = NewTemplateLocator(s.loader, cfg, s.lookup, s.metrics, s.logger)
	s.dispatcher = NewMailDispatcher(transport, cfg.Logging, s.metrics, s.logger)

	return s, nil
}

// Config returns the decoded configuration.
func (s *Service) Config() Config {
	return s.config
}

// SendTemplateEmail renders the template and sends it to recipients.
// It reports whether every recipient was accepted. A failed or partial
// delivery returns false and a nil error unless the sendingErrors policy
// is throw and the transport failed.
//
// Example:
//
//	ok, err := svc.SendTemplateEmail(ctx, "Welcome", "Welcome aboard",
//	    []string{"alice@example.com"},
//	    map[string]any{"name": "Alice"},
//	    templatemailer.FromSender("support"),
//	)
func (s *Service) SendTemplateEmail(ctx context.Context, templateName, subject string, recipients []string, variables map[string]any, opts ...SendOption) (bool, error) {
	req := SendRequest{
		Template:  templateName,
		Subject:   subject,
		To:        recipients,
		Variables: variables,
		Sender:    NamedSender(DefaultSender),
	}
	for _, opt := range opts {
		opt(&req)
	}
	return s.Send(ctx, req)
}

// Send renders and sends req. See SendTemplateEmail.
func (s *Service) Send(ctx context.Context, req SendRequest) (bool, error) {
	if len(req.To)+len(req.CC)+len(req.BCC) == 0 {
		return false, ErrNoRecipient
	}

	ctx = logger.WithAttrs(ctx, slog.String("template", req.Template))

	pkg, err := s.LocateTemplate(ctx, req.Template)
	if err != nil {
		return false, err
	}

	variables := s.TemplateVariables(req.Variables)
	text, html, err := s.renderBodies(ctx, pkg, req.Template, variables)
	if err != nil {
		return false, err
	}

	sender, err := s.ResolveSender(req.Sender)
	if err != nil {
		return false, err
	}

	msg := &mailer.Message{
		From:        sender,
		ID:          mailer.NewMessageID(sender.Domain()),
		To:          req.To,
		CC:          req.CC,
		BCC:         req.BCC,
		Subject:     req.Subject,
		Text:        text,
		HTML:        html,
		Attachments: req.Attachments,
		Tags:        mailer.Tags{"template": req.Template},
	}

	outcome, err := s.dispatcher.Dispatch(ctx, req.Template, msg)
	if err != nil {
		return false, err
	}
	return outcome.Success, nil
}

// renderBodies renders the html and txt variants. Without a txt variant the
// plaintext is derived from the html when plaintextFallback is enabled.
func (s *Service) renderBodies(ctx context.Context, pkg, name string, variables map[string]any) (string, string, error) {
	html, err := s.renderer.Render(ctx, RenderInput{
		Package:   pkg,
		Template:  name,
		Format:    "html",
		Variables: variables,
		Emogrify:  true,
	})
	if err != nil {
		return "", "", err
	}

	text, err := s.renderer.Render(ctx, RenderInput{
		Package:   pkg,
		Template:  name,
		Format:    "txt",
		Variables: variables,
		Emogrify:  true,
	})
	if err != nil {
		if !errors.Is(err, ErrTemplateNotFound) || !*s.config.PlaintextFallback {
			return "", "", err
		}
		s.logger.DebugContext(ctx, "plaintext template missing, deriving text from html",
			slog.String("package", pkg),
		)
		text = sanitizer.PlainText(html)
	}

	return text, html, nil
}

// RenderEmailBody renders one variant of a template from the given package.
// Variables are used as given: default template variables are not merged,
// use TemplateVariables for that. htm and html output has its CSS inlined
// unless WithoutEmogrify is passed.
func (s *Service) RenderEmailBody(ctx context.Context, templateName, templatePackage, format string, variables map[string]any, opts ...RenderOption) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: empty format", ErrRenderFailed)
	}

	in := RenderInput{
		Package:   templatePackage,
		Template:  templateName,
		Format:    format,
		Variables: variables,
		Emogrify:  true,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return s.renderer.Render(ctx, in)
}

// LocateTemplate returns the first configured template package that
// provides the template.
func (s *Service) LocateTemplate(ctx context.Context, templateName string) (string, error) {
	return s.locator.Locate(ctx, templateName)
}

// ResolveSender turns a sender reference into an address.
func (s *Service) ResolveSender(ref SenderRef) (mailer.Address, error) {
	return s.config.resolveSender(ref)
}

// TemplateVariables returns variables merged over the configured default
// template variables. Caller values win.
func (s *Service) TemplateVariables(variables map[string]any) map[string]any {
	return s.config.templateVariables(s.source, variables)
}
