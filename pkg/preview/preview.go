// Package preview serves rendered email templates over HTTP so designers can
// check them in a browser.
//
//	GET /{template}.{format}            first package providing the template
//	GET /{package}/{template}.{format}  the given package
//
// Query parameters become template variables on top of the configured
// default variables. The reserved parameter emogrify=false skips CSS inlining.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/templatemailer"
	"github.com/dmitrymomot/templatemailer/pkg/logger"
)

// Renderer is the part of templatemailer.Service the preview needs.
type Renderer interface {
	LocateTemplate(ctx context.Context, templateName string) (string, error)
	TemplateVariables(variables map[string]any) map[string]any
	RenderEmailBody(ctx context.Context, templateName, templatePackage, format string, variables map[string]any, opts ...templatemailer.RenderOption) (string, error)
}

// Handler renders templates on request.
type Handler struct {
	renderer Renderer
	logger   *slog.Logger
	router   chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for render failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a preview handler.
func New(r Renderer, opts ...Option) *Handler {
	h := &Handler{
		renderer: r,
		logger:   logger.NewNope(),
		router:   chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.router.Use(RequestID, Recover(h.logger))
	h.router.Get("/{template}.{format}", h.render)
	h.router.Get("/{package}/{template}.{format}", h.render)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "template")
	format := chi.URLParam(r, "format")
	pkg := chi.URLParam(r, "package")

	if pkg == "" {
		found, err := h.renderer.LocateTemplate(ctx, name)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		pkg = found
	}

	var opts []templatemailer.RenderOption
	vars := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "emogrify" {
			if on, err := strconv.ParseBool(values[0]); err == nil && !on {
				opts = append(opts, templatemailer.WithoutEmogrify())
			}
			continue
		}
		vars[key] = values[0]
	}

	body, err := h.renderer.RenderEmailBody(ctx, name, pkg, format, h.renderer.TemplateVariables(vars), opts...)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("X-Template-Package", pkg)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(body))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, templatemailer.ErrTemplateNotFound) {
		status = http.StatusNotFound
	}

	h.logger.WarnContext(r.Context(), "preview failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	http.Error(w, err.Error(), status)
}

func contentType(format string) string {
	switch format {
	case "html", "htm":
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
