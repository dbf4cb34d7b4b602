package internal

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"slices"

	"github.com/dmitrymomot/templatemailer/pkg/cache"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
)

// TemplatesDir is the directory inside package resources holding email templates.
const TemplatesDir = "Private/EmailTemplates"

// TemplatePath returns the resource path of a template variant.
func TemplatePath(name, format string) string {
	return path.Join(TemplatesDir, name+"."+format)
}

// TemplateLocator finds the first template package providing a template.
// A package provides a template when it has the html variant.
type TemplateLocator struct {
	loader       resource.Loader
	lookup       *cache.Lookup
	metrics      *metrics.Metrics
	logger       *slog.Logger
	packagesPath string
	packages     []string
}

// NewTemplateLocator creates a locator searching packages in the given order.
// lookup may be nil to scan on every call.
func NewTemplateLocator(loader resource.Loader, cfg Config, lookup *cache.Lookup, m *metrics.Metrics, log *slog.Logger) *TemplateLocator {
	return &TemplateLocator{
		loader:       loader,
		lookup:       lookup,
		metrics:      m,
		logger:       log,
		packagesPath: cfg.path("templatePackages"),
		packages:     cfg.Packages(),
	}
}

// Locate returns the id of the first package containing the template.
func (l *TemplateLocator) Locate(ctx context.Context, name string) (string, error) {
	if len(l.packages) == 0 {
		return "", configError(l.packagesPath, "no template packages configured")
	}

	if l.lookup == nil {
		l.metrics.ObserveLookup(false)
		return l.scan(ctx, name)
	}

	pkg, hit, err := l.lookup.GetOrSet(ctx, "template:"+name, func(ctx context.Context) (string, error) {
		return l.scan(ctx, name)
	})
	if err != nil {
		return "", err
	}
	l.metrics.ObserveLookup(hit)
	return pkg, nil
}

func (l *TemplateLocator) scan(ctx context.Context, name string) (string, error) {
	target := TemplatePath(name, "html")

	for _, pkg := range l.packages {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		fsys, err := l.loader.Open(ctx, pkg)
		if err != nil {
			l.logger.DebugContext(ctx, "template package unavailable",
				slog.String("package", pkg),
				slog.String("error", err.Error()),
			)
			continue
		}

		if info, err := fs.Stat(fsys, target); err == nil && !info.IsDir() {
			return pkg, nil
		}
	}

	return "", &TemplateNotFoundError{Template: name, Checked: slices.Clone(l.packages)}
}
