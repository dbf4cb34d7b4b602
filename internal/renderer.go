package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/dmitrymomot/templatemailer/pkg/inliner"
	"github.com/dmitrymomot/templatemailer/pkg/markdown"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
)

// Directories below TemplatesDir whose templates are available to every
// template of the same format, named "Layouts/<name>" and "Partials/<name>".
const (
	LayoutsDir  = "Layouts"
	PartialsDir = "Partials"
)

// RenderInput describes one body render.
type RenderInput struct {
	Variables map[string]any
	Package   string
	Template  string
	Format    string
	// Emogrify inlines CSS for htm and html output.
	Emogrify bool
}

// TemplateRenderer renders a template variant to a string.
type TemplateRenderer interface {
	Render(ctx context.Context, in RenderInput) (string, error)
}

// CSSInliner moves <style> rules into inline style attributes.
type CSSInliner interface {
	Inline(html string) (string, error)
}

// BodyRendererConfig configures a BodyRenderer.
type BodyRendererConfig struct {
	Inliner  CSSInliner          // Default: inliner.New()
	Markdown *markdown.Converter // Default: markdown.New()
	Metrics  *metrics.Metrics
	// DisableCache parses templates on every render.
	DisableCache bool
}

// BodyRenderer renders Private/EmailTemplates/<name>.<format> from template
// packages. Formats htm and html use html/template, every other format
// text/template.
type BodyRenderer struct {
	loader    resource.Loader
	inliner   CSSInliner
	metrics   *metrics.Metrics
	htmlFuncs htmltemplate.FuncMap
	textFuncs texttemplate.FuncMap

	// Parsed templates, not rendered output.
	cache        map[string]*parsedTemplate
	cacheEnabled bool
	mu           sync.RWMutex
}

type executor interface {
	Execute(w io.Writer, data any) error
}

type parsedTemplate struct {
	tmpl     executor
	defaults map[string]any
}

type source struct {
	name string
	body string
}

// NewBodyRenderer creates a renderer reading templates through loader.
func NewBodyRenderer(loader resource.Loader, cfg BodyRendererConfig) *BodyRenderer {
	if cfg.Inliner == nil {
		cfg.Inliner = inliner.New()
	}
	if cfg.Markdown == nil {
		cfg.Markdown = markdown.New()
	}

	htmlFuncs := sprig.FuncMap()
	htmlFuncs["markdown"] = cfg.Markdown.HTML
	textFuncs := sprig.TxtFuncMap()
	textFuncs["markdown"] = cfg.Markdown.Text

	return &BodyRenderer{
		loader:       loader,
		inliner:      cfg.Inliner,
		metrics:      cfg.Metrics,
		htmlFuncs:    htmlFuncs,
		textFuncs:    textFuncs,
		cache:        make(map[string]*parsedTemplate),
		cacheEnabled: !cfg.DisableCache,
	}
}

// Render implements TemplateRenderer.
func (r *BodyRenderer) Render(ctx context.Context, in RenderInput) (string, error) {
	start := time.Now()
	out, err := r.render(ctx, in)
	r.metrics.ObserveRender(in.Template, in.Format, time.Since(start), err)
	return out, err
}

func (r *BodyRenderer) render(ctx context.Context, in RenderInput) (string, error) {
	tmpl, err := r.template(ctx, in.Package, in.Template, in.Format)
	if err != nil {
		return "", err
	}

	data := make(map[string]any, len(tmpl.defaults)+len(in.Variables))
	for k, v := range tmpl.defaults {
		data[k] = v
	}
	for k, v := range in.Variables {
		// An unresolved default arrives as nil and must not erase frontmatter.
		if _, ok := data[k]; ok && v == nil {
			continue
		}
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRenderFailed, templateID(in.Package, in.Template, in.Format), err)
	}

	body := buf.String()
	if in.Emogrify && isHTMLFormat(in.Format) {
		inlined, err := r.inliner.Inline(body)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, templateID(in.Package, in.Template, in.Format), err)
		}
		body = inlined
	}
	return body, nil
}

// template returns a cached template or parses and caches it.
// Parsing happens outside the lock since package resources may be remote.
func (r *BodyRenderer) template(ctx context.Context, pkg, name, format string) (*parsedTemplate, error) {
	key := templateID(pkg, name, format)

	if r.cacheEnabled {
		r.mu.RLock()
		cached, ok := r.cache[key]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	fsys, err := r.loader.Open(ctx, pkg)
	if err != nil {
		if errors.Is(err, resource.ErrPackageNotFound) || errors.Is(err, resource.ErrInvalidPackage) {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, key, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, key, err)
	}

	parsed, err := r.parse(fsys, name, format)
	if err != nil {
		return nil, err
	}

	if !r.cacheEnabled {
		return parsed, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}
	r.cache[key] = parsed
	return parsed, nil
}

// parse reads the layouts and partials of format first, then the template
// itself, so blocks the template defines replace the layout defaults.
func (r *BodyRenderer) parse(fsys fs.FS, name, format string) (*parsedTemplate, error) {
	p := TemplatePath(name, format)
	content, err := fs.ReadFile(fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, p)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrRenderFailed, p, err)
	}

	defaults, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, p, err)
	}

	var shared []source
	for _, dir := range []string{LayoutsDir, PartialsDir} {
		sources, err := readShared(fsys, dir, format)
		if err != nil {
			return nil, err
		}
		shared = append(shared, sources...)
	}

	var tmpl executor
	if isHTMLFormat(format) {
		tmpl, err = parseHTML(name, body, shared, r.htmlFuncs)
	} else {
		tmpl, err = parseText(name, body, shared, r.textFuncs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, p, err)
	}

	return &parsedTemplate{tmpl: tmpl, defaults: defaults}, nil
}

func parseHTML(name, body string, shared []source, funcs htmltemplate.FuncMap) (*htmltemplate.Template, error) {
	root := htmltemplate.New(name).Funcs(funcs)
	for _, s := range shared {
		if _, err := root.New(s.name).Parse(s.body); err != nil {
			return nil, err
		}
	}
	return root.Parse(body)
}

func parseText(name, body string, shared []source, funcs texttemplate.FuncMap) (*texttemplate.Template, error) {
	root := texttemplate.New(name).Funcs(funcs)
	for _, s := range shared {
		if _, err := root.New(s.name).Parse(s.body); err != nil {
			return nil, err
		}
	}
	return root.Parse(body)
}

// readShared returns the templates in TemplatesDir/dir with the given format.
// A missing directory yields no templates.
func readShared(fsys fs.FS, dir, format string) ([]source, error) {
	matches, err := fs.Glob(fsys, path.Join(TemplatesDir, dir, "*."+format))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, dir, err)
	}

	sources := make([]source, 0, len(matches))
	for _, m := range matches {
		content, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrRenderFailed, m, err)
		}
		sources = append(sources, source{
			name: dir + "/" + strings.TrimSuffix(path.Base(m), "."+format),
			body: string(content),
		})
	}
	return sources, nil
}

func isHTMLFormat(format string) bool {
	return strings.EqualFold(format, "html") || strings.EqualFold(format, "htm")
}

func templateID(pkg, name, format string) string {
	return pkg + "/" + name + "." + format
}
