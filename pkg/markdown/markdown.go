// Package markdown converts markdown fragments used inside email templates.
//
// Besides CommonMark it understands a button syntax for calls to action:
//
//	[!button|Verify email](https://example.com/verify?token=abc)
//
// which renders as <a href="..." class="btn" target="_blank">Verify email</a>.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultButtonClass is the CSS class put on rendered buttons.
const DefaultButtonClass = "btn"

// ErrConvertFailed is returned when markdown cannot be converted.
var ErrConvertFailed = errors.New("markdown: conversion failed")

// Converter renders markdown to HTML. Safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

type config struct {
	buttonClass string
	gfm         bool
}

// Option configures a Converter.
type Option func(*config)

// WithButtonClass sets the CSS class of rendered buttons.
func WithButtonClass(class string) Option {
	return func(c *config) {
		c.buttonClass = class
	}
}

// WithoutGFM disables GitHub Flavored Markdown (tables, strikethrough, autolinks).
func WithoutGFM() Option {
	return func(c *config) {
		c.gfm = false
	}
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	cfg := config{buttonClass: DefaultButtonClass, gfm: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	exts := []goldmark.Extender{NewButtonExtension(cfg.buttonClass)}
	if cfg.gfm {
		exts = append(exts, extension.GFM)
	}

	return &Converter{md: goldmark.New(goldmark.WithExtensions(exts...))}
}

// Convert renders source to an HTML fragment.
func (c *Converter) Convert(source string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConvertFailed, err)
	}
	return buf.String(), nil
}

// HTML is the template function for HTML templates. The result is trusted
// markup, so html/template does not escape it again.
func (c *Converter) HTML(source string) (template.HTML, error) {
	out, err := c.Convert(source)
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil //nolint:gosec // goldmark escapes raw HTML by default
}

// Text is the template function for plaintext templates: markdown is
// already readable as plain text, so the source is returned as is.
func (c *Converter) Text(source string) string {
	return source
}
