package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by Service matches one of them with errors.Is.
var (
	ErrConfiguration    = errors.New("templatemailer: configuration error")
	ErrTemplateNotFound = errors.New("templatemailer: template not found")
	ErrRenderFailed     = errors.New("templatemailer: failed to render template")
	ErrTransport        = errors.New("templatemailer: transport failed")
	ErrNoRecipient      = errors.New("templatemailer: email must have at least one recipient")
)

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	// Path is the settings path that was consulted, e.g.
	// "TemplateMailer.senderAddresses.default".
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Path, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func configError(path, format string, args ...any) error {
	return &ConfigurationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// TemplateNotFoundError reports that no template package contains the template.
type TemplateNotFoundError struct {
	Template string
	// Checked lists every package consulted, in search order.
	Checked []string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q (checked packages: %s)", ErrTemplateNotFound, e.Template, strings.Join(e.Checked, ", "))
}

func (e *TemplateNotFoundError) Unwrap() error {
	return ErrTemplateNotFound
}
