package internal

import (
	"sort"
	"strconv"

	"github.com/dmitrymomot/templatemailer/pkg/settings"
)

// DefaultRootPath is the settings path holding the mailer configuration.
const DefaultRootPath = "TemplateMailer"

// DefaultSender is the symbolic sender used when a send names none.
const DefaultSender = "default"

// ConfigurationSource resolves dotted settings paths.
// *settings.Settings satisfies it.
type ConfigurationSource interface {
	Get(path string) (any, bool)
}

// Policy controls what happens when sending fails or succeeds.
type Policy string

const (
	PolicyNone  Policy = "none"
	PolicyLog   Policy = "log"
	PolicyThrow Policy = "throw"
)

func (p Policy) valid() bool {
	switch p {
	case PolicyNone, PolicyLog, PolicyThrow:
		return true
	}
	return false
}

// SenderAddress is a configured sender identity.
type SenderAddress struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
}

// LoggingConfig holds the send outcome policies.
type LoggingConfig struct {
	SendingErrors  Policy `yaml:"sendingErrors"`
	SendingSuccess Policy `yaml:"sendingSuccess"`
}

// Config is the decoded, immutable mailer configuration.
type Config struct {
	SenderAddresses          map[string]SenderAddress `yaml:"senderAddresses"`
	TemplatePackages         map[string]string        `yaml:"templatePackages"`
	DefaultTemplateVariables map[string]string        `yaml:"defaultTemplateVariables"`
	PlaintextFallback        *bool                    `yaml:"plaintextFallback"`
	CacheTemplates           *bool                    `yaml:"cacheTemplates"`
	Logging                  LoggingConfig            `yaml:"logging"`

	// root is the settings path the config was read from; used in error messages.
	root string
}

// DecodeConfig reads the mailer configuration below root. A missing root
// yields an empty configuration: problems surface when a value is needed.
func DecodeConfig(src ConfigurationSource, root string) (Config, error) {
	if root == "" {
		root = DefaultRootPath
	}

	cfg := Config{root: root}
	if src != nil {
		if raw, ok := src.Get(root); ok && raw != nil {
			if err := settings.DecodeValue(raw, &cfg); err != nil {
				return Config{}, configError(root, "cannot decode settings: %v", err)
			}
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.SendingErrors == "" {
		c.Logging.SendingErrors = PolicyLog
	}
	if c.Logging.SendingSuccess == "" {
		c.Logging.SendingSuccess = PolicyNone
	}
	if c.PlaintextFallback == nil {
		c.PlaintextFallback = boolPtr(true)
	}
	if c.CacheTemplates == nil {
		c.CacheTemplates = boolPtr(true)
	}
}

func (c Config) validate() error {
	if !c.Logging.SendingErrors.valid() {
		return configError(c.path("logging.sendingErrors"), "unknown policy %q (want none, log or throw)", c.Logging.SendingErrors)
	}
	if !c.Logging.SendingSuccess.valid() {
		return configError(c.path("logging.sendingSuccess"), "unknown policy %q (want none, log or throw)", c.Logging.SendingSuccess)
	}
	return nil
}

func (c Config) path(rel string) string {
	root := c.root
	if root == "" {
		root = DefaultRootPath
	}
	return root + "." + rel
}

// Packages returns the template package ids in search order: integer keys
// in numeric order first, then the remaining keys lexicographically.
func (c Config) Packages() []string {
	keys := make([]string, 0, len(c.TemplatePackages))
	for k := range c.TemplatePackages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})

	packages := make([]string, 0, len(keys))
	for _, k := range keys {
		if pkg := c.TemplatePackages[k]; pkg != "" {
			packages = append(packages, pkg)
		}
	}
	return packages
}

// lessKey orders integer keys numerically ahead of all other keys, which
// compare lexicographically.
func lessKey(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return ai < bi
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

func boolPtr(b bool) *bool { return &b }
