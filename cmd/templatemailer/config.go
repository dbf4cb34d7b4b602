package main

import (
	"time"

	"github.com/dmitrymomot/templatemailer/pkg/logger"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/resend"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/sendgrid"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/ses"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/smtp"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
)

// cliConfig holds the settings the command needs on top of the mailer
// configuration. It lives below the same root path.
type cliConfig struct {
	Transport   transportConfig   `yaml:"transport"`
	Resources   resourcesConfig   `yaml:"resources"`
	LookupCache lookupCacheConfig `yaml:"lookupCache"`
	Log         logger.Config     `yaml:"log"`
	Metrics     metricsConfig     `yaml:"metrics"`
	Server      serverConfig      `yaml:"server"`
}

type transportConfig struct {
	// Type is smtp, ses, sendgrid, resend or stdout (default).
	Type     string          `yaml:"type"`
	SMTP     smtp.Config     `yaml:"smtp"`
	SES      ses.Config      `yaml:"ses"`
	SendGrid sendgrid.Config `yaml:"sendgrid"`
	Resend   resend.Config   `yaml:"resend"`
}

type resourcesConfig struct {
	// Type is dir (default) or s3.
	Type string            `yaml:"type"`
	Dir  string            `yaml:"dir"`
	S3   resource.S3Config `yaml:"s3"`
}

type lookupCacheConfig struct {
	// Type is none (default), memory or redis.
	Type     string        `yaml:"type"`
	TTL      time.Duration `yaml:"ttl"`
	RedisURL string        `yaml:"redisUrl"`
	Prefix   string        `yaml:"prefix"`
}

type metricsConfig struct {
	Namespace string `yaml:"namespace"`
}

type serverConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

func (c *cliConfig) applyDefaults() {
	if c.Transport.Type == "" {
		c.Transport.Type = "stdout"
	}
	if c.Resources.Type == "" {
		c.Resources.Type = "dir"
	}
	if c.Resources.Dir == "" {
		c.Resources.Dir = "packages"
	}
	if c.LookupCache.Type == "" {
		c.LookupCache.Type = "none"
	}
	if c.LookupCache.TTL <= 0 {
		c.LookupCache.TTL = 10 * time.Minute
	}
	if c.LookupCache.Prefix == "" {
		c.LookupCache.Prefix = "templatemailer"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
}
