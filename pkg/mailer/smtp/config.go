package smtp

import "time"

// Security selects how the connection to the SMTP server is protected.
type Security string

const (
	// SecurityStartTLS upgrades a plain connection with STARTTLS (port 587).
	SecurityStartTLS Security = "starttls"
	// SecurityTLS uses implicit TLS from the first byte (port 465).
	SecurityTLS Security = "tls"
	// SecurityNone sends everything in clear text. Use only for local relays.
	SecurityNone Security = "none"
)

// Config holds SMTP transport configuration.
type Config struct {
	Host               string        `yaml:"host"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Security           Security      `yaml:"security"`
	LocalName          string        `yaml:"localName"`
	Port               int           `yaml:"port"`
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
}

func (c *Config) applyDefaults() {
	if c.Security == "" {
		c.Security = SecurityStartTLS
	}
	if c.Port == 0 {
		switch c.Security {
		case SecurityTLS:
			c.Port = 465
		case SecurityNone:
			c.Port = 25
		default:
			c.Port = 587
		}
	}
	if c.LocalName == "" {
		c.LocalName = "localhost"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}
