package httpclient

import (
	"fmt"
	"net/url"
	"time"
)

// Config configures the HTTP transport.
type Config struct {
	// BaseURL is joined with every relative request path.
	BaseURL   string            `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Headers   map[string]string `yaml:"headers" mapstructure:"headers"`
	UserAgent string            `yaml:"user_agent" mapstructure:"user_agent"`
	// MaxBodySize caps the bytes read from a response; the rest is dropped.
	MaxBodySize int64 `yaml:"max_body_size" mapstructure:"max_body_size"`
}

// ApplyDefaults sets a 30s timeout and a 10 MiB body cap.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = 10 << 20
	}
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("httpclient: timeout must not be negative")
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("httpclient: max_body_size must not be negative")
	}
	if c.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("httpclient: base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("httpclient: base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	return nil
}
