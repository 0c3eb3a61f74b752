package redis

import (
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config tunes the redis client. Addr is either host:port or a
// redis:// / rediss:// URL; a URL's credentials and db win over the fields.
type Config struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ApplyDefaults fills zero fields. Auth records are tiny so the pool stays small.
func (c *Config) ApplyDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = 4
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 2 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 2 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis: addr is required")
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("redis: pool_size must be positive, got %d", c.PoolSize)
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("redis: timeouts must not be negative")
	}
	if isURL(c.Addr) {
		if _, err := goredis.ParseURL(c.Addr); err != nil {
			return fmt.Errorf("redis: parse addr: %w", err)
		}
	}
	return nil
}

func (c *Config) options() *goredis.Options {
	opts := &goredis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
	if isURL(c.Addr) {
		if parsed, err := goredis.ParseURL(c.Addr); err == nil {
			opts = parsed
		}
	}
	opts.PoolSize = c.PoolSize
	opts.MaxRetries = c.MaxRetries
	opts.DialTimeout = c.DialTimeout
	opts.ReadTimeout = c.ReadTimeout
	opts.WriteTimeout = c.WriteTimeout
	return opts
}

func isURL(addr string) bool {
	return strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://")
}
