package client

import (
	"fmt"
	"time"

	"github.com/kbukum/sessionkit/analytics"
	"github.com/kbukum/sessionkit/api"
	"github.com/kbukum/sessionkit/config"
	"github.com/kbukum/sessionkit/httpclient"
	"github.com/kbukum/sessionkit/listings"
	"github.com/kbukum/sessionkit/observability"
	"github.com/kbukum/sessionkit/refresh"
	"github.com/kbukum/sessionkit/session"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/version"
)

// Config is the complete client configuration.
//
//	name: web
//	api:
//	  base_url: https://api.example.com
//	  timeout: 30s
//	storage:
//	  provider: local
//	  base_path: ./data
//	accounts:
//	  member:
//	    refresh_interval: 5m
//	cache:
//	  ttl: 15m
//	locale: es
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API           httpclient.Config    `yaml:"api" mapstructure:"api"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Accounts      AccountsConfig       `yaml:"accounts" mapstructure:"accounts"`
	Cache         listings.Config      `yaml:"cache" mapstructure:"cache"`
	Analytics     analytics.Config     `yaml:"analytics" mapstructure:"analytics"`
	Locale        string               `yaml:"locale" mapstructure:"locale"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// AccountsConfig holds one AccountConfig per account kind.
type AccountsConfig struct {
	Escort AccountConfig `yaml:"escort" mapstructure:"escort"`
	Member AccountConfig `yaml:"member" mapstructure:"member"`
}

// AccountConfig configures the API prefix, persistence and refresh of one
// account kind.
type AccountConfig struct {
	BasePath        string        `yaml:"base_path" mapstructure:"base_path"`
	RefreshPath     string        `yaml:"refresh_path" mapstructure:"refresh_path"`
	StorageKey      string        `yaml:"storage_key" mapstructure:"storage_key"`
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	// RefreshOnStart is tri-state so an explicit false survives defaults.
	RefreshOnStart *bool `yaml:"refresh_on_start" mapstructure:"refresh_on_start"`
}

func (a *AccountConfig) applyDefaults(basePath, key string, interval time.Duration, onStart bool) {
	if a.BasePath == "" {
		a.BasePath = basePath
	}
	if a.RefreshPath == "" {
		a.RefreshPath = api.DefaultRefreshPath
	}
	if a.StorageKey == "" {
		a.StorageKey = key
	}
	if a.RefreshInterval <= 0 {
		a.RefreshInterval = interval
	}
	if a.RefreshOnStart == nil {
		a.RefreshOnStart = &onStart
	}
}

// ApplyDefaults fills zero values of every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	if c.API.UserAgent == "" {
		c.API.UserAgent = version.UserAgent()
	}
	c.Storage.ApplyDefaults()
	c.Accounts.Escort.applyDefaults(api.EscortBasePath, session.EscortStorageKey, refresh.DefaultEscortInterval, false)
	c.Accounts.Member.applyDefaults(api.MemberBasePath, session.MemberStorageKey, refresh.DefaultMemberInterval, true)
	c.Cache.ApplyDefaults()
	c.Analytics.ApplyDefaults()
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if c.Accounts.Escort.StorageKey == c.Accounts.Member.StorageKey {
		return fmt.Errorf("accounts: escort and member must use different storage keys")
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}
