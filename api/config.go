package api

import (
	"fmt"
	"strings"
)

// Default paths.
const (
	EscortBasePath     = "/escort"
	MemberBasePath     = "/users"
	DefaultRefreshPath = "/refresh-jwt"
	DefaultLogoutPath  = "/logout"
)

// Config configures a Client.
type Config struct {
	// Name identifies the account kind in logs and metrics.
	Name string `mapstructure:"name"`
	// BasePath prefixes every request path, e.g. "/escort".
	BasePath string `mapstructure:"base_path"`
	// RefreshPath is the credentials refresh endpoint under BasePath.
	RefreshPath string `mapstructure:"refresh_path"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.RefreshPath == "" {
		c.RefreshPath = DefaultRefreshPath
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("api: name is required")
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("api: base_path must start with '/', got %q", c.BasePath)
	}
	return nil
}
