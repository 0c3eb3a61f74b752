package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/sessionkit/logger"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Environments accepted by ServiceConfig.
var Environments = []string{EnvDevelopment, EnvStaging, EnvProduction}

// ServiceConfig is embedded (mapstructure squash) by every top-level config:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    API httpclient.Config `yaml:"api" mapstructure:"api"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

func (c *ServiceConfig) IsProduction() bool { return c.Environment == EnvProduction }

// ApplyDefaults names the service "sessionkit" in development. Development
// forces Debug on; production logs JSON unless a format is set.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "sessionkit"
	}
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	switch c.Environment {
	case EnvDevelopment:
		c.Debug = true
	case EnvProduction:
		if c.Logging.Format == "" {
			c.Logging.Format = logger.FormatJSON
		}
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if !slices.Contains(Environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
