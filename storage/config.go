package storage

import (
	"fmt"

	"github.com/kbukum/sessionkit/encryption"
)

// Provider constants for supported storage backends.
const (
	ProviderMemory = "memory"
	ProviderLocal  = "local"
	ProviderRedis  = "redis"
	ProviderSQLite = "sqlite"
	ProviderS3     = "s3"
)

// Default configuration values.
const (
	DefaultProvider   = ProviderMemory
	DefaultBasePath   = "./.sessionkit"
	DefaultSQLitePath = "./.sessionkit/state.db"
	DefaultRedisAddr  = "localhost:6379"
	DefaultS3Region   = "us-east-1"
)

// Config holds storage configuration. Provider-specific fields are ignored by
// the other providers.
type Config struct {
	// Provider selects the backend: "memory", "local", "redis" or "sqlite".
	Provider string `mapstructure:"provider" json:"provider"`

	// KeyPrefix namespaces every key written by this process.
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix"`

	// EncryptionKey enables value encryption at rest when non-empty.
	EncryptionKey string `mapstructure:"encryption_key" json:"-"`

	// EncryptionAlgorithm is "chacha20-poly1305" (default) or "aes-256-gcm".
	EncryptionAlgorithm string `mapstructure:"encryption_algorithm" json:"encryption_algorithm"`

	// BasePath is the root directory for the local provider.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Addr is the Redis server address (host:port).
	Addr string `mapstructure:"addr" json:"addr"`

	// Password is the Redis server password.
	Password string `mapstructure:"password" json:"-"`

	// DB is the Redis database number.
	DB int `mapstructure:"db" json:"db"`

	// Path is the sqlite database file.
	Path string `mapstructure:"path" json:"path"`

	// Bucket, Region and Endpoint locate the s3 provider's bucket. Endpoint
	// is set for S3-compatible services such as MinIO.
	Bucket   string `mapstructure:"bucket" json:"bucket"`
	Region   string `mapstructure:"region" json:"region"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey and SecretKey are static credentials; empty falls back to
	// the default AWS credential chain.
	AccessKey string `mapstructure:"access_key" json:"-"`
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// ForcePathStyle addresses the bucket in the path instead of the host.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			c.BasePath = DefaultBasePath
		}
	case ProviderRedis:
		if c.Addr == "" {
			c.Addr = DefaultRedisAddr
		}
	case ProviderSQLite:
		if c.Path == "" {
			c.Path = DefaultSQLitePath
		}
	case ProviderS3:
		if c.Region == "" {
			c.Region = DefaultS3Region
		}
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMemory:
	case ProviderLocal:
		if c.BasePath == "" {
			return fmt.Errorf("storage: base_path is required for local provider")
		}
	case ProviderRedis:
		if c.Addr == "" {
			return fmt.Errorf("storage: addr is required for redis provider")
		}
	case ProviderSQLite:
		if c.Path == "" {
			return fmt.Errorf("storage: path is required for sqlite provider")
		}
	case ProviderS3:
		if c.Bucket == "" {
			return fmt.Errorf("storage: bucket is required for s3 provider")
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if c.EncryptionKey != "" {
		if _, err := encryption.ParseAlgorithm(c.EncryptionAlgorithm); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}
