package storage

import (
	"fmt"
	"sync"

	"github.com/kbukum/sessionkit/encryption"
	"github.com/kbukum/sessionkit/logger"
)

// Factory creates a Storage implementation from config. Backend packages
// register one in an init function.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		ProviderMemory: func(Config, *logger.Logger) (Storage, error) { return NewMemory(), nil },
	}
)

// RegisterFactory registers a storage backend factory for the given provider name.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates the Storage selected by cfg.Provider. Import the backend
// package (e.g. _ "github.com/kbukum/sessionkit/storage/redis") so its
// factory is registered. Key prefixing and encryption are layered on top.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := log.WithComponent("storage")

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing storage", map[string]interface{}{
		"provider":  cfg.Provider,
		"encrypted": cfg.EncryptionKey != "",
	})

	s, err := f(cfg, l)
	if err != nil {
		return nil, err
	}
	if cfg.KeyPrefix != "" {
		s = WithPrefix(s, cfg.KeyPrefix)
	}
	if cfg.EncryptionKey != "" {
		alg, err := encryption.ParseAlgorithm(cfg.EncryptionAlgorithm)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("storage: %w", err)
		}
		enc, err := encryption.New(cfg.EncryptionKey, encryption.WithAlgorithm(alg))
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("storage: encryption: %w", err)
		}
		s = NewEncrypted(s, enc)
	}
	return s, nil
}
