package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/sessionkit/encryption"
)

// Encrypted seals every value with an AEAD before handing it to the inner
// backend. A value that fails to open is reported as an error, which stores
// treat like any other unreadable state.
type Encrypted struct {
	inner Storage
	enc   encryption.Encryptor
}

// NewEncrypted wraps inner with enc.
func NewEncrypted(inner Storage, enc encryption.Encryptor) *Encrypted {
	return &Encrypted{inner: inner, enc: enc}
}

// Get reads and decrypts the value under key.
func (e *Encrypted) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := e.enc.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("storage: decrypt %q: %w", key, err)
	}
	return plain, nil
}

// Set encrypts value and writes it under key.
func (e *Encrypted) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := e.enc.Encrypt(value)
	if err != nil {
		return fmt.Errorf("storage: encrypt %q: %w", key, err)
	}
	return e.inner.Set(ctx, key, sealed)
}

// Delete removes key from the inner backend.
func (e *Encrypted) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

// Close closes the inner backend.
func (e *Encrypted) Close() error { return e.inner.Close() }

var _ Storage = (*Encrypted)(nil)
