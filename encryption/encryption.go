package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Encryptor seals and opens byte payloads.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(sealed []byte) ([]byte, error)
}

// Algorithm names an AEAD construction.
type Algorithm string

const (
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
)

// ParseAlgorithm maps a config value to an Algorithm. Empty selects ChaCha20.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmChaCha20:
		return AlgorithmChaCha20, nil
	case AlgorithmAESGCM:
		return AlgorithmAESGCM, nil
	}
	return "", fmt.Errorf("encryption: unsupported algorithm %q", s)
}

// ErrMalformed is returned by Decrypt for input that was not produced by
// Encrypt with the same algorithm.
var ErrMalformed = errors.New("encryption: malformed ciphertext")

// formatV1 prefixes every sealed value.
const formatV1 byte = 1

var kdfInfo = []byte("sessionkit storage v1")

type Option func(*Sealer)

// WithAlgorithm selects the AEAD. The default is ChaCha20-Poly1305.
func WithAlgorithm(alg Algorithm) Option {
	return func(s *Sealer) { s.alg = alg }
}

// Sealer encrypts with a key derived from a passphrase through HKDF-SHA256.
// Output is version||nonce||ciphertext.
type Sealer struct {
	alg  Algorithm
	aead cipher.AEAD
}

func New(passphrase string, opts ...Option) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("encryption: passphrase is required")
	}
	s := &Sealer{alg: AlgorithmChaCha20}
	for _, opt := range opts {
		opt(s)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, kdfInfo), key); err != nil {
		return nil, fmt.Errorf("encryption: derive key: %w", err)
	}

	var err error
	switch s.alg {
	case AlgorithmChaCha20:
		s.aead, err = chacha20poly1305.New(key)
	case AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			s.aead, err = cipher.NewGCM(block)
		}
	default:
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", s.alg)
	}
	if err != nil {
		return nil, fmt.Errorf("encryption: init %s: %w", s.alg, err)
	}
	return s, nil
}

// Algorithm reports the AEAD in use.
func (s *Sealer) Algorithm() Algorithm { return s.alg }

func (s *Sealer) Encrypt(plaintext []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	out := make([]byte, 1+ns, 1+ns+len(plaintext)+s.aead.Overhead())
	out[0] = formatV1
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, fmt.Errorf("encryption: nonce: %w", err)
	}
	return s.aead.Seal(out, out[1:], plaintext, nil), nil
}

func (s *Sealer) Decrypt(sealed []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(sealed) < 1+ns+s.aead.Overhead() || sealed[0] != formatV1 {
		return nil, ErrMalformed
	}
	plain, err := s.aead.Open(nil, sealed[1:1+ns], sealed[1+ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return plain, nil
}

var _ Encryptor = (*Sealer)(nil)
