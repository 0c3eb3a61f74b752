// Package encryption seals persisted session values with an AEAD cipher.
//
// The key is derived from a passphrase with HKDF-SHA256, so the same
// passphrase opens values written by any process. Sealed output carries a
// format byte and the nonce, and is stored as-is by byte-oriented backends.
//
//	enc, err := encryption.New("passphrase")
//	sealed, err := enc.Encrypt([]byte(`{"tokens":3}`))
//	plain, err := enc.Decrypt(sealed)
package encryption
