// Package storage provides the persisted key-value storage that sessionkit
// stores mirror their state into, with pluggable backends.
//
// Values are opaque byte slices (stores write JSON). A missing key is
// reported as ErrNotFound so callers can tell "no prior state" apart from
// an explicit value.
//
// # Backends
//
//   - memory: in-process map, also used as the ephemeral session storage
//   - storage/local: one file per key under a base directory
//   - storage/redis: Redis via go-redis
//   - storage/sqlite: a single sqlite table via modernc.org/sqlite
//   - storage/s3: one object per key in an S3 or S3-compatible bucket
//
// Setting encryption_key wraps the selected backend in an AEAD-encrypting
// decorator.
//
// # Configuration
//
//	storage:
//	  provider: "local"
//	  base_path: "/var/lib/sessionkit"
//	  encryption_key: "${STORAGE_ENCRYPTION_KEY}"
package storage
