// Package cache keeps TTL-bounded JSON payloads in a storage.Storage.
//
// Each entry is stored as {"<field>": payload, "timestamp": unix-ms}. A read
// that finds an entry at or past its TTL, or one that cannot be decoded,
// deletes it before reporting a miss.
package cache
