package store

import (
	"encoding/json"
)

// Codec converts state to and from its stored bytes.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// JSON is the default codec.
type JSON[T any] struct{}

// Marshal encodes v as JSON.
func (JSON[T]) Marshal(v T) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes JSON into a fresh T.
func (JSON[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// String stores a string value verbatim, without JSON quoting.
type String struct{}

// Marshal returns the raw bytes of v.
func (String) Marshal(v string) ([]byte, error) { return []byte(v), nil }

// Unmarshal returns data as a string.
func (String) Unmarshal(data []byte) (string, error) { return string(data), nil }
