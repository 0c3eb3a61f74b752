package storage

import "context"

type prefixed struct {
	inner  Storage
	prefix string
}

// WithPrefix namespaces every key of inner with prefix followed by a colon.
func WithPrefix(inner Storage, prefix string) Storage {
	return &prefixed{inner: inner, prefix: prefix}
}

func (p *prefixed) fullKey(key string) string {
	return p.prefix + ":" + key
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.fullKey(key))
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.inner.Set(ctx, p.fullKey(key), value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.fullKey(key))
}

func (p *prefixed) Close() error { return p.inner.Close() }
