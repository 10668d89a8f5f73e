// Package store provides the key-value adapter used by stateful tools.
//
// Backends are capability-gated at open time: asking for a backend this
// build does not support fails synchronously with a typed error instead of
// handing back a store that fails on every call.
package store

import (
	"context"
	"fmt"
)

// Store is a minimal key-value adapter.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// Known backend names. Only BackendMemory is implemented.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendVercelKV = "vercel-kv"
	BackendUpstash  = "upstash"
)

// UnsupportedBackendError indicates a backend this build cannot provide.
type UnsupportedBackendError struct {
	Backend string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported store backend: %s", e.Backend)
}

// Open returns the store for a backend name. The empty string selects the
// memory backend.
func Open(backend string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	default:
		return nil, &UnsupportedBackendError{Backend: backend}
	}
}
