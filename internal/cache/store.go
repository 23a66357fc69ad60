package cache

import (
	"context"
	"time"
)

// Store represents a shared cache interface used across the application.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// keyPrefix namespaces every key written by this service.
const keyPrefix = "kidsmove:"

func prefixed(key string) string {
	if len(key) >= len(keyPrefix) && key[:len(keyPrefix)] == keyPrefix {
		return key
	}
	return keyPrefix + key
}
