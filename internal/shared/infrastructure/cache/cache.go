// Package cache provides a TTL key-value cache for JSON-serializable values,
// used to avoid redundant external lookups within and across brief runs.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON-serializable values under string keys with a TTL.
// A missing key is reported through the found flag, never as an error.
type Cache interface {
	// GetJSON unmarshals the value stored under key into dest.
	// Returns false when the key is absent or expired.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)

	// SetJSON marshals v and stores it under key for ttl.
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Key joins parts into a namespaced cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
