// Package cache provides small TTL caches for process-local and shared state.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Cache defines the interface for cache implementations.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key from the cache.
	Delete(ctx context.Context, key string) error

	// Sweep removes expired entries and returns how many were dropped.
	// Stores that expire keys on their own return 0.
	Sweep(ctx context.Context) (int, error)
}

var (
	ErrNotFound = errors.New("cache: key not found")
)

// GetJSON retrieves and unmarshals a JSON value.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var result T
	data, err := c.Get(ctx, key)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}

// SetJSON marshals and stores a value as JSON.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
