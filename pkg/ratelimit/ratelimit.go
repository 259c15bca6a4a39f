// Package ratelimit implements fixed-window request counting per client key.
//
// A window opens on the first request for a key and lasts Window. Up to Max
// requests are allowed inside it; further requests are rejected without being
// counted. The first request after the window closes starts a new one.
package ratelimit

import (
	"context"
	"time"
)

// Defaults for the contact form.
const (
	DefaultWindow = 60 * time.Second
	DefaultMax    = 5
)

// Config holds the window parameters shared by every store.
type Config struct {
	Window time.Duration
	Max    int
}

// DefaultConfig returns the contact-form limits: 5 requests per minute.
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, Max: DefaultMax}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Max <= 0 {
		c.Max = DefaultMax
	}
	return c
}

// Entry is the per-key window state.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed bool
	Count   int
	Limit   int
	ResetAt time.Time
}

// Remaining is how many more requests the key may make in this window.
func (d Decision) Remaining() int {
	if r := d.Limit - d.Count; r > 0 {
		return r
	}
	return 0
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// IsRateLimited reports whether key has exhausted its window. Store errors
// count as not limited.
func IsRateLimited(ctx context.Context, l Limiter, key string) bool {
	d, err := l.Allow(ctx, key)
	if err != nil {
		return false
	}
	return !d.Allowed
}

// Fallback uses Primary and switches to Secondary for any call where Primary fails.
type Fallback struct {
	Primary   Limiter
	Secondary Limiter
	OnError   func(err error)
}

func (f *Fallback) Allow(ctx context.Context, key string) (Decision, error) {
	d, err := f.Primary.Allow(ctx, key)
	if err == nil {
		return d, nil
	}
	if f.OnError != nil {
		f.OnError(err)
	}
	return f.Secondary.Allow(ctx, key)
}
