// Package dnscheck answers whether an email domain can plausibly receive mail.
package dnscheck

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"cricket-club-backend/pkg/cache"
	"cricket-club-backend/pkg/clock"
	"cricket-club-backend/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLookupTimeout = 1500 * time.Millisecond
	DefaultCacheTTL      = 10 * time.Minute

	cacheKeyPrefix = "mxcheck:"
)

// Resolver is the subset of *net.Resolver the checker uses.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

type cacheEntry struct {
	OK  bool      `json:"ok"`
	Exp time.Time `json:"exp"`
}

// Checker resolves MX, then A/AAAA, and remembers the answer per domain.
type Checker struct {
	resolver Resolver
	cache    cache.Cache
	clock    clock.Clock
	timeout  time.Duration
	ttl      time.Duration
	log      *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Checker)

func WithResolver(r Resolver) Option { return func(c *Checker) { c.resolver = r } }

// WithCache replaces the default bounded in-memory cache.
func WithCache(cc cache.Cache) Option { return func(c *Checker) { c.cache = cc } }

func WithClock(clk clock.Clock) Option { return func(c *Checker) { c.clock = clk } }

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option { return func(c *Checker) { c.timeout = d } }

func WithTTL(d time.Duration) Option { return func(c *Checker) { c.ttl = d } }

func WithLogger(l *zap.Logger) Option { return func(c *Checker) { c.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Checker) { c.metrics = m } }

func New(opts ...Option) *Checker {
	c := &Checker{
		resolver: net.DefaultResolver,
		clock:    clock.Real(),
		timeout:  DefaultLookupTimeout,
		ttl:      DefaultCacheTTL,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewMemory(cache.MemoryConfig{Clock: c.clock})
	}
	return c
}

// DomainAcceptsMail reports whether domain has an MX record or, failing that,
// any A or AAAA record. Lookup failures count as no record. It never blocks
// longer than roughly two lookup timeouts and ignores cancellation of ctx.
func (c *Checker) DomainAcceptsMail(ctx context.Context, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	key := cacheKeyPrefix + domain
	ctx = context.WithoutCancel(ctx)

	entry, err := cache.GetJSON[cacheEntry](ctx, c.cache, key)
	switch {
	case err == nil && c.clock.Now().Before(entry.Exp):
		c.metrics.ObserveDomainCheck("cache", entry.OK)
		return entry.OK
	case err != nil && !errors.Is(err, cache.ErrNotFound):
		c.log.Warn("domain cache read failed", zap.String("domain", domain), zap.Error(err))
	}

	ok := c.resolve(ctx, domain)
	c.metrics.ObserveDomainCheck("dns", ok)

	entry = cacheEntry{OK: ok, Exp: c.clock.Now().Add(c.ttl)}
	if err := cache.SetJSON(ctx, c.cache, key, entry, c.ttl); err != nil {
		c.log.Warn("domain cache write failed", zap.String("domain", domain), zap.Error(err))
	}
	return ok
}

func (c *Checker) resolve(ctx context.Context, domain string) bool {
	if c.hasMX(ctx, domain) {
		return true
	}

	var v4, v6 bool
	var g errgroup.Group
	g.Go(func() error {
		v4 = c.hasAddress(ctx, "ip4", domain)
		return nil
	})
	g.Go(func() error {
		v6 = c.hasAddress(ctx, "ip6", domain)
		return nil
	})
	_ = g.Wait()

	return v4 || v6
}

func (c *Checker) hasMX(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mx, err := c.resolver.LookupMX(ctx, domain)
	if err != nil {
		c.log.Debug("mx lookup failed", zap.String("domain", domain), zap.Error(err))
		return false
	}
	return len(mx) > 0
}

func (c *Checker) hasAddress(ctx context.Context, network, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ips, err := c.resolver.LookupIP(ctx, network, domain)
	if err != nil {
		c.log.Debug("address lookup failed", zap.String("network", network), zap.String("domain", domain), zap.Error(err))
		return false
	}
	return len(ips) > 0
}
