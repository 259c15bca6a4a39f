package dnscheck

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"cricket-club-backend/pkg/cache"
	"cricket-club-backend/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu    sync.Mutex
	mx    map[string][]*net.MX
	ips   map[string][]net.IP // keyed by network + ":" + host
	err   error
	delay time.Duration
	calls []string
}

func (f *fakeResolver) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeResolver) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	f.record("mx:" + name)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.mx[name], nil
}

func (f *fakeResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	f.record(network + ":" + host)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.ips[network+":"+host], nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestDomainAcceptsMail(t *testing.T) {
	res := &fakeResolver{
		mx: map[string][]*net.MX{
			"club.example": {{Host: "mx.club.example.", Pref: 10}},
		},
		ips: map[string][]net.IP{
			"ip4:a-only.example":    {net.ParseIP("192.0.2.1")},
			"ip6:aaaa-only.example": {net.ParseIP("2001:db8::1")},
		},
	}
	c := New(WithResolver(res))
	ctx := context.Background()

	assert.True(t, c.DomainAcceptsMail(ctx, "club.example"))
	assert.True(t, c.DomainAcceptsMail(ctx, "a-only.example"))
	assert.True(t, c.DomainAcceptsMail(ctx, "aaaa-only.example"))
	assert.False(t, c.DomainAcceptsMail(ctx, "nothing.example"))
}

func TestDomainAcceptsMailSkipsAddressLookupsAfterMX(t *testing.T) {
	res := &fakeResolver{mx: map[string][]*net.MX{"club.example": {{Host: "mx."}}}}
	c := New(WithResolver(res))

	require.True(t, c.DomainAcceptsMail(context.Background(), "club.example"))
	assert.Equal(t, []string{"mx:club.example"}, res.calls)
}

func TestDomainAcceptsMailSwallowsErrors(t *testing.T) {
	res := &fakeResolver{err: &net.DNSError{Err: "no such host", IsNotFound: true}}
	c := New(WithResolver(res))

	assert.False(t, c.DomainAcceptsMail(context.Background(), "gone.example"))
	assert.Equal(t, 3, res.callCount())
}

func TestDomainAcceptsMailTimeout(t *testing.T) {
	res := &fakeResolver{delay: time.Second}
	c := New(WithResolver(res), WithTimeout(20*time.Millisecond))

	start := time.Now()
	assert.False(t, c.DomainAcceptsMail(context.Background(), "slow.example"))
	// MX timeout plus one round of concurrent A/AAAA timeouts.
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDomainAcceptsMailIgnoresCallerCancel(t *testing.T) {
	res := &fakeResolver{mx: map[string][]*net.MX{"club.example": {{Host: "mx."}}}, delay: 10 * time.Millisecond}
	c := New(WithResolver(res))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, c.DomainAcceptsMail(ctx, "club.example"))
}

func TestDomainAcceptsMailCache(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	res := &fakeResolver{mx: map[string][]*net.MX{"club.example": {{Host: "mx."}}}}
	c := New(WithResolver(res), WithClock(clk))
	ctx := context.Background()

	require.True(t, c.DomainAcceptsMail(ctx, "Club.Example"))
	require.Equal(t, 1, res.callCount())

	t.Run("Should serve repeated checks from cache", func(t *testing.T) {
		clk.Advance(9 * time.Minute)
		assert.True(t, c.DomainAcceptsMail(ctx, "club.example"))
		assert.Equal(t, 1, res.callCount())
	})

	t.Run("Should re-resolve after ten minutes", func(t *testing.T) {
		res.mx = nil
		clk.Advance(2 * time.Minute)
		assert.False(t, c.DomainAcceptsMail(ctx, "club.example"))
		assert.Equal(t, 4, res.callCount())
	})

	t.Run("Should cache negative answers", func(t *testing.T) {
		assert.False(t, c.DomainAcceptsMail(ctx, "club.example"))
		assert.Equal(t, 4, res.callCount())
	})
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenCache) Delete(context.Context, string) error { return nil }
func (brokenCache) Sweep(context.Context) (int, error) { return 0, nil }

var _ cache.Cache = brokenCache{}

func TestDomainAcceptsMailCacheFailures(t *testing.T) {
	res := &fakeResolver{mx: map[string][]*net.MX{"club.example": {{Host: "mx."}}}}
	c := New(WithResolver(res), WithCache(brokenCache{}))

	assert.True(t, c.DomainAcceptsMail(context.Background(), "club.example"))
	assert.True(t, c.DomainAcceptsMail(context.Background(), "club.example"))
	assert.Equal(t, 2, res.callCount())
}

func TestIsValidDomainShape(t *testing.T) {
	long := ""
	for i := 0; i < 4; i++ {
		long += "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghij."
	}
	long += "com"

	tests := []struct {
		domain string
		want   bool
	}{
		{"gmail.com", true},
		{"mail.club.co.uk", true},
		{"my-club.ca", true},
		{"123.example.org", true},
		{"", false},
		{"localhost", false},
		{"-bad.com", false},
		{"bad-.com", false},
		{"a..com", false},
		{"example.c", false},
		{"example.c0m", false},
		{"exa_mple.com", false},
		{"ex ample.com", false},
		{long, false},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidDomainShape(tt.domain))
		})
	}
}
