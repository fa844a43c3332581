// Package ratelimit bounds how often the pipeline hits a single origin host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// HostLimiter enforces a minimum delay between requests to the same host.
// Different hosts are independent, so concurrent sources do not slow each
// other down.
type HostLimiter struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	delay    time.Duration
}

// NewHostLimiter creates a limiter with the given per-host delay.
// A zero or negative delay disables waiting.
func NewHostLimiter(delay time.Duration) *HostLimiter {
	return &HostLimiter{
		lastSeen: make(map[string]time.Time),
		delay:    delay,
	}
}

// Wait blocks until the host is allowed another request or the context is
// cancelled. Unparseable URLs pass through without waiting.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if l == nil || l.delay <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	l.mu.Lock()
	now := time.Now()
	next := l.lastSeen[u.Host].Add(l.delay)
	if next.Before(now) {
		next = now
	}
	l.lastSeen[u.Host] = next
	l.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
