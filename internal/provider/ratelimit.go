package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate limits per provider (requests per second). These stay
// inside the published fair-use limits of each service; MusicBrainz in
// particular enforces one anonymous request per second.
var defaultRateLimits = map[ProviderName]rate.Limit{
	NameMusicBrainz: 1,
	NameLastFM:      5,
	NameWikidata:    5,
}

// RateLimiterMap holds one rate.Limiter per provider, created once at
// startup. Every outbound request waits on its provider's limiter, so
// pacing applies regardless of outcome and independently of retry
// backoff.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[ProviderName]*rate.Limiter
}

// NewRateLimiterMap creates all provider rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[ProviderName]*rate.Limiter, len(defaultRateLimits)),
	}
	for name, limit := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(limit, 1)
	}
	return m
}

// NewUnpacedLimiterMap creates limiters with no delay, for tests.
func NewUnpacedLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[ProviderName]*rate.Limiter, len(defaultRateLimits)),
	}
	for name := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(rate.Inf, 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given provider allows a
// request, or the context is canceled.
func (m *RateLimiterMap) Wait(ctx context.Context, name ProviderName) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
