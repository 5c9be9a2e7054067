// Package ratelimit provides the token-bucket limiters used for outbound
// probe politeness and for the public API wrapper.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter combines a global token bucket with a per-host minimum delay so a
// burst of probes never hammers one origin.
type Limiter struct {
	limiter        *rate.Limiter
	requestDelay   time.Duration
	burstSize      int
	lastRequestMap map[string]time.Time
	mu             sync.Mutex
}

type Config struct {
	// RequestsPerSecond limits the global outbound request rate.
	RequestsPerSecond float64

	// BurstSize allows brief bursts above the rate limit. The seven
	// fingerprint probes fire as one burst, so this should be at least 7.
	BurstSize int

	// MinDelay is the minimum delay between requests to the same host.
	MinDelay time.Duration
}

// DefaultConfig returns limits suitable for scanning third-party sites.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10.0,
		BurstSize:         10,
		MinDelay:          100 * time.Millisecond,
	}
}

func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		requestDelay:   cfg.MinDelay,
		burstSize:      cfg.BurstSize,
		lastRequestMap: make(map[string]time.Time),
	}
}

// Wait blocks until the global limiter allows the request.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// WaitForHost blocks until the global limiter allows a request and the
// per-host minimum delay since the previous request to host has elapsed.
func (l *Limiter) WaitForHost(ctx context.Context, host string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if lastReq, exists := l.lastRequestMap[host]; exists {
		elapsed := time.Since(lastReq)
		if elapsed < l.requestDelay {
			select {
			case <-time.After(l.requestDelay - elapsed):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	l.lastRequestMap[host] = time.Now()
	return nil
}

// Allow reports whether a request is allowed without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Reset clears per-host state.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastRequestMap = make(map[string]time.Time)
}

type Stats struct {
	TrackedHosts int
	BurstSize    int
	RequestDelay time.Duration
}

func (l *Limiter) GetStats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		TrackedHosts: len(l.lastRequestMap),
		BurstSize:    l.burstSize,
		RequestDelay: l.requestDelay,
	}
}
