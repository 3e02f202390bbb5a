package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a service
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Default rate limiter names
const (
	LimiterReddit  = "reddit"
	LimiterArchive = "archive"
	LimiterAI      = "ai"
	LimiterNocoDB  = "nocodb"
)

// NewDefaultLimiter creates a limiter with default rate limits
func NewDefaultLimiter() *MultiLimiter {
	m := NewMultiLimiter()

	// Reddit public endpoints: 1 request per second sustained, burst 1.
	// The inter-request spacing is a contract with the origin, not a
	// throughput optimization, so the burst stays at 1.
	m.AddLimiter(LimiterReddit, 1, 1)

	// Archive search APIs are stricter: 1 request per 2 seconds
	m.AddLimiter(LimiterArchive, 0.5, 1)

	// AI providers (Groq free tier): 30 requests per minute
	m.AddLimiter(LimiterAI, 30.0/60, 1)

	// NocoDB: self-hosted, be polite - 5 per second, burst 10
	m.AddLimiter(LimiterNocoDB, 5, 10)

	return m
}

// NewUnlimited creates a limiter whose named limiters never block.
// Tests use it so no real waiting happens.
func NewUnlimited(names ...string) *MultiLimiter {
	m := NewMultiLimiter()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		m.limiters[name] = rate.NewLimiter(rate.Inf, 1)
	}
	return m
}
