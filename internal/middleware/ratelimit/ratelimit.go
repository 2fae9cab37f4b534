package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter applies a fixed per-minute request window per client IP. It is
// mainly there to keep a misbehaving htmx poll loop from hammering the
// upstream collection endpoints.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	limitHits    int64

	requestsPerMinute int
	cleanupInterval   time.Duration
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter and starts its cleanup loop.
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config = DefaultConfig()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rl := &Limiter{
		clients:           make(map[string]*clientInfo),
		stopCleanup:       make(chan struct{}),
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
	go rl.startCleanup()
	return rl
}

// Allow reports whether a request from the given IP fits the window.
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	if client.requests > rl.requestsPerMinute {
		atomic.AddInt64(&rl.limitHits, 1)
		return false
	}
	return true
}

func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// ActiveClients returns the number of currently tracked clients.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop shuts down the cleanup goroutine.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Metrics for monitoring rate limit behavior.
type Metrics struct {
	LimitHits   int64
	ClientCount int64
}

// GetMetrics returns current rate limiting metrics.
func (rl *Limiter) GetMetrics() Metrics {
	rl.mu.Lock()
	clientCount := int64(len(rl.clients))
	rl.mu.Unlock()

	return Metrics{
		LimitHits:   atomic.LoadInt64(&rl.limitHits),
		ClientCount: clientCount,
	}
}

// Middleware creates HTTP middleware for rate limiting.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
