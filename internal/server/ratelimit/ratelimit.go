// Package ratelimit provides per-client request limiting backed by token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
	IdleTTL           time.Duration
	Whitelist         map[string]bool
	Blacklist         map[string]bool
	EndpointConfigs   []EndpointConfig
}

type bucket struct {
	limiter    *rate.Limiter
	limit      int
	lastAccess time.Time
}

// Limiter manages one token bucket per client, endpoint and method.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stopOnce sync.Once
	stop     chan struct{}
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             20,
			CleanupInterval:   5 * time.Minute,
			IdleTTL:           time.Hour,
		}
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = time.Hour
	}

	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	r, burst, limit := l.endpointRate(endpoint, method)
	if r <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	b := l.getBucket(clientID+":"+endpoint+":"+method, r, burst, limit, now)

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, Info{Limit: limit, ResetTime: now}
	}

	info := Info{Limit: limit}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		info.RetryAfter = delay
	}
	info.Allowed = info.RetryAfter == 0

	tokens := b.limiter.TokensAt(now)
	info.Remaining = max(int(tokens), 0)
	if missing := float64(burst) - tokens; missing > 0 {
		info.ResetTime = now.Add(time.Duration(missing / float64(r) * float64(time.Second)))
	} else {
		info.ResetTime = now
	}
	return info.Allowed, info
}

// endpointRate resolves the refill rate, burst and advertised limit for a request.
func (l *Limiter) endpointRate(endpoint, method string) (rate.Limit, int, int) {
	ep := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if ep == nil {
		burst := max(l.config.Burst, 1)
		return rate.Limit(l.config.RequestsPerSecond), burst, burst
	}
	if ep.Limit <= 0 || ep.Window <= 0 {
		return 0, 0, 0
	}
	burst := ep.Burst
	if burst <= 0 {
		burst = ep.Limit
	}
	return rate.Limit(float64(ep.Limit) / ep.Window.Seconds()), burst, ep.Limit
}

func (l *Limiter) getBucket(key string, r rate.Limit, burst, limit int, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r, burst), limit: limit}
		l.buckets[key] = b
	}
	b.lastAccess = now
	return b
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanupBuckets()
		case <-l.stop:
			return
		}
	}
}

// cleanupBuckets removes buckets idle for longer than IdleTTL.
func (l *Limiter) cleanupBuckets() int {
	cutoff := l.now().Add(-l.config.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
