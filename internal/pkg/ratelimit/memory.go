package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupInterval = time.Minute
	visitorTTL      = 5 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is an in-process token bucket limiter keyed by client.
type Memory struct {
	cfg   Config
	every rate.Limit

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemory creates an in-memory limiter and starts its cleanup loop.
// Call Stop to release it.
func NewMemory(cfg Config) *Memory {
	cfg = cfg.normalized()
	m := &Memory{
		cfg:      cfg,
		every:    rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		visitors: make(map[string]*visitor),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Allow consumes one token for key.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	now := m.now()
	lim := m.limiter(key, now)

	res := Result{Limit: m.cfg.Burst}
	if lim.AllowN(now, 1) {
		res.Allowed = true
		res.Remaining = int(math.Max(0, math.Floor(lim.TokensAt(now))))
		return res, nil
	}

	missing := 1 - lim.TokensAt(now)
	res.RetryAfter = time.Duration(missing / float64(m.every) * float64(time.Second))
	if res.RetryAfter < time.Second {
		res.RetryAfter = time.Second
	}
	return res, nil
}

// Stop terminates the cleanup loop.
func (m *Memory) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Memory) limiter(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.every, m.cfg.Burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.cleanup(m.now())
		}
	}
}

func (m *Memory) cleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(m.visitors, key)
		}
	}
}
