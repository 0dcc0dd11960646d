// Package ratelimit provides per-key request limiters.
package ratelimit

import (
	"context"
	"time"
)

// Result describes a single limiter decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Config contains limiter settings.
type Config struct {
	RequestsPerMinute int
	Burst             int
}

func (c Config) normalized() Config {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 60
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}
