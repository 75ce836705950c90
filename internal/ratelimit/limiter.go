package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key over a trailing window. Expired hits are pruned
// on write.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// Limiter reports whether one more hit for key fits its budget. Every call
// counts, allowed or not.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// WindowLimiter applies a single limit to arbitrary keys, for example login
// attempts per email. Keys are prefixed with the limiter name so several
// limiters can share one Store.
type WindowLimiter struct {
	store Store
	name  string
	limit LimitConfig
}

// NewWindowLimiter creates a limiter allowing limit.Max hits per limit.Window.
func NewWindowLimiter(store Store, name string, limit LimitConfig) *WindowLimiter {
	return &WindowLimiter{store: store, name: name, limit: limit}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	d := Decision{Allowed: true}

	err := record(ctx, l.store, &d, l.name+":"+key, "", l.limit)

	return d, err
}
