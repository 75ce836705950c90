package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the limit that rejected a request.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed  bool
	Exceeded *LimitExceeded
	// Tightest is the checked limit with the least headroom left. It is nil
	// when no limit applied.
	Tightest  *LimitConfig
	Remaining int64
}

// PolicyLimiter enforces a Policy over a Store.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records a request from clientKey against every limit of scopes.
// Checking stops at the first exceeded limit.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (Decision, error) {
	d := Decision{Allowed: true}

	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

			if err := record(ctx, l.store, &d, key, scope, limit); err != nil || !d.Allowed {
				return d, err
			}
		}
	}

	return d, nil
}

// AllowRoute applies custom limits for one route instead of the policy.
func (l *PolicyLimiter) AllowRoute(
	ctx context.Context, clientKey, route string, limits []LimitConfig,
) (Decision, error) {
	d := Decision{Allowed: true}

	for _, limit := range limits {
		key := fmt.Sprintf("%s:route:%s:%d", clientKey, route, limit.Window.Milliseconds())

		if err := record(ctx, l.store, &d, key, "", limit); err != nil || !d.Allowed {
			return d, err
		}
	}

	return d, nil
}

// record counts one hit for key and folds the result into d.
func record(ctx context.Context, store Store, d *Decision, key string, scope Scope, limit LimitConfig) error {
	count, err := store.Record(ctx, key, limit.Window)
	if err != nil {
		return err
	}

	remaining := max(limit.Max-count, 0)
	if d.Tightest == nil || remaining < d.Remaining {
		d.Tightest = &limit
		d.Remaining = remaining
	}

	if count > limit.Max {
		d.Allowed = false
		d.Exceeded = &LimitExceeded{Scope: scope, Config: limit, Count: count}
	}

	return nil
}
