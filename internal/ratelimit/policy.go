package ratelimit

import "time"

// LimitConfig allows at most Max requests per sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps each scope to the limits that apply to it. A request is
// rejected as soon as any limit of any of its scopes is exceeded.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder starts an empty policy.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{
		policy: &Policy{Limits: make(map[Scope][]LimitConfig)},
	}
}

// AddLimit adds a limit of max requests per window to scope.
func (b *PolicyBuilder) AddLimit(scope Scope, limit int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: limit})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultPolicy is the policy the server runs with.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 1000, time.Minute).
		AddLimit(ScopeRead, 600, time.Minute).
		AddLimit(ScopeWrite, 60, time.Minute).
		AddLimit(ScopeWrite, 1000, time.Hour).
		AddLimit(ScopeAuth, 10, time.Minute).
		AddLimit(ScopeAuth, 100, time.Hour).
		AddLimit(ScopeUpload, 5, time.Minute).
		Build()
}
