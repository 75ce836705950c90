package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope groups requests that share rate limits.
type Scope string

const (
	// ScopeGlobal applies to every request.
	ScopeGlobal Scope = "global"
	// ScopeRead applies to safe methods (GET, HEAD, OPTIONS).
	ScopeRead Scope = "read"
	// ScopeWrite applies to every other method.
	ScopeWrite Scope = "write"
	// ScopeAuth covers credential endpoints such as login and sign-up.
	ScopeAuth Scope = "auth"
	// ScopeUpload covers file uploads.
	ScopeUpload Scope = "upload"
)

// MetadataKey is the huma.Operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig tunes rate limiting for one operation.
type EndpointConfig struct {
	// Scope is ScopeRead or ScopeWrite to override the method-based scope, or
	// any other scope to be checked in addition to it.
	Scope Scope

	// Limits replaces the policy for this route. Counters are kept per client
	// and route template. Scope is ignored when Limits is set.
	Limits []LimitConfig

	// Disabled skips rate limiting for the operation.
	Disabled bool
}

// ScopeResolver determines which scopes apply to a given request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// MethodScopeResolver puts safe methods in ScopeRead and everything else in
// ScopeWrite, on top of ScopeGlobal.
type MethodScopeResolver struct{}

// NewMethodScopeResolver creates a new method-based scope resolver.
func NewMethodScopeResolver() *MethodScopeResolver {
	return &MethodScopeResolver{}
}

func (r *MethodScopeResolver) Resolve(ctx huma.Context) []Scope {
	switch ctx.Method() {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Scope{ScopeGlobal, ScopeRead}
	default:
		return []Scope{ScopeGlobal, ScopeWrite}
	}
}

// OperationScopeResolver honours the scope declared in operation metadata
// and otherwise falls back to the method.
type OperationScopeResolver struct {
	fallback *MethodScopeResolver
}

// NewOperationScopeResolver creates a new operation-aware scope resolver.
func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{
		fallback: NewMethodScopeResolver(),
	}
}

func (r *OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	cfg := GetEndpointConfig(ctx)
	if cfg == nil || cfg.Scope == "" {
		return r.fallback.Resolve(ctx)
	}

	switch cfg.Scope {
	case ScopeGlobal:
		return r.fallback.Resolve(ctx)
	case ScopeRead, ScopeWrite:
		return []Scope{ScopeGlobal, cfg.Scope}
	default:
		return append(r.fallback.Resolve(ctx), cfg.Scope)
	}
}

// GetEndpointConfig returns the operation's EndpointConfig, or nil.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
