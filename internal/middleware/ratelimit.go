package middleware

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"go.uber.org/zap"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// fingerprint keys rate limit counters by address and user agent, hashed so
// raw headers never reach the store.
func fingerprint(ctx huma.Context) string {
	sum := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(sum[:])
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(ctx huma.Context) string {
	if hops := ctx.Header("X-Forwarded-For"); hops != "" {
		first, _, _ := strings.Cut(hops, ",")

		return strings.TrimSpace(first)
	}

	if ip := ctx.Header("X-Real-IP"); ip != "" {
		return ip
	}

	addr := ctx.RemoteAddr()
	if addr == "" {
		addr = ctx.Host()
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}

// PolicyRateLimiter counts every request against the limiter and answers
// 429 once a limit is exceeded. Operations can opt out, add a scope, or bring
// their own limits through ratelimit.EndpointConfig metadata.
//
// Responses carry X-RateLimit-Limit and X-RateLimit-Remaining for the limit
// with the least headroom.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	check := func(ctx huma.Context, cfg *ratelimit.EndpointConfig) (ratelimit.Decision, error) {
		key := fingerprint(ctx)

		if cfg != nil && len(cfg.Limits) > 0 {
			// Keyed by route template: /links/{token} is one budget.
			return limiter.AllowRoute(ctx.Context(), key, operationPath(ctx), cfg.Limits)
		}

		return limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		decision, err := check(ctx, cfg)
		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", operationPath(ctx)), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if limit := decision.Tightest; limit != nil {
			ctx.SetHeader(HeaderRateLimitLimit, strconv.FormatInt(limit.Max, 10))
			ctx.SetHeader(HeaderRateLimitRemaining, strconv.FormatInt(decision.Remaining, 10))
		}

		if decision.Allowed {
			next(ctx)

			return
		}

		reject(api, ctx, decision.Exceeded, logger)
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

func reject(api huma.API, ctx huma.Context, exceeded *ratelimit.LimitExceeded, logger *zap.Logger) {
	if exceeded == nil {
		_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

		return
	}

	scope := cmp.Or(string(exceeded.Scope), "route")
	limit := exceeded.Config

	logger.Warn("rate limit exceeded",
		zap.String("path", operationPath(ctx)),
		zap.String("method", ctx.Method()),
		zap.String("scope", scope),
		zap.Int64("count", exceeded.Count),
		zap.Int64("max", limit.Max),
		zap.Duration("window", limit.Window),
		zap.String("client_ip", clientIP(ctx)),
	)

	ctx.SetHeader(HeaderRetryAfter, strconv.Itoa(int(limit.Window.Seconds())))
	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, fmt.Sprintf(
		"rate limit exceeded: %s scope, %d/%d requests in %s", scope, exceeded.Count, limit.Max, limit.Window))
}
