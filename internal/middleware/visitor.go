package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/handlers"
)

// Visitor records the caller's address, user agent and referrer on the
// request context for the link handlers.
func Visitor(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		v := handlers.Visitor{
			IP:        clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		next(huma.WithContext(ctx, handlers.WithVisitor(ctx.Context(), v)))
	}
}
