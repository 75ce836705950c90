package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/auth"
	"go.uber.org/zap"
)

// RevocationChecker reports whether a token id was revoked by a log out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// BearerAuth returns a Huma middleware that authenticates operations
// declaring the bearer security requirement. The parsed claims are stored in
// the request context for auth.ClaimsFromContext.
func BearerAuth(
	api huma.API,
	issuer *auth.Issuer,
	revocations RevocationChecker,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !requiresBearer(ctx.Operation()) {
			next(ctx)

			return
		}

		token, ok := bearerToken(ctx.Header("Authorization"))
		if !ok {
			ctx.SetHeader("WWW-Authenticate", `Bearer realm="api"`)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing bearer token")

			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			logger.Debug("rejected bearer token", zap.Error(err))
			ctx.SetHeader("WWW-Authenticate", `Bearer error="invalid_token"`)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid or expired token")

			return
		}

		revoked, err := revocations.IsRevoked(ctx.Context(), claims.TokenID)
		if err != nil {
			logger.Error("revocation check failed", zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if revoked {
			ctx.SetHeader("WWW-Authenticate", `Bearer error="invalid_token"`)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "token has been revoked")

			return
		}

		next(huma.WithContext(ctx, auth.ContextWithClaims(ctx.Context(), claims)))
	}
}

func requiresBearer(op *huma.Operation) bool {
	if op == nil {
		return false
	}

	return slices.ContainsFunc(op.Security, func(req map[string][]string) bool {
		_, ok := req[auth.SecurityScheme]

		return ok
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
