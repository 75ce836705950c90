package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRevocations struct {
	revoked map[string]bool
	err     error
}

func (m *mockRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

type whoAmIOutput struct {
	Body struct {
		UserID string `json:"userId"`
	}
}

func setupAuthAPI(t *testing.T, revocations *mockRevocations) (*chi.Mux, *auth.Issuer) {
	t.Helper()

	issuer, err := auth.NewIssuer("secret", "test", time.Hour)
	require.NoError(t, err)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.BearerAuth(api, issuer, revocations, zap.NewNop()))

	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/private",
		Security: []map[string][]string{{auth.SecurityScheme: {}}},
	}, func(ctx context.Context, _ *struct{}) (*whoAmIOutput, error) {
		claims, ok := auth.ClaimsFromContext(ctx)
		if !ok {
			return nil, huma.Error500InternalServerError("claims missing")
		}

		out := &whoAmIOutput{}
		out.Body.UserID = claims.UserID.String()

		return out, nil
	})

	huma.Get(api, "/public", func(_ context.Context, _ *struct{}) (*testOutput, error) {
		return &testOutput{Body: "ok"}, nil
	})

	return router, issuer
}

func get(router http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestBearerAuth(t *testing.T) {
	userID := uuid.New()

	t.Run("public operations need no token", func(t *testing.T) {
		router, _ := setupAuthAPI(t, &mockRevocations{})

		w := get(router, "/public", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid token sets claims", func(t *testing.T) {
		router, issuer := setupAuthAPI(t, &mockRevocations{})
		token, _, err := issuer.Issue(userID)
		require.NoError(t, err)

		w := get(router, "/private", "Bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		router, issuer := setupAuthAPI(t, &mockRevocations{})
		token, _, err := issuer.Issue(userID)
		require.NoError(t, err)

		w := get(router, "/private", "bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	tests := []struct {
		name          string
		authorization string
		wantBody      string
	}{
		{"missing header", "", "missing bearer token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "missing bearer token"},
		{"empty token", "Bearer ", "missing bearer token"},
		{"garbage token", "Bearer not.a.jwt", "invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupAuthAPI(t, &mockRevocations{})

			w := get(router, "/private", tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
		})
	}

	t.Run("token from another issuer", func(t *testing.T) {
		router, _ := setupAuthAPI(t, &mockRevocations{})
		other, err := auth.NewIssuer("other-secret", "test", time.Hour)
		require.NoError(t, err)

		token, _, err := other.Issue(userID)
		require.NoError(t, err)

		w := get(router, "/private", "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		revocations := &mockRevocations{revoked: map[string]bool{}}
		router, issuer := setupAuthAPI(t, revocations)

		token, claims, err := issuer.Issue(userID)
		require.NoError(t, err)

		revocations.revoked[claims.TokenID] = true

		w := get(router, "/private", "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "revoked")
	})

	t.Run("revocation store error", func(t *testing.T) {
		router, issuer := setupAuthAPI(t, &mockRevocations{err: errors.New("redis down")})

		token, _, err := issuer.Issue(userID)
		require.NoError(t, err)

		w := get(router, "/private", "Bearer "+token)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
