package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionBody struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

type userBody struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
}

func credentials(email, pass string) map[string]string {
	return map[string]string{"email": email, "password": pass}
}

func TestAuth_Flow(t *testing.T) {
	s := newServer(t, 5)

	w := s.do(t, http.MethodPost, "/auth/signup", "", credentials("Ada@Example.com", password))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	user := decode[userBody](t, w)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.Confirmed)

	w = s.do(t, http.MethodPost, "/auth/login", "", credentials("ada@example.com", password))
	assert.Equal(t, http.StatusForbidden, w.Code, "unconfirmed accounts cannot log in")

	w = s.do(t, http.MethodGet, "/auth/confirm?token="+fmt.Sprintf("token%d", s.tokens), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", "", credentials("ada@example.com", password))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	session := decode[sessionBody](t, w)
	assert.Equal(t, "Bearer", session.TokenType)
	require.NotEmpty(t, session.AccessToken)

	w = s.do(t, http.MethodGet, "/auth/me", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	me := decode[userBody](t, w)
	assert.Equal(t, user.ID, me.ID)
	assert.True(t, me.Confirmed)

	w = s.do(t, http.MethodPost, "/auth/logout", session.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/auth/me", session.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked tokens are rejected")
}

func TestAuth_Errors(t *testing.T) {
	s := newServer(t, 5)
	s.login(t, "ada@example.com")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"taken email", http.MethodPost, "/auth/signup", credentials("ada@example.com", password), http.StatusConflict},
		{"invalid email", http.MethodPost, "/auth/signup", credentials("nope", password), http.StatusBadRequest},
		{"weak password", http.MethodPost, "/auth/signup", credentials("bob@example.com", "short"), http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/auth/login", credentials("ada@example.com", "wrong!pass1"), http.StatusUnauthorized},
		{"unknown user", http.MethodPost, "/auth/login", credentials("bob@example.com", password), http.StatusUnauthorized},
		{"bad confirmation token", http.MethodGet, "/auth/confirm?token=bogus", nil, http.StatusBadRequest},
		{"missing confirmation token", http.MethodGet, "/auth/confirm", nil, http.StatusUnprocessableEntity},
		{"me without token", http.MethodGet, "/auth/me", nil, http.StatusUnauthorized},
		{"logout without token", http.MethodPost, "/auth/logout", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, "", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestAuth_PasswordReset(t *testing.T) {
	s := newServer(t, 5)
	s.login(t, "ada@example.com")

	w := s.do(t, http.MethodPost, "/auth/password/reset-request", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusAccepted, w.Code, "unknown emails look the same")

	before := s.tokens

	w = s.do(t, http.MethodPost, "/auth/password/reset-request", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, before+1, s.tokens)

	reset := map[string]string{"token": fmt.Sprintf("token%d", s.tokens), "password": "n3w!password"}

	w = s.do(t, http.MethodPost, "/auth/password/reset", "", reset)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/password/reset", "", reset)
	assert.Equal(t, http.StatusBadRequest, w.Code, "reset tokens are single use")

	w = s.do(t, http.MethodPost, "/auth/login", "", credentials("ada@example.com", "n3w!password"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_UpdatePassword(t *testing.T) {
	s := newServer(t, 5)
	token := s.login(t, "ada@example.com")

	w := s.do(t, http.MethodPut, "/auth/password", token, map[string]string{"password": "weak"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/auth/password", token, map[string]string{"password": "n3w!password"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", "", credentials("ada@example.com", password))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_EmailExists(t *testing.T) {
	s := newServer(t, 5)
	s.login(t, "ada@example.com")

	tests := []struct {
		email      string
		wantStatus int
		want       bool
	}{
		{"ada@example.com", http.StatusOK, true},
		{"bob@example.com", http.StatusOK, false},
		{"nope", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/auth/email-exists?email="+tt.email, "", nil)

			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.want, decode[struct {
					Exists bool `json:"exists"`
				}](t, w).Exists)
			}
		})
	}
}
