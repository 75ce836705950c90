package account_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const password = "s3cret!pass"

type fixture struct {
	svc    *account.Service
	users  *store.UserMemoryStore
	tokens *store.TokenMemoryStore
	issuer *auth.Issuer
	mails  *[]account.MailEvent
}

func newFixture(t *testing.T, publishErr error) fixture {
	t.Helper()

	issuer, err := auth.NewIssuer("secret", "shortlinks", time.Hour)
	require.NoError(t, err)

	users := store.NewUserMemoryStore()
	tokens := store.NewTokenMemoryStore()
	mails := &[]account.MailEvent{}

	n := 0
	generate := func() string {
		n++

		return fmt.Sprintf("token%d", n)
	}

	publish := func(e *account.MailEvent) error {
		*mails = append(*mails, *e)

		return publishErr
	}

	limiter := ratelimit.NewWindowLimiter(store.NewRateLimitMemoryStore(), "login",
		ratelimit.LimitConfig{Window: time.Minute, Max: 5})

	svc := account.NewService(users, tokens, issuer, publish, generate, limiter, account.Config{
		BaseURL:    "https://sho.rt",
		BcryptCost: bcrypt.MinCost,
	}, zap.NewNop())

	return fixture{svc: svc, users: users, tokens: tokens, issuer: issuer, mails: mails}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	require.NoError(t, err)

	return u.Query().Get("token")
}

func signUpConfirmed(t *testing.T, f fixture, email string) *account.User {
	t.Helper()

	user, err := f.svc.SignUp(context.Background(), email, password)
	require.NoError(t, err)

	last := (*f.mails)[len(*f.mails)-1]
	require.NoError(t, f.svc.Confirm(context.Background(), tokenFromLink(t, last.Link)))

	return user
}

func TestService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates unconfirmed user and sends confirmation", func(t *testing.T) {
		f := newFixture(t, nil)

		user, err := f.svc.SignUp(ctx, " Ada@Example.com ", password)

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.False(t, user.Confirmed)
		assert.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)))

		require.Len(t, *f.mails, 1)
		mail := (*f.mails)[0]
		assert.Equal(t, account.MailConfirmation, mail.Kind)
		assert.Equal(t, "ada@example.com", mail.To)
		assert.Equal(t, "https://sho.rt/auth/confirm?token=token1", mail.Link)
	})

	t.Run("rejects taken email", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.svc.SignUp(ctx, "ada@example.com", password)
		require.NoError(t, err)

		_, err = f.svc.SignUp(ctx, "ADA@example.com", password)
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	})

	t.Run("publish failure does not fail sign up", func(t *testing.T) {
		f := newFixture(t, errors.New("broker down"))

		_, err := f.svc.SignUp(ctx, "ada@example.com", password)

		assert.NoError(t, err)
	})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"invalid email", "not-an-email", password, account.ErrInvalidEmail},
		{"display name", "Ada <ada@example.com>", password, account.ErrInvalidEmail},
		{"too short", "ada@example.com", "a1!", account.ErrWeakPassword},
		{"too long", "ada@example.com", strings.Repeat("a1!", 25), account.ErrWeakPassword},
		{"no digit", "ada@example.com", "abcdefgh!", account.ErrWeakPassword},
		{"no letter", "ada@example.com", "12345678!", account.ErrWeakPassword},
		{"no special", "ada@example.com", "abcdefgh1", account.ErrWeakPassword},
		{"space is not special", "ada@example.com", "abcdefg 1", account.ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			_, err := f.svc.SignUp(ctx, tt.email, tt.password)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, *f.mails)
		})
	}
}

func TestService_Confirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	user, err := f.svc.SignUp(ctx, "ada@example.com", password)
	require.NoError(t, err)

	require.NoError(t, f.svc.Confirm(ctx, "token1"))

	got, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)

	assert.ErrorIs(t, f.svc.Confirm(ctx, "token1"), account.ErrInvalidToken, "tokens are single use")
	assert.ErrorIs(t, f.svc.Confirm(ctx, "bogus"), account.ErrInvalidToken)
}

func TestService_LogIn(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token for confirmed users", func(t *testing.T) {
		f := newFixture(t, nil)
		user := signUpConfirmed(t, f, "ada@example.com")

		session, err := f.svc.LogIn(ctx, "ADA@example.com", password)

		require.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)

		claims, err := f.issuer.Parse(session.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("unconfirmed", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.SignUp(ctx, "ada@example.com", password)
		require.NoError(t, err)

		_, err = f.svc.LogIn(ctx, "ada@example.com", password)

		assert.ErrorIs(t, err, account.ErrEmailNotConfirmed)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		f := newFixture(t, nil)
		signUpConfirmed(t, f, "ada@example.com")

		_, err := f.svc.LogIn(ctx, "ada@example.com", "wrong!pass1")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)

		_, err = f.svc.LogIn(ctx, "bob@example.com", password)
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)

		_, err = f.svc.LogIn(ctx, "garbage", password)
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	})

	t.Run("throttles attempts per email", func(t *testing.T) {
		f := newFixture(t, nil)
		signUpConfirmed(t, f, "ada@example.com")

		for range 5 {
			_, err := f.svc.LogIn(ctx, "ada@example.com", "wrong!pass1")
			require.ErrorIs(t, err, account.ErrInvalidCredentials)
		}

		_, err := f.svc.LogIn(ctx, "ada@example.com", password)
		assert.ErrorIs(t, err, account.ErrTooManyAttempts)

		_, err = f.svc.LogIn(ctx, "bob@example.com", password)
		assert.ErrorIs(t, err, account.ErrInvalidCredentials, "other emails are not throttled")
	})
}

func TestService_LogOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	signUpConfirmed(t, f, "ada@example.com")

	session, err := f.svc.LogIn(ctx, "ada@example.com", password)
	require.NoError(t, err)

	claims, err := f.issuer.Parse(session.Token)
	require.NoError(t, err)

	revoked, err := f.svc.IsRevoked(ctx, claims.TokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.svc.LogOut(ctx, claims))

	revoked, err = f.svc.IsRevoked(ctx, claims.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	t.Run("expired claims are a no-op", func(t *testing.T) {
		err := f.svc.LogOut(ctx, auth.Claims{TokenID: "old", ExpiresAt: time.Now().Add(-time.Minute)})

		require.NoError(t, err)

		revoked, err := f.svc.IsRevoked(ctx, "old")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		f := newFixture(t, nil)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com"))
		assert.Empty(t, *f.mails)
	})

	t.Run("full flow", func(t *testing.T) {
		f := newFixture(t, nil)
		signUpConfirmed(t, f, "ada@example.com")

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "ada@example.com"))

		mail := (*f.mails)[len(*f.mails)-1]
		assert.Equal(t, account.MailPasswordReset, mail.Kind)

		token := tokenFromLink(t, mail.Link)

		assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, "weak"), account.ErrWeakPassword)
		require.NoError(t, f.svc.ResetPassword(ctx, token, "n3w!password"))
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, "n3w!password"), account.ErrInvalidToken)

		_, err := f.svc.LogIn(ctx, "ada@example.com", password)
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)

		_, err = f.svc.LogIn(ctx, "ada@example.com", "n3w!password")
		assert.NoError(t, err)
	})

	t.Run("confirmation token cannot reset password", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.SignUp(ctx, "ada@example.com", password)
		require.NoError(t, err)

		err = f.svc.ResetPassword(ctx, "token1", "n3w!password")

		assert.ErrorIs(t, err, account.ErrInvalidToken)
	})
}

func TestService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	user := signUpConfirmed(t, f, "ada@example.com")

	assert.ErrorIs(t, f.svc.UpdatePassword(ctx, user.ID, "short"), account.ErrWeakPassword)
	assert.ErrorIs(t, f.svc.UpdatePassword(ctx, uuid.New(), "n3w!password"), account.ErrNotFound)

	require.NoError(t, f.svc.UpdatePassword(ctx, user.ID, "n3w!password"))

	_, err := f.svc.LogIn(ctx, "ada@example.com", "n3w!password")
	assert.NoError(t, err)
}

func TestService_EmailExists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	signUpConfirmed(t, f, "ada@example.com")

	exists, err := f.svc.EmailExists(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.svc.EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.svc.EmailExists(ctx, "nope")
	assert.ErrorIs(t, err, account.ErrInvalidEmail)
}

func TestLogMailHandler(t *testing.T) {
	handler := account.LogMailHandler(zap.NewNop())

	err := handler(context.Background(), &account.MailEvent{Kind: account.MailConfirmation, To: "a@example.com"})

	assert.NoError(t, err)
}
