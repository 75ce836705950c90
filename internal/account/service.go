package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultConfirmTTL = 24 * time.Hour
	DefaultResetTTL   = time.Hour
)

// Config holds the account service settings.
type Config struct {
	// BaseURL is where confirmation and reset links point to.
	BaseURL    string
	ConfirmTTL time.Duration
	ResetTTL   time.Duration
	BcryptCost int
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	UserID    uuid.UUID
}

// Service implements sign-up, login and password flows.
type Service struct {
	users         Repository
	tokens        TokenStore
	issuer        *auth.Issuer
	publishMail   messaging.Publish[MailEvent]
	generateToken func() string
	attempts      ratelimit.Limiter
	cfg           Config
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires the account service. attempts throttles logins per email.
func NewService(
	users Repository,
	tokens TokenStore,
	issuer *auth.Issuer,
	publishMail messaging.Publish[MailEvent],
	generateToken func() string,
	attempts ratelimit.Limiter,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.ConfirmTTL <= 0 {
		cfg.ConfirmTTL = DefaultConfirmTTL
	}

	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		users:         users,
		tokens:        tokens,
		issuer:        issuer,
		publishMail:   publishMail,
		generateToken: generateToken,
		attempts:      attempts,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// SignUp registers an unconfirmed user and sends a confirmation mail.
func (s *Service) SignUp(ctx context.Context, email, password string) (*User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendToken(ctx, user, PurposeConfirm, s.cfg.ConfirmTTL); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))

	return user, nil
}

// Confirm marks the owner of a confirmation token as confirmed.
func (s *Service) Confirm(ctx context.Context, token string) error {
	userID, err := s.tokens.Take(ctx, PurposeConfirm, token)
	if err != nil {
		return err
	}

	return s.users.Confirm(ctx, userID)
}

// LogIn checks credentials and issues a bearer token.
func (s *Service) LogIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if s.attempts != nil {
		d, err := s.attempts.Allow(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check login attempts: %w", err)
		}

		if !d.Allowed {
			return nil, ErrTooManyAttempts
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	token, claims, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: claims.ExpiresAt, UserID: user.ID}, nil
}

// LogOut revokes the token described by claims until it would have expired.
func (s *Service) LogOut(ctx context.Context, claims auth.Claims) error {
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	return s.tokens.Revoke(ctx, claims.TokenID, ttl)
}

// IsRevoked reports whether a token id was logged out.
func (s *Service) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.tokens.IsRevoked(ctx, tokenID)
}

// RequestPasswordReset sends a reset mail when email belongs to a user. It
// does not reveal whether the address is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}

		return err
	}

	return s.sendToken(ctx, user, PurposeReset, s.cfg.ResetTTL)
}

// ResetPassword sets a new password for the owner of a reset token.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	userID, err := s.tokens.Take(ctx, PurposeReset, token)
	if err != nil {
		return err
	}

	return s.setPassword(ctx, userID, password)
}

// UpdatePassword changes the password of a logged in user.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	return s.setPassword(ctx, userID, password)
}

// EmailExists reports whether email is registered.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return false, err
	}

	_, err = s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return err == nil, err
}

// User returns a user by id.
func (s *Service) User(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.SetPassword(ctx, userID, hash)
}

func (s *Service) sendToken(ctx context.Context, user *User, purpose Purpose, ttl time.Duration) error {
	token := s.generateToken()

	if err := s.tokens.Put(ctx, purpose, token, user.ID, ttl); err != nil {
		return fmt.Errorf("store %s token: %w", purpose, err)
	}

	kind, path := MailConfirmation, "/auth/confirm"
	if purpose == PurposeReset {
		kind, path = MailPasswordReset, "/auth/password/reset"
	}

	event := &MailEvent{
		Kind:      kind,
		To:        user.Email,
		Link:      s.cfg.BaseURL + path + "?token=" + url.QueryEscape(token),
		CreatedAt: s.now().UTC(),
	}

	if err := s.publishMail(event); err != nil {
		s.logger.Error("failed to publish mail event",
			zap.String("kind", string(kind)),
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	return nil
}
