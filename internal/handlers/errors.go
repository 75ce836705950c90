package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/profile"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// errorStatuses maps domain errors to HTTP statuses. The error text becomes
// the problem detail, so only errors safe to show are listed.
var errorStatuses = []struct {
	err    error
	status int
}{
	{shortener.ErrNotFound, http.StatusNotFound},
	{shortener.ErrQuotaExceeded, http.StatusForbidden},
	{shortener.ErrInvalidURL, http.StatusBadRequest},
	{shortener.ErrBotDetected, http.StatusBadRequest},
	{shortener.ErrInvalidTag, http.StatusBadRequest},
	{shortener.ErrTagExists, http.StatusConflict},
	{shortener.ErrTooManyTags, http.StatusConflict},
	{shortener.ErrTagNotFound, http.StatusNotFound},

	{account.ErrEmailTaken, http.StatusConflict},
	{account.ErrInvalidEmail, http.StatusBadRequest},
	{account.ErrWeakPassword, http.StatusBadRequest},
	{account.ErrInvalidCredentials, http.StatusUnauthorized},
	{account.ErrEmailNotConfirmed, http.StatusForbidden},
	{account.ErrInvalidToken, http.StatusBadRequest},
	{account.ErrTooManyAttempts, http.StatusTooManyRequests},
	{account.ErrNotFound, http.StatusNotFound},

	{profile.ErrInvalidName, http.StatusBadRequest},
	{profile.ErrInvalidWebsite, http.StatusBadRequest},
	{profile.ErrInvalidAvatarURL, http.StatusBadRequest},
	{profile.ErrEmptyImage, http.StatusBadRequest},
	{profile.ErrUnsupportedImage, http.StatusUnsupportedMediaType},
	{profile.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
}

// apiError converts a service error into a huma status error. Unknown errors
// are logged and reported as 500 without details.
func apiError(logger *zap.Logger, op string, err error) error {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return huma.NewError(e.status, e.err.Error())
		}
	}

	logger.Error(op+" failed", zap.Error(err))

	return huma.Error500InternalServerError("internal server error")
}

// currentUser returns the authenticated caller. The bearer middleware
// guarantees claims on protected operations; a missing value means the
// operation was registered without the security requirement.
func currentUser(ctx context.Context) (uuid.UUID, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, huma.Error401Unauthorized("authentication required")
	}

	return claims.UserID, nil
}
