package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/auth"
	"go.uber.org/zap"
)

// AuthHandler serves sign-up, login and password operations.
type AuthHandler struct {
	accounts *account.Service
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts *account.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

func (h *AuthHandler) SignUp(ctx context.Context, req *CredentialsRequest) (*UserResponse, error) {
	user, err := h.accounts.SignUp(ctx, req.Body.Email, req.Body.Password)
	if err != nil {
		return nil, apiError(h.logger, "sign up", err)
	}

	return userResponse(user), nil
}

func (h *AuthHandler) Confirm(ctx context.Context, req *ConfirmRequest) (*MessageResponse, error) {
	if err := h.accounts.Confirm(ctx, req.Token); err != nil {
		return nil, apiError(h.logger, "confirm email", err)
	}

	return messageResponse("email confirmed"), nil
}

func (h *AuthHandler) LogIn(ctx context.Context, req *CredentialsRequest) (*SessionResponse, error) {
	session, err := h.accounts.LogIn(ctx, req.Body.Email, req.Body.Password)
	if err != nil {
		return nil, apiError(h.logger, "log in", err)
	}

	resp := &SessionResponse{}
	resp.Body.AccessToken = session.Token
	resp.Body.TokenType = "Bearer"
	resp.Body.ExpiresAt = session.ExpiresAt

	return resp, nil
}

func (h *AuthHandler) LogOut(ctx context.Context, _ *struct{}) (*struct{}, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	if err := h.accounts.LogOut(ctx, claims); err != nil {
		return nil, apiError(h.logger, "log out", err)
	}

	return nil, nil
}

func (h *AuthHandler) Me(ctx context.Context, _ *struct{}) (*UserResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := h.accounts.User(ctx, userID)
	if err != nil {
		return nil, apiError(h.logger, "get user", err)
	}

	return userResponse(user), nil
}

// RequestPasswordReset answers the same way whether or not the email is
// registered.
func (h *AuthHandler) RequestPasswordReset(ctx context.Context, req *EmailRequest) (*MessageResponse, error) {
	if err := h.accounts.RequestPasswordReset(ctx, req.Body.Email); err != nil {
		return nil, apiError(h.logger, "request password reset", err)
	}

	return messageResponse("if the address is registered, a reset link is on its way"), nil
}

func (h *AuthHandler) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*struct{}, error) {
	if err := h.accounts.ResetPassword(ctx, req.Body.Token, req.Body.Password); err != nil {
		return nil, apiError(h.logger, "reset password", err)
	}

	return nil, nil
}

func (h *AuthHandler) UpdatePassword(ctx context.Context, req *UpdatePasswordRequest) (*struct{}, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.accounts.UpdatePassword(ctx, userID, req.Body.Password); err != nil {
		return nil, apiError(h.logger, "update password", err)
	}

	return nil, nil
}

func (h *AuthHandler) EmailExists(ctx context.Context, req *EmailExistsRequest) (*EmailExistsResponse, error) {
	exists, err := h.accounts.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, apiError(h.logger, "check email", err)
	}

	resp := &EmailExistsResponse{}
	resp.Body.Exists = exists

	return resp, nil
}

func userResponse(user *account.User) *UserResponse {
	resp := &UserResponse{}
	resp.Body.ID = user.ID.String()
	resp.Body.Email = user.Email
	resp.Body.Confirmed = user.Confirmed
	resp.Body.CreatedAt = user.CreatedAt

	return resp
}

func messageResponse(msg string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Message = msg

	return resp
}
