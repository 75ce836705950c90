package handlers

import (
	"context"
	"io"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/profile"
	"go.uber.org/zap"
)

// ProfileHandler serves profile and avatar operations.
type ProfileHandler struct {
	profiles *profile.Service
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles *profile.Service, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

func (h *ProfileHandler) GetProfile(ctx context.Context, _ *struct{}) (*ProfileResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		return nil, apiError(h.logger, "get profile", err)
	}

	return profileResponse(p), nil
}

func (h *ProfileHandler) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*ProfileResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.profiles.Update(ctx, userID, profile.Update{
		FullName: req.Body.FullName,
		Website:  req.Body.Website,
		Email:    req.Body.Email,
	})
	if err != nil {
		return nil, apiError(h.logger, "update profile", err)
	}

	return profileResponse(p), nil
}

func (h *ProfileHandler) SetAvatar(ctx context.Context, req *SetAvatarRequest) (*ProfileResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.profiles.SetAvatar(ctx, userID, req.Body.URL)
	if err != nil {
		return nil, apiError(h.logger, "set avatar", err)
	}

	return profileResponse(p), nil
}

func (h *ProfileHandler) Gallery(ctx context.Context, req *GalleryRequest) (*GalleryResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	urls, err := h.profiles.Gallery(ctx, userID, req.Offset)
	if err != nil {
		return nil, apiError(h.logger, "list avatars", err)
	}

	if urls == nil {
		urls = []string{}
	}

	resp := &GalleryResponse{}
	resp.Body.Avatars = urls

	return resp, nil
}

func (h *ProfileHandler) UploadAvatar(ctx context.Context, req *UploadAvatarRequest) (*UploadAvatarResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	image := req.RawBody.Data().Image
	if !image.IsSet {
		return nil, huma.Error400BadRequest("image is required")
	}

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(image, profile.MaxAvatarSize+1))
	if err != nil {
		return nil, huma.Error400BadRequest("failed to read image")
	}

	url, err := h.profiles.UploadAvatar(ctx, userID, image.ContentType, data)
	if err != nil {
		return nil, apiError(h.logger, "upload avatar", err)
	}

	resp := &UploadAvatarResponse{}
	resp.Body.URL = url

	return resp, nil
}

func profileResponse(p *profile.Profile) *ProfileResponse {
	return &ProfileResponse{Body: ProfileBody{
		FullName:  p.FullName,
		Website:   p.Website,
		Email:     p.Email,
		AvatarURL: p.AvatarURL,
		UpdatedAt: p.UpdatedAt,
	}}
}
