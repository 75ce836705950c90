package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/profile"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

var bearer = []map[string][]string{{auth.SecurityScheme: {}}}

func scope(s ratelimit.Scope) map[string]any {
	return map[string]any{ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: s}}
}

// RegisterRoutes registers the link, tag and redirect routes.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/links",
		Summary:       "Create short URL",
		Description:   "Shortens a URL. Each user may hold a limited number of links.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List your links",
		Tags:        []string{"Links"},
		Security:    bearer,
	}, h.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "link-quota",
		Method:      http.MethodGet,
		Path:        "/links/quota",
		Summary:     "Link quota",
		Tags:        []string{"Links"},
		Security:    bearer,
	}, h.Quota)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/links/{token}",
		Summary:       "Delete a link",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
	}, h.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link-tags",
		Method:      http.MethodGet,
		Path:        "/links/{token}/tags",
		Summary:     "Tags of a link",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, h.GetTags)

	huma.Register(api, huma.Operation{
		OperationID: "set-link-tags",
		Method:      http.MethodPut,
		Path:        "/links/{token}/tags",
		Summary:     "Replace the tags of a link",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, h.SetTags)

	huma.Register(api, huma.Operation{
		OperationID: "add-link-tag",
		Method:      http.MethodPost,
		Path:        "/links/{token}/tags",
		Summary:     "Add a tag to a link",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, h.AddTag)

	huma.Register(api, huma.Operation{
		OperationID: "remove-link-tag",
		Method:      http.MethodDelete,
		Path:        "/links/{token}/tags/{tag}",
		Summary:     "Remove a tag from a link",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, h.RemoveTag)

	huma.Register(api, huma.Operation{
		OperationID: "list-tags",
		Method:      http.MethodGet,
		Path:        "/tags",
		Summary:     "All your tags",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, h.AllTags)

	huma.Register(api, huma.Operation{
		OperationID: "popular-tags",
		Method:      http.MethodGet,
		Path:        "/tags/popular",
		Summary:     "Most used tags",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, h.PopularTags)

	huma.Register(api, huma.Operation{
		OperationID: "links-by-tag",
		Method:      http.MethodGet,
		Path:        "/tags/{tag}/links",
		Summary:     "Links carrying a tag",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, h.LinksByTag)

	// Redirects are the hot path, so they get their own relaxed budget
	// instead of the read scope.
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{token}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL behind the token.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, h.Redirect)
}

// RegisterAuthRoutes registers account routes. Credential endpoints share
// the auth rate limit scope.
func RegisterAuthRoutes(api huma.API, h *AuthHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "sign-up",
		Method:        http.MethodPost,
		Path:          "/auth/signup",
		Summary:       "Create an account",
		Description:   "Creates an unconfirmed account and sends a confirmation link.",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
		Metadata:      scope(ratelimit.ScopeAuth),
	}, h.SignUp)

	huma.Register(api, huma.Operation{
		OperationID: "confirm-email",
		Method:      http.MethodGet,
		Path:        "/auth/confirm",
		Summary:     "Confirm an email address",
		Tags:        []string{"Auth"},
		Metadata:    scope(ratelimit.ScopeAuth),
	}, h.Confirm)

	huma.Register(api, huma.Operation{
		OperationID: "log-in",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in",
		Tags:        []string{"Auth"},
		Metadata:    scope(ratelimit.ScopeAuth),
	}, h.LogIn)

	huma.Register(api, huma.Operation{
		OperationID:   "log-out",
		Method:        http.MethodPost,
		Path:          "/auth/logout",
		Summary:       "Log out",
		Description:   "Revokes the bearer token used for the request.",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
	}, h.LogOut)

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Current user",
		Tags:        []string{"Auth"},
		Security:    bearer,
	}, h.Me)

	huma.Register(api, huma.Operation{
		OperationID:   "request-password-reset",
		Method:        http.MethodPost,
		Path:          "/auth/password/reset-request",
		Summary:       "Request a password reset link",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusAccepted,
		Metadata:      scope(ratelimit.ScopeAuth),
	}, h.RequestPasswordReset)

	huma.Register(api, huma.Operation{
		OperationID:   "reset-password",
		Method:        http.MethodPost,
		Path:          "/auth/password/reset",
		Summary:       "Reset a password with a reset token",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
		Metadata:      scope(ratelimit.ScopeAuth),
	}, h.ResetPassword)

	huma.Register(api, huma.Operation{
		OperationID:   "update-password",
		Method:        http.MethodPut,
		Path:          "/auth/password",
		Summary:       "Change your password",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
		Metadata:      scope(ratelimit.ScopeAuth),
	}, h.UpdatePassword)

	huma.Register(api, huma.Operation{
		OperationID: "email-exists",
		Method:      http.MethodGet,
		Path:        "/auth/email-exists",
		Summary:     "Check whether an email is registered",
		Tags:        []string{"Auth"},
		Metadata:    scope(ratelimit.ScopeAuth),
	}, h.EmailExists)
}

// RegisterProfileRoutes registers profile and avatar routes.
func RegisterProfileRoutes(api huma.API, h *ProfileHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Your profile",
		Tags:        []string{"Profile"},
		Security:    bearer,
	}, h.GetProfile)

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPatch,
		Path:        "/profile",
		Summary:     "Update your profile",
		Tags:        []string{"Profile"},
		Security:    bearer,
	}, h.UpdateProfile)

	huma.Register(api, huma.Operation{
		OperationID: "set-avatar",
		Method:      http.MethodPut,
		Path:        "/profile/avatar",
		Summary:     "Pick an avatar",
		Tags:        []string{"Profile"},
		Security:    bearer,
	}, h.SetAvatar)

	huma.Register(api, huma.Operation{
		OperationID: "avatar-gallery",
		Method:      http.MethodGet,
		Path:        "/profile/avatars",
		Summary:     "Avatar gallery",
		Description: "Pages through the avatar gallery. Your own upload is listed first.",
		Tags:        []string{"Profile"},
		Security:    bearer,
	}, h.Gallery)

	huma.Register(api, huma.Operation{
		OperationID:   "upload-avatar",
		Method:        http.MethodPost,
		Path:          "/profile/avatar/upload",
		Summary:       "Upload an avatar",
		Description:   "Accepts png, jpeg, gif, webp and svg images up to 2 MiB in the form field image.",
		Tags:          []string{"Profile"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
		MaxBodyBytes:  profile.MaxAvatarSize + 64<<10,
		Metadata:      scope(ratelimit.ScopeUpload),
	}, h.UploadAvatar)
}
