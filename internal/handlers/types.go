package handlers

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// LinkBody is the public view of a link.
type LinkBody struct {
	Token     string    `doc:"The short token"      example:"NkK9xy"                             json:"token"`
	ShortURL  string    `doc:"The full short URL"   example:"http://localhost:8888/NkK9xy"       json:"shortUrl"`
	LongURL   string    `doc:"The original URL"     example:"https://example.com/very/long/path" json:"longUrl"`
	Tags      []string  `doc:"Tags on the link"     json:"tags"`
	CreatedAt time.Time `doc:"Creation time (UTC)"  json:"createdAt"`
}

// CreateLinkRequest is the request body for creating a short URL.
type CreateLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url"`
		// Antibot is a honeypot: browsers leave the hidden field empty.
		Antibot string `doc:"Leave empty" json:"antibot,omitempty"`
	}
}

// CreateLinkResponse is the response for a successfully created short URL.
type CreateLinkResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		LinkBody
		Remaining int `doc:"Links left in the quota" json:"remaining"`
	}
}

// ListLinksRequest filters the caller's links.
type ListLinksRequest struct {
	URL       string   `doc:"Substring of the long URL (case-insensitive)" query:"url"`
	CreatedOn string   `doc:"Creation day in UTC"                          example:"2025-01-31" query:"createdOn"`
	Tags      []string `doc:"Tags to match"                                query:"tags"`
	ExactTags bool     `doc:"Require all tags instead of any"              query:"exact"`
	Order     string   `default:"desc"                                     enum:"asc,desc"      query:"order"`
}

// ListLinksResponse lists links.
type ListLinksResponse struct {
	Body struct {
		Links []LinkBody `json:"links"`
	}
}

// QuotaResponse reports the caller's link quota.
type QuotaResponse struct {
	Body struct {
		Quota     int `doc:"Maximum links per user" json:"quota"`
		Remaining int `doc:"Links left"             json:"remaining"`
	}
}

// TokenRequest addresses one link. A full short URL is accepted as well.
type TokenRequest struct {
	Token string `doc:"The short token" example:"NkK9xy" path:"token"`
}

// TagsResponse lists tags.
type TagsResponse struct {
	Body struct {
		Tags []string `json:"tags"`
	}
}

// SetTagsRequest replaces a link's tags.
type SetTagsRequest struct {
	Token string `path:"token"`
	Body  struct {
		Tags []string `doc:"Invalid and duplicate tags are dropped, at most 5 kept" json:"tags"`
	}
}

// AddTagRequest adds one tag to a link.
type AddTagRequest struct {
	Token string `path:"token"`
	Body  struct {
		Tag string `example:"golang" json:"tag"`
	}
}

// RemoveTagRequest removes one tag from a link.
type RemoveTagRequest struct {
	Token string `path:"token"`
	Tag   string `path:"tag"`
}

// PopularTagsRequest limits the popular tags result.
type PopularTagsRequest struct {
	Limit int `default:"10" maximum:"100" minimum:"1" query:"limit"`
}

// TagCountBody is a tag with its usage count.
type TagCountBody struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// PopularTagsResponse lists the most used tags.
type PopularTagsResponse struct {
	Body struct {
		Tags []TagCountBody `json:"tags"`
	}
}

// TagRequest addresses a tag.
type TagRequest struct {
	Tag string `path:"tag"`
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Token string `doc:"The short token" example:"NkK9xy" path:"token"`
}

// RedirectResponse redirects to the long URL.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}

// CredentialsRequest carries an email and a password.
type CredentialsRequest struct {
	Body struct {
		Email    string `example:"ada@example.com" json:"email"`
		Password string `json:"password"`
	}
}

// UserResponse describes an account.
type UserResponse struct {
	Body struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Confirmed bool      `json:"confirmed"`
		CreatedAt time.Time `json:"createdAt"`
	}
}

// ConfirmRequest redeems a confirmation token.
type ConfirmRequest struct {
	Token string `query:"token" required:"true"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// SessionResponse carries an access token.
type SessionResponse struct {
	Body struct {
		AccessToken string    `json:"accessToken"`
		TokenType   string    `example:"Bearer" json:"tokenType"`
		ExpiresAt   time.Time `json:"expiresAt"`
	}
}

// EmailRequest carries an email address.
type EmailRequest struct {
	Body struct {
		Email string `example:"ada@example.com" json:"email"`
	}
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	Body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
}

// UpdatePasswordRequest changes the caller's password.
type UpdatePasswordRequest struct {
	Body struct {
		Password string `json:"password"`
	}
}

// EmailExistsRequest checks whether an email is registered.
type EmailExistsRequest struct {
	Email string `query:"email" required:"true"`
}

// EmailExistsResponse reports whether an email is registered.
type EmailExistsResponse struct {
	Body struct {
		Exists bool `json:"exists"`
	}
}

// ProfileBody is the public view of a profile.
type ProfileBody struct {
	FullName  string    `json:"fullName"`
	Website   string    `json:"website"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileResponse returns a profile.
type ProfileResponse struct {
	Body ProfileBody
}

// UpdateProfileRequest changes profile fields. Omitted fields are kept and
// empty strings clear them.
type UpdateProfileRequest struct {
	Body struct {
		FullName *string `json:"fullName,omitempty" maxLength:"40"`
		Website  *string `json:"website,omitempty"  maxLength:"1000"`
		Email    *string `json:"email,omitempty"`
	}
}

// SetAvatarRequest picks an avatar by URL.
type SetAvatarRequest struct {
	Body struct {
		URL string `doc:"A gallery avatar or one of your uploads" json:"url"`
	}
}

// GalleryRequest pages through the avatar gallery.
type GalleryRequest struct {
	Offset int `default:"0" maximum:"100" minimum:"0" query:"offset"`
}

// GalleryResponse lists avatar URLs.
type GalleryResponse struct {
	Body struct {
		Avatars []string `json:"avatars"`
	}
}

// UploadAvatarRequest is a multipart form with the image in field "image".
type UploadAvatarRequest struct {
	RawBody huma.MultipartFormFiles[struct {
		Image huma.FormFile `contentType:"image/png,image/jpeg,image/gif,image/webp,image/svg+xml" form:"image" required:"true"`
	}]
}

// UploadAvatarResponse returns the uploaded avatar URL.
type UploadAvatarResponse struct {
	Body struct {
		URL string `json:"url"`
	}
}
