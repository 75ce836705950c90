package profile

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/objectstore"
	"go.uber.org/zap"
)

const (
	// GalleryPageSize is the number of avatars per gallery page.
	GalleryPageSize = 6
	// MaxGalleryOffset caps how deep the gallery can be paged.
	MaxGalleryOffset = 100
	// MaxAvatarSize is the upload limit for user avatars.
	MaxAvatarSize = 2 << 20

	avatarPrefix = "avatar-"
)

var allowedImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

// Service implements profile and avatar operations. gallery holds the stock
// avatars everyone may pick; avatars holds uploads under "<user id>/".
type Service struct {
	repo    Repository
	gallery objectstore.Store
	avatars objectstore.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a profile service.
func NewService(repo Repository, gallery, avatars objectstore.Store, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		gallery: gallery,
		avatars: avatars,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the user's profile, or an empty one if none was saved yet.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &Profile{UserID: userID}, nil
	}

	return p, err
}

// Update validates and applies the provided fields.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, u Update) (*Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		if name != "" {
			if err := validateName(name); err != nil {
				return nil, err
			}
		}

		p.FullName = name
	}

	if u.Website != nil {
		website := strings.TrimSpace(*u.Website)
		if website != "" {
			if err := validateWebsite(website); err != nil {
				return nil, err
			}
		}

		p.Website = website
	}

	if u.Email != nil {
		email := strings.TrimSpace(*u.Email)
		if email != "" {
			if email, err = account.NormalizeEmail(email); err != nil {
				return nil, err
			}
		}

		p.Email = email
	}

	return s.save(ctx, p)
}

// SetAvatar points the profile at a gallery avatar or one of the user's own uploads.
func (s *Service) SetAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*Profile, error) {
	avatarURL = strings.TrimSpace(avatarURL)

	own := s.avatars.URL(userID.String() + "/")
	if !hasURLPrefix(avatarURL, s.gallery.URL("")) && !hasURLPrefix(avatarURL, own) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAvatarURL, avatarURL)
	}

	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.AvatarURL = avatarURL

	return s.save(ctx, p)
}

// Gallery returns a page of avatar URLs. On the first page the user's own
// upload, if any, comes first and takes one of the slots.
func (s *Service) Gallery(ctx context.Context, userID uuid.UUID, offset int) ([]string, error) {
	offset = min(max(offset, 0), MaxGalleryOffset)
	limit := GalleryPageSize
	urls := make([]string, 0, GalleryPageSize)

	if offset == 0 {
		own, err := s.ownAvatars(ctx, userID)
		if err != nil {
			return nil, err
		}

		if len(own) > 0 {
			urls = append(urls, s.avatars.URL(own[0].Key))
			limit--
		}
	}

	objs, err := s.gallery.List(ctx, "", offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	for _, obj := range objs {
		urls = append(urls, s.gallery.URL(obj.Key))
	}

	return urls, nil
}

// UploadAvatar stores a new avatar for the user, removes the previous ones
// and returns the public URL of the upload.
func (s *Service) UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(allowedImageTypes, mediaType) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}

	if len(data) > MaxAvatarSize {
		return "", fmt.Errorf("%w: at most %d bytes", ErrImageTooLarge, MaxAvatarSize)
	}

	previous, err := s.ownAvatars(ctx, userID)
	if err != nil {
		return "", err
	}

	key := userID.String() + "/" + avatarPrefix + uuid.NewString()

	if err := s.avatars.Put(ctx, key, data, mediaType); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if len(previous) > 0 {
		old := make([]string, 0, len(previous))
		for _, obj := range previous {
			old = append(old, obj.Key)
		}

		if err := s.avatars.Delete(ctx, old...); err != nil {
			s.logger.Warn("failed to remove old avatars",
				zap.String("user_id", userID.String()),
				zap.Strings("keys", old),
				zap.Error(err),
			)
		}
	}

	return s.avatars.URL(key), nil
}

func (s *Service) ownAvatars(ctx context.Context, userID uuid.UUID) ([]objectstore.Object, error) {
	objs, err := s.avatars.List(ctx, userID.String()+"/"+avatarPrefix, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list user avatars: %w", err)
	}

	return objs, nil
}

func (s *Service) save(ctx context.Context, p *Profile) (*Profile, error) {
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}
