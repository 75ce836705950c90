package shortener

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Service implements link management on top of a Repository and a TokenCodec.
type Service struct {
	repo  Repository
	codec TokenCodec
	quota int
	now   func() time.Time
}

// NewService creates a link service. A non-positive quota falls back to DefaultQuota.
func NewService(repo Repository, codec TokenCodec, quota int) *Service {
	if quota <= 0 {
		quota = DefaultQuota
	}

	return &Service{
		repo:  repo,
		codec: codec,
		quota: quota,
		now:   time.Now,
	}
}

// Create stores a new link for owner. A non-empty antibot value means the
// honeypot field was filled in.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, longURL, antibot string) (*ShortLink, error) {
	if antibot != "" {
		return nil, ErrBotDetected
	}

	normalized, err := NormalizeURL(longURL)
	if err != nil {
		return nil, err
	}

	link := &Link{
		OwnerID:   owner,
		LongURL:   normalized,
		Tags:      []string{},
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, link, s.quota); err != nil {
		return nil, err
	}

	return s.withToken(*link)
}

// Resolve returns the link behind a public token.
func (s *Service) Resolve(ctx context.Context, token string) (*Link, error) {
	id, err := s.codec.Decode(token)
	if err != nil {
		return nil, ErrNotFound
	}

	return s.repo.GetByID(ctx, id)
}

// Delete removes the owner's link behind token and returns its id.
func (s *Service) Delete(ctx context.Context, owner uuid.UUID, token string) (int64, error) {
	id, err := s.codec.Decode(token)
	if err != nil {
		return 0, ErrNotFound
	}

	if err := s.repo.Delete(ctx, id, owner); err != nil {
		return 0, err
	}

	return id, nil
}

// List returns the owner's links matching filter.
func (s *Service) List(ctx context.Context, owner uuid.UUID, filter Filter) ([]ShortLink, error) {
	links, err := s.repo.List(ctx, owner, filter)
	if err != nil {
		return nil, err
	}

	return s.withTokens(links)
}

// Remaining returns how many more links owner may create.
func (s *Service) Remaining(ctx context.Context, owner uuid.UUID) (int, error) {
	count, err := s.repo.Count(ctx, owner)
	if err != nil {
		return 0, err
	}

	return max(s.quota-count, 0), nil
}

// Quota returns the per-user link limit.
func (s *Service) Quota() int {
	return s.quota
}

// Tags returns the tags of the owner's link behind token.
func (s *Service) Tags(ctx context.Context, owner uuid.UUID, token string) ([]string, error) {
	link, err := s.owned(ctx, owner, token)
	if err != nil {
		return nil, err
	}

	return link.Tags, nil
}

// SetTags replaces the link's tags with the valid, deduplicated subset of tags.
func (s *Service) SetTags(ctx context.Context, owner uuid.UUID, token string, tags []string) ([]string, error) {
	link, err := s.owned(ctx, owner, token)
	if err != nil {
		return nil, err
	}

	cleaned := CleanTags(tags)

	if err := s.repo.UpdateTags(ctx, link.ID, owner, cleaned); err != nil {
		return nil, err
	}

	return cleaned, nil
}

// AddTag appends a single tag to the link.
func (s *Service) AddTag(ctx context.Context, owner uuid.UUID, token, tag string) ([]string, error) {
	tag, err := ValidateTag(tag)
	if err != nil {
		return nil, err
	}

	link, err := s.owned(ctx, owner, token)
	if err != nil {
		return nil, err
	}

	if slices.Contains(link.Tags, tag) {
		return nil, fmt.Errorf("%w: %s", ErrTagExists, tag)
	}

	if len(link.Tags) >= MaxTags {
		return nil, fmt.Errorf("%w: at most %d", ErrTooManyTags, MaxTags)
	}

	tags := append(slices.Clone(link.Tags), tag)

	if err := s.repo.UpdateTags(ctx, link.ID, owner, tags); err != nil {
		return nil, err
	}

	return tags, nil
}

// RemoveTag drops a single tag from the link.
func (s *Service) RemoveTag(ctx context.Context, owner uuid.UUID, token, tag string) ([]string, error) {
	link, err := s.owned(ctx, owner, token)
	if err != nil {
		return nil, err
	}

	idx := slices.Index(link.Tags, tag)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
	}

	tags := slices.Delete(slices.Clone(link.Tags), idx, idx+1)

	if err := s.repo.UpdateTags(ctx, link.ID, owner, tags); err != nil {
		return nil, err
	}

	return tags, nil
}

// AllTags returns every tag the owner uses, sorted by name.
func (s *Service) AllTags(ctx context.Context, owner uuid.UUID) ([]string, error) {
	counts, err := s.repo.TagCounts(ctx, owner)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(counts))
	for _, c := range counts {
		tags = append(tags, c.Tag)
	}

	slices.Sort(tags)

	return tags, nil
}

// SearchByTag returns the owner's links carrying tag, newest first.
func (s *Service) SearchByTag(ctx context.Context, owner uuid.UUID, tag string) ([]ShortLink, error) {
	tag, err := ValidateTag(tag)
	if err != nil {
		return nil, err
	}

	return s.List(ctx, owner, Filter{Tags: []string{tag}, ExactTags: true})
}

// MostUsedTags returns up to limit tags ordered by usage, then by name.
func (s *Service) MostUsedTags(ctx context.Context, owner uuid.UUID, limit int) ([]TagCount, error) {
	if limit <= 0 {
		limit = DefaultPopularTags
	}

	counts, err := s.repo.TagCounts(ctx, owner)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(counts, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Tag, b.Tag)
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}

	return counts, nil
}

func (s *Service) owned(ctx context.Context, owner uuid.UUID, token string) (*Link, error) {
	link, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if link.OwnerID != owner {
		return nil, ErrNotFound
	}

	return link, nil
}

func (s *Service) withToken(link Link) (*ShortLink, error) {
	token, err := s.codec.Encode(link.ID)
	if err != nil {
		return nil, fmt.Errorf("encode link %d: %w", link.ID, err)
	}

	return &ShortLink{Link: link, Token: token}, nil
}

func (s *Service) withTokens(links []Link) ([]ShortLink, error) {
	out := make([]ShortLink, 0, len(links))

	for _, link := range links {
		sl, err := s.withToken(link)
		if err != nil {
			return nil, err
		}

		out = append(out, *sl)
	}

	return out, nil
}

