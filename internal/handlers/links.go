package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler serves link, tag and redirect operations.
type LinkHandler struct {
	links     *shortener.Service
	baseURL   string
	publisher *analytics.Publisher
	logger    *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	links *shortener.Service,
	baseURL string,
	publisher *analytics.Publisher,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		links:     links,
		baseURL:   baseURL,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	link, err := h.links.Create(ctx, owner, req.Body.URL, req.Body.Antibot)
	if err != nil {
		return nil, apiError(h.logger, "create link", err)
	}

	visitor := VisitorFrom(ctx)
	event := &analytics.LinkCreatedEvent{
		LinkID:    link.ID,
		Token:     link.Token,
		OwnerID:   owner.String(),
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt,
		ClientIP:  visitor.IP,
		UserAgent: visitor.UserAgent,
	}

	if err := h.publisher.Created(event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("token", link.Token),
			zap.Error(err),
		)
	}

	remaining, err := h.links.Remaining(ctx, owner)
	if err != nil {
		return nil, apiError(h.logger, "count links", err)
	}

	resp := &CreateLinkResponse{}
	resp.Body.LinkBody = h.linkBody(*link)
	resp.Body.Remaining = remaining
	resp.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, req *ListLinksRequest) (*ListLinksResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	filter := shortener.Filter{
		URLContains: req.URL,
		Tags:        req.Tags,
		ExactTags:   req.ExactTags,
		Ascending:   req.Order == "asc",
	}

	if req.CreatedOn != "" {
		day, err := time.Parse(time.DateOnly, req.CreatedOn)
		if err != nil {
			return nil, huma.Error400BadRequest("createdOn must be a YYYY-MM-DD date")
		}

		filter.CreatedOn = day
	}

	links, err := h.links.List(ctx, owner, filter)
	if err != nil {
		return nil, apiError(h.logger, "list links", err)
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = h.linkBodies(links)

	return resp, nil
}

func (h *LinkHandler) Quota(ctx context.Context, _ *struct{}) (*QuotaResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	remaining, err := h.links.Remaining(ctx, owner)
	if err != nil {
		return nil, apiError(h.logger, "count links", err)
	}

	resp := &QuotaResponse{}
	resp.Body.Quota = h.links.Quota()
	resp.Body.Remaining = remaining

	return resp, nil
}

func (h *LinkHandler) DeleteLink(ctx context.Context, req *TokenRequest) (*struct{}, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	token := h.token(req.Token)

	id, err := h.links.Delete(ctx, owner, token)
	if err != nil {
		return nil, apiError(h.logger, "delete link", err)
	}

	event := &analytics.LinkDeletedEvent{
		LinkID:    id,
		Token:     token,
		OwnerID:   owner.String(),
		DeletedAt: time.Now().UTC(),
	}

	if err := h.publisher.Deleted(event); err != nil {
		h.logger.Error("failed to publish delete event",
			zap.String("token", token),
			zap.Error(err),
		)
	}

	return nil, nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.links.Resolve(ctx, req.Token)
	if err != nil {
		return nil, apiError(h.logger, "resolve link", err)
	}

	visitor := VisitorFrom(ctx)
	event := &analytics.LinkAccessedEvent{
		LinkID:     link.ID,
		Token:      req.Token,
		AccessedAt: time.Now().UTC(),
		ClientIP:   visitor.IP,
		UserAgent:  visitor.UserAgent,
		Referrer:   visitor.Referrer,
	}

	if err := h.publisher.Accessed(event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("token", req.Token),
			zap.Error(err),
		)
	}

	return &RedirectResponse{
		Status:   http.StatusMovedPermanently,
		Location: link.LongURL,
	}, nil
}

// token accepts either a bare token or a full short URL.
func (h *LinkHandler) token(raw string) string {
	return shortener.TokenFromInput(raw, h.baseURL)
}

func (h *LinkHandler) linkBody(link shortener.ShortLink) LinkBody {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}

	return LinkBody{
		Token:     link.Token,
		ShortURL:  h.baseURL + "/" + link.Token,
		LongURL:   link.LongURL,
		Tags:      tags,
		CreatedAt: link.CreatedAt,
	}
}

func (h *LinkHandler) linkBodies(links []shortener.ShortLink) []LinkBody {
	out := make([]LinkBody, 0, len(links))
	for _, link := range links {
		out = append(out, h.linkBody(link))
	}

	return out
}
