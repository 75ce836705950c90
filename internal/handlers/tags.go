package handlers

import (
	"context"
)

func (h *LinkHandler) GetTags(ctx context.Context, req *TokenRequest) (*TagsResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := h.links.Tags(ctx, owner, h.token(req.Token))
	if err != nil {
		return nil, apiError(h.logger, "get tags", err)
	}

	return tagsResponse(tags), nil
}

func (h *LinkHandler) SetTags(ctx context.Context, req *SetTagsRequest) (*TagsResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := h.links.SetTags(ctx, owner, h.token(req.Token), req.Body.Tags)
	if err != nil {
		return nil, apiError(h.logger, "set tags", err)
	}

	return tagsResponse(tags), nil
}

func (h *LinkHandler) AddTag(ctx context.Context, req *AddTagRequest) (*TagsResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := h.links.AddTag(ctx, owner, h.token(req.Token), req.Body.Tag)
	if err != nil {
		return nil, apiError(h.logger, "add tag", err)
	}

	return tagsResponse(tags), nil
}

func (h *LinkHandler) RemoveTag(ctx context.Context, req *RemoveTagRequest) (*TagsResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := h.links.RemoveTag(ctx, owner, h.token(req.Token), req.Tag)
	if err != nil {
		return nil, apiError(h.logger, "remove tag", err)
	}

	return tagsResponse(tags), nil
}

func (h *LinkHandler) AllTags(ctx context.Context, _ *struct{}) (*TagsResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := h.links.AllTags(ctx, owner)
	if err != nil {
		return nil, apiError(h.logger, "list tags", err)
	}

	return tagsResponse(tags), nil
}

func (h *LinkHandler) PopularTags(ctx context.Context, req *PopularTagsRequest) (*PopularTagsResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := h.links.MostUsedTags(ctx, owner, req.Limit)
	if err != nil {
		return nil, apiError(h.logger, "popular tags", err)
	}

	resp := &PopularTagsResponse{}
	resp.Body.Tags = make([]TagCountBody, 0, len(counts))

	for _, c := range counts {
		resp.Body.Tags = append(resp.Body.Tags, TagCountBody{Tag: c.Tag, Count: c.Count})
	}

	return resp, nil
}

func (h *LinkHandler) LinksByTag(ctx context.Context, req *TagRequest) (*ListLinksResponse, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	links, err := h.links.SearchByTag(ctx, owner, req.Tag)
	if err != nil {
		return nil, apiError(h.logger, "search by tag", err)
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = h.linkBodies(links)

	return resp, nil
}

func tagsResponse(tags []string) *TagsResponse {
	if tags == nil {
		tags = []string{}
	}

	resp := &TagsResponse{}
	resp.Body.Tags = tags

	return resp
}
