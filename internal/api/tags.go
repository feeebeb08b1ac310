package api

import (
	"context"
	"net/url"

	"campus/internal/models"
)

// ListTags fetches the tag vocabulary, filtered by query when non-empty.
// An empty query returns the unfiltered list.
func (c *Client) ListTags(ctx context.Context, query string) ([]models.Tag, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	var out []models.Tag
	if err := c.getJSON(ctx, "tags.list", "/api/posts/tags", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
