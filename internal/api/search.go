package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/njoerd114/kvault/internal/model"
)

// Search runs a free-text search.
func (c *Client) Search(ctx context.Context, p SearchParams) (*model.ItemPage, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	var page model.ItemPage
	if err := c.get(ctx, "/search/", p.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ItemsByCategory returns the most recent items of every category, keyed by
// category name. A non-positive limit uses [DefaultLimitPerCategory].
func (c *Client) ItemsByCategory(ctx context.Context, limit int) (map[string]model.CategoryGroup, error) {
	if limit <= 0 {
		limit = DefaultLimitPerCategory
	}
	if err := validate.Var(limit, "min=1,max=20"); err != nil {
		return nil, fmt.Errorf("%w: limit per category: %v", ErrInvalidParams, err)
	}
	q := url.Values{}
	q.Set("limit_per_category", strconv.Itoa(limit))

	var out map[string]model.CategoryGroup
	if err := c.get(ctx, "/search/by-category", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the vault's aggregate statistics.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.get(ctx, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health calls the backend health check.
func (c *Client) Health(ctx context.Context) (*model.Health, error) {
	var h model.Health
	if err := c.get(ctx, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// WaitHealthy probes the health check with retry and backoff until the
// backend answers. Use it before long-running commands; regular endpoint
// methods never retry.
func (c *Client) WaitHealthy(ctx context.Context) error {
	err := Retry(ctx, defaultMaxAttempts, func() error {
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		if !h.Healthy() {
			return fmt.Errorf("backend status %q", h.Status)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("wait for backend at %s: %w", c.baseURL, err)
	}
	return nil
}
