package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/njoerd114/kvault/internal/model"
)

func categoryPath(id int64) string { return fmt.Sprintf("/categories/%d", id) }

// ListCategories returns every category, ordered by name, with item counts.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := c.get(ctx, "/categories/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryTree returns the root categories with their nested children.
func (c *Client) CategoryTree(ctx context.Context) ([]model.CategoryNode, error) {
	var out []model.CategoryNode
	if err := c.get(ctx, "/categories/tree", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidParams)
	}
	var cat model.Category
	if err := c.sendJSON(ctx, http.MethodPost, "/categories/", in, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategory applies patch to the category.
func (c *Client) UpdateCategory(ctx context.Context, id int64, patch model.CategoryPatch) (*model.Category, error) {
	var cat model.Category
	if err := c.sendJSON(ctx, http.MethodPut, categoryPath(id), patch, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes the category. The backend leaves its items
// uncategorized.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: categoryPath(id)}, nil)
}
