package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/njoerd114/kvault/internal/model"
)

// ListItems returns one page of items matching p.
func (c *Client) ListItems(ctx context.Context, p ListItemsParams) (*model.ItemPage, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	var page model.ItemPage
	if err := c.get(ctx, "/items/", p.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListFavorites is [Client.ListItems] restricted to favorited items.
func (c *Client) ListFavorites(ctx context.Context, p ListItemsParams) (*model.ItemPage, error) {
	p.FavoritesOnly = true
	return c.ListItems(ctx, p)
}

// GetItem fetches a single item.
func (c *Client) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	if err := c.get(ctx, itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem creates a note-style item.
func (c *Client) CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidParams)
	}
	var item model.Item
	if err := c.sendJSON(ctx, http.MethodPost, "/items/", in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies patch to the item and returns the updated item.
func (c *Client) UpdateItem(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	var item model.Item
	if err := c.sendJSON(ctx, http.MethodPut, itemPath(id), patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes the item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: itemPath(id)}, nil)
}

// AISummary asks the backend to summarise the item and recommend a category.
// It runs under the extended AI timeout instead of the default one.
func (c *Client) AISummary(ctx context.Context, id int64) (*model.AISummary, error) {
	var summary model.AISummary
	r := request{method: http.MethodPost, path: itemPath(id, "ai-summary"), timeout: c.aiTimeout}
	if err := c.do(ctx, r, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ToggleFavorite flips the item's favorite flag and returns the updated item.
func (c *Client) ToggleFavorite(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	if err := c.sendJSON(ctx, http.MethodPost, itemPath(id, "favorite"), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// AddAssociation links the item to targetID.
func (c *Client) AddAssociation(ctx context.Context, id, targetID int64) error {
	body := struct {
		AssociatedItemID int64 `json:"associated_item_id"`
	}{targetID}
	return c.sendJSON(ctx, http.MethodPost, itemPath(id, "associations"), body, nil)
}

// RemoveAssociation unlinks the item from targetID.
func (c *Client) RemoveAssociation(ctx context.Context, id, targetID int64) error {
	path := itemPath(id, "associations", fmt.Sprint(targetID))
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

// Associations lists the items associated with the item.
func (c *Client) Associations(ctx context.Context, id int64) ([]model.ItemBrief, error) {
	var out []model.ItemBrief
	if err := c.get(ctx, itemPath(id, "associations"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
