// Package web serves the client views over HTTP. Each view triggers store
// actions and writes a JSON view model; layout and styling are left to
// whatever consumes the JSON.
package web

import (
	"context"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
)

// Store is the part of the session store the views use.
// Implemented by [store.Store].
type Store interface {
	FetchCategories(ctx context.Context)
	LoadItems(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error)
	FetchStats(ctx context.Context)
	LoadSearch(ctx context.Context, query string, p api.SearchParams) (*model.ItemPage, error)
	Health(ctx context.Context) (*model.Health, error)

	Categories() []model.Category
	CategoriesWithItems() []model.CategoryWithItems
	Stats() *model.Stats
	Loading() bool

	SetSearchQuery(q string)
	SearchQuery() string
	SelectCategory(id *int64)
	SelectedCategory() *int64
}
