// Package store is the session-wide cache of data fetched from the
// KnowledgeVault backend. Views read categories, items, and stats through a
// [*Store] and trigger actions on it; they never call the API client directly.
//
// Read actions log and swallow failures, leaving the cache at its previous
// value. Write actions log and return the error so the caller can report it.
// Every fetch runs as a cancellable task keyed by intent; a response that is
// no longer the latest for its intent is discarded.
package store

import (
	"context"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/cache"
	"github.com/njoerd114/kvault/internal/model"
)

// Backend is the set of backend operations the store uses.
// Implemented by [api.Client].
type Backend interface {
	ListItems(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error)
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error)
	UpdateItem(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ToggleFavorite(ctx context.Context, id int64) (*model.Item, error)
	AISummary(ctx context.Context, id int64) (*model.AISummary, error)
	Associations(ctx context.Context, id int64) ([]model.ItemBrief, error)
	AddAssociation(ctx context.Context, id, targetID int64) error
	RemoveAssociation(ctx context.Context, id, targetID int64) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CategoryTree(ctx context.Context) ([]model.CategoryNode, error)
	CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, patch model.CategoryPatch) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ImportFile(ctx context.Context, p api.ImportFileParams) (*model.Item, error)
	ImportURL(ctx context.Context, p api.ImportURLParams) (*model.Item, error)
	ImportPath(ctx context.Context, req api.ImportPathRequest) (*model.ImportResult, error)
	Reclassify(ctx context.Context, id int64) (*model.Item, error)

	Search(ctx context.Context, p api.SearchParams) (*model.ItemPage, error)
	ItemsByCategory(ctx context.Context, limit int) (map[string]model.CategoryGroup, error)
	Stats(ctx context.Context) (*model.Stats, error)
	Health(ctx context.Context) (*model.Health, error)
}

// Persister stores a snapshot of the cache between sessions.
// Implemented by [cache.Cache].
type Persister interface {
	SaveCategories(ctx context.Context, cats []model.Category) error
	SaveItems(ctx context.Context, items []model.Item) error
	SaveStats(ctx context.Context, stats *model.Stats) error
	Load(ctx context.Context) (*cache.Snapshot, error)
}
