package store

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
)

// DeleteItem deletes the item on the backend, then removes it from the cache
// and refreshes stats once. On failure the cache is unchanged and the error
// is returned.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	_, err := run(ctx, s, "delete_item", itemAttr(id), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.DeleteItem(ctx, id)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	before := len(s.items)
	s.items = removeItem(s.items, id)
	removed := len(s.items) != before
	s.mu.Unlock()
	if removed {
		s.notify(FieldItems)
	}

	s.FetchStats(ctx)
	return nil
}

// ReclassifyItem re-runs classification for the item. The cached item with
// the same id, if any, is replaced by the result; nothing is inserted
// otherwise. The backend's item is returned either way.
func (s *Store) ReclassifyItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := run(ctx, s, "reclassify_item", itemAttr(id), func(ctx context.Context) (*model.Item, error) {
		return s.backend.Reclassify(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.replaceCached(item)
	return item, nil
}

// ToggleFavorite flips the item's favorite flag and updates the cached copy.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (*model.Item, error) {
	item, err := run(ctx, s, "toggle_favorite", itemAttr(id), func(ctx context.Context) (*model.Item, error) {
		return s.backend.ToggleFavorite(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.replaceCached(item)
	return item, nil
}

// UpdateItem applies patch and updates the cached copy.
func (s *Store) UpdateItem(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	item, err := run(ctx, s, "update_item", itemAttr(id), func(ctx context.Context) (*model.Item, error) {
		return s.backend.UpdateItem(ctx, id, patch)
	})
	if err != nil {
		return nil, err
	}
	s.replaceCached(item)
	return item, nil
}

// CreateItem creates a note and refreshes stats.
func (s *Store) CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	item, err := run(ctx, s, "create_item", nil, func(ctx context.Context) (*model.Item, error) {
		return s.backend.CreateItem(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	s.FetchStats(ctx)
	return item, nil
}

// ImportFile uploads a file and refreshes stats.
func (s *Store) ImportFile(ctx context.Context, p api.ImportFileParams) (*model.Item, error) {
	attrs := []attribute.KeyValue{attribute.String("import.name", p.Name)}
	item, err := run(ctx, s, "import_file", attrs, func(ctx context.Context) (*model.Item, error) {
		return s.backend.ImportFile(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.FetchStats(ctx)
	return item, nil
}

// ImportURL imports a web page and refreshes stats.
func (s *Store) ImportURL(ctx context.Context, p api.ImportURLParams) (*model.Item, error) {
	attrs := []attribute.KeyValue{attribute.String("import.url", p.URL)}
	item, err := run(ctx, s, "import_url", attrs, func(ctx context.Context) (*model.Item, error) {
		return s.backend.ImportURL(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.FetchStats(ctx)
	return item, nil
}

// ImportPath imports a path on the backend host and refreshes stats.
func (s *Store) ImportPath(ctx context.Context, req api.ImportPathRequest) (*model.ImportResult, error) {
	attrs := []attribute.KeyValue{attribute.String("import.path", req.Path)}
	res, err := run(ctx, s, "import_path", attrs, func(ctx context.Context) (*model.ImportResult, error) {
		return s.backend.ImportPath(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.FetchStats(ctx)
	return res, nil
}

// AISummary asks the backend for a summary and category recommendation.
func (s *Store) AISummary(ctx context.Context, id int64) (*model.AISummary, error) {
	return run(ctx, s, "ai_summary", itemAttr(id), func(ctx context.Context) (*model.AISummary, error) {
		return s.backend.AISummary(ctx, id)
	})
}

// Associations lists the items linked to the item.
func (s *Store) Associations(ctx context.Context, id int64) ([]model.ItemBrief, error) {
	return run(ctx, s, "associations", itemAttr(id), func(ctx context.Context) ([]model.ItemBrief, error) {
		return s.backend.Associations(ctx, id)
	})
}

// AddAssociation links two items.
func (s *Store) AddAssociation(ctx context.Context, id, targetID int64) error {
	attrs := append(itemAttr(id), attribute.Int64("item.target_id", targetID))
	_, err := run(ctx, s, "add_association", attrs, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.AddAssociation(ctx, id, targetID)
	})
	return err
}

// RemoveAssociation unlinks two items.
func (s *Store) RemoveAssociation(ctx context.Context, id, targetID int64) error {
	attrs := append(itemAttr(id), attribute.Int64("item.target_id", targetID))
	_, err := run(ctx, s, "remove_association", attrs, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.RemoveAssociation(ctx, id, targetID)
	})
	return err
}

// CreateCategory creates a category and refreshes the category list.
func (s *Store) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	cat, err := run(ctx, s, "create_category", nil, func(ctx context.Context) (*model.Category, error) {
		return s.backend.CreateCategory(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	s.FetchCategories(ctx)
	return cat, nil
}

// UpdateCategory applies patch and refreshes the category list.
func (s *Store) UpdateCategory(ctx context.Context, id int64, patch model.CategoryPatch) (*model.Category, error) {
	cat, err := run(ctx, s, "update_category", categoryAttr(id), func(ctx context.Context) (*model.Category, error) {
		return s.backend.UpdateCategory(ctx, id, patch)
	})
	if err != nil {
		return nil, err
	}
	s.FetchCategories(ctx)
	return cat, nil
}

// DeleteCategory deletes a category and refreshes the category list.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	_, err := run(ctx, s, "delete_category", categoryAttr(id), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}
	s.FetchCategories(ctx)
	return nil
}

// replaceCached swaps in item for the cached entry with the same id.
func (s *Store) replaceCached(item *model.Item) {
	if item == nil {
		return
	}
	s.mu.Lock()
	i := indexOf(s.items, item.ID)
	if i >= 0 {
		items := slices.Clone(s.items)
		items[i] = *item
		s.items = items
	}
	s.mu.Unlock()
	if i >= 0 {
		s.notify(FieldItems)
	}
}

func indexOf(items []model.Item, id int64) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// removeItem returns a new slice without the item with the given id.
func removeItem(items []model.Item, id int64) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
