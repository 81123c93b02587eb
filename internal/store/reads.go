package store

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
)

// FetchCategories replaces the cached category list with the backend's.
// Failures are logged and the cache keeps its previous value.
func (s *Store) FetchCategories(ctx context.Context) {
	_, _ = s.fetchCategories(ctx)
}

// LoadCategories is [Store.FetchCategories] for callers that need the list
// and the failure. When a newer fetch supersedes this one the newer list is
// returned.
func (s *Store) LoadCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.fetchCategories(ctx)
	if errors.Is(err, errSuperseded) {
		return run(ctx, s, "list_categories", nil, s.backend.ListCategories)
	}
	return cats, err
}

func (s *Store) fetchCategories(ctx context.Context) ([]model.Category, error) {
	return fetch(ctx, s, intentCategories, "fetch_categories", s.backend.ListCategories,
		func(cats []model.Category) []Field {
			s.categories = cats
			return []Field{FieldCategories}
		},
		func(ctx context.Context, cats []model.Category) error {
			return s.persist.SaveCategories(ctx, cats)
		})
}

// FetchItems replaces the cached item list with one page from the backend and
// returns the full page. It returns nil on failure or when a newer item fetch
// superseded this one.
func (s *Store) FetchItems(ctx context.Context, p api.ListItemsParams) *model.ItemPage {
	s.startLoading()
	defer s.stopLoading()

	page, _ := s.fetchItems(ctx, p)
	return page
}

// LoadItems is [Store.FetchItems] for callers that need their own page. A
// fetch superseded by a newer one falls back to [Store.ListItems], so the
// error is only ever a real failure.
func (s *Store) LoadItems(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error) {
	s.startLoading()
	defer s.stopLoading()

	page, err := s.fetchItems(ctx, p)
	if errors.Is(err, errSuperseded) {
		return s.ListItems(ctx, p)
	}
	return page, err
}

// ListItems fetches one page of items without touching the cache.
func (s *Store) ListItems(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error) {
	return run(ctx, s, "list_items", nil, func(ctx context.Context) (*model.ItemPage, error) {
		return s.backend.ListItems(ctx, p)
	})
}

func (s *Store) fetchItems(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error) {
	load := func(ctx context.Context) (*model.ItemPage, error) { return s.backend.ListItems(ctx, p) }
	return fetch(ctx, s, intentItems, "fetch_items", load,
		func(page *model.ItemPage) []Field {
			s.items = page.Items
			return []Field{FieldItems}
		},
		func(ctx context.Context, page *model.ItemPage) error {
			return s.persist.SaveItems(ctx, page.Items)
		})
}

// FetchStats replaces the cached stats. Failures are logged only.
func (s *Store) FetchStats(ctx context.Context) {
	_, _ = s.fetchStats(ctx)
}

// LoadStats is [Store.FetchStats] for callers that need the stats and the
// failure.
func (s *Store) LoadStats(ctx context.Context) (*model.Stats, error) {
	stats, err := s.fetchStats(ctx)
	if errors.Is(err, errSuperseded) {
		return run(ctx, s, "stats", nil, s.backend.Stats)
	}
	return stats, err
}

func (s *Store) fetchStats(ctx context.Context) (*model.Stats, error) {
	return fetch(ctx, s, intentStats, "fetch_stats", s.backend.Stats,
		func(st *model.Stats) []Field {
			s.stats = st
			return []Field{FieldStats}
		},
		func(ctx context.Context, st *model.Stats) error {
			return s.persist.SaveStats(ctx, st)
		})
}

// SearchItems runs a search for query and returns the result page without
// touching the cache. It returns nil on failure or when a newer search
// superseded this one. query overrides p.Query.
func (s *Store) SearchItems(ctx context.Context, query string, p api.SearchParams) *model.ItemPage {
	s.startLoading()
	defer s.stopLoading()

	page, _ := s.searchItems(ctx, query, p)
	return page
}

// LoadSearch is [Store.SearchItems] for callers that need their own results.
// A search superseded by a newer one is re-run as a plain backend call.
func (s *Store) LoadSearch(ctx context.Context, query string, p api.SearchParams) (*model.ItemPage, error) {
	s.startLoading()
	defer s.stopLoading()

	page, err := s.searchItems(ctx, query, p)
	if errors.Is(err, errSuperseded) {
		p.Query = query
		return run(ctx, s, "search", nil, func(ctx context.Context) (*model.ItemPage, error) {
			return s.backend.Search(ctx, p)
		})
	}
	return page, err
}

func (s *Store) searchItems(ctx context.Context, query string, p api.SearchParams) (*model.ItemPage, error) {
	p.Query = query
	load := func(ctx context.Context) (*model.ItemPage, error) { return s.backend.Search(ctx, p) }
	return fetch(ctx, s, intentSearch, "search_items", load, nil, nil)
}

// Refresh fetches categories, the first item page, and stats concurrently.
// Unlike the individual read actions it reports the first failure.
func (s *Store) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.fetchCategories(ctx)
		return settled(err)
	})
	g.Go(func() error {
		s.startLoading()
		defer s.stopLoading()
		_, err := s.fetchItems(ctx, api.ListItemsParams{})
		return settled(err)
	})
	g.Go(func() error {
		_, err := s.fetchStats(ctx)
		return settled(err)
	})
	return g.Wait()
}

// Hydrate seeds empty cache fields from the persisted snapshot. Fields that
// a fetch has already filled are left alone.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	snap, err := s.persist.Load(ctx)
	if err != nil {
		s.log.Warn("loading snapshot", "error", err)
		return err
	}

	var changed []Field
	s.mu.Lock()
	if snap.Categories != nil && s.gens[intentCategories] == 0 {
		s.categories = snap.Categories
		changed = append(changed, FieldCategories)
	}
	if snap.Items != nil && s.gens[intentItems] == 0 {
		s.items = snap.Items
		changed = append(changed, FieldItems)
	}
	if snap.Stats != nil && s.gens[intentStats] == 0 {
		s.stats = snap.Stats
		changed = append(changed, FieldStats)
	}
	s.mu.Unlock()

	s.log.Debug("hydrated from snapshot", "fields", len(changed))
	s.notify(changed...)
	return nil
}

// GetItem fetches a single item without caching it.
func (s *Store) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	return run(ctx, s, "get_item", itemAttr(id), func(ctx context.Context) (*model.Item, error) {
		return s.backend.GetItem(ctx, id)
	})
}

// CategoryTree fetches the category hierarchy.
func (s *Store) CategoryTree(ctx context.Context) ([]model.CategoryNode, error) {
	return run(ctx, s, "category_tree", nil, s.backend.CategoryTree)
}

// ItemsByCategory fetches the latest items of every category.
func (s *Store) ItemsByCategory(ctx context.Context, limit int) (map[string]model.CategoryGroup, error) {
	return run(ctx, s, "items_by_category", nil, func(ctx context.Context) (map[string]model.CategoryGroup, error) {
		return s.backend.ItemsByCategory(ctx, limit)
	})
}

// Health calls the backend health check.
func (s *Store) Health(ctx context.Context) (*model.Health, error) {
	return run(ctx, s, "health", nil, s.backend.Health)
}
