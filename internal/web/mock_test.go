package web

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
	"github.com/njoerd114/kvault/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore records the actions the views trigger.
type fakeStore struct {
	mu sync.Mutex

	categories []model.Category
	items      []model.Item
	stats      *model.Stats
	page       *model.ItemPage
	search     *model.ItemPage
	listErr    error
	searchErr  error
	health     *model.Health
	healthErr  error

	listParams   []api.ListItemsParams
	searchCalls  []string
	searchParams api.SearchParams
	query        string
	selected     *int64
	selectCalls  int
	statsFetches int
	catFetches   int
}

func (f *fakeStore) FetchCategories(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catFetches++
}

func (f *fakeStore) LoadItems(_ context.Context, p api.ListItemsParams) (*model.ItemPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listParams = append(f.listParams, p)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.page != nil {
		f.items = f.page.Items
	}
	return f.page, nil
}

func (f *fakeStore) FetchStats(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsFetches++
}

func (f *fakeStore) LoadSearch(_ context.Context, query string, p api.SearchParams) (*model.ItemPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, query)
	f.searchParams = p
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func (f *fakeStore) Health(context.Context) (*model.Health, error) {
	return f.health, f.healthErr
}

func (f *fakeStore) Categories() []model.Category { return f.categories }

func (f *fakeStore) CategoriesWithItems() []model.CategoryWithItems {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.GroupByCategory(f.categories, f.items)
}

func (f *fakeStore) Stats() *model.Stats { return f.stats }
func (f *fakeStore) Loading() bool       { return false }

func (f *fakeStore) SetSearchQuery(q string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = q
}

func (f *fakeStore) SearchQuery() string { return f.query }

func (f *fakeStore) SelectCategory(id *int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectCalls++
	f.selected = id
}

func (f *fakeStore) SelectedCategory() *int64 { return f.selected }

// slowFirstBackend serves a real [store.Store]. Its first ListItems call
// blocks until release is closed; every other call answers at once with the
// requested page number. Methods the views do not reach are left nil.
type slowFirstBackend struct {
	store.Backend

	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *slowFirstBackend) ListItems(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.started)
		<-b.release
		return nil, ctx.Err()
	}
	return &model.ItemPage{Page: p.Page, Items: []model.Item{}}, nil
}

func (b *slowFirstBackend) ListCategories(context.Context) ([]model.Category, error) {
	return []model.Category{{ID: 1, Name: "Finance"}}, nil
}
