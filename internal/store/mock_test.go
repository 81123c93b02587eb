package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/cache"
	"github.com/njoerd114/kvault/internal/model"
)

var errBackend = errors.New("backend unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock Backend ------------------------------------------------------------

// mockBackend serves canned data. Per-method errors are set in fail; the
// optional *Fn hooks replace the canned behaviour for timing-sensitive tests.
type mockBackend struct {
	mu sync.Mutex

	categories []model.Category
	page       *model.ItemPage
	search     *model.ItemPage
	stats      *model.Stats
	item       *model.Item
	tree       []model.CategoryNode

	fail  map[string]error
	calls map[string]int

	listItemsFn      func(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error)
	searchFn         func(ctx context.Context, p api.SearchParams) (*model.ItemPage, error)
	listCategoriesFn func(ctx context.Context) ([]model.Category, error)
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		fail:  make(map[string]error),
		calls: make(map[string]int),
		stats: &model.Stats{TotalItems: 0},
	}
}

// record counts the call and returns the configured failure, if any.
func (m *mockBackend) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	return m.fail[method]
}

func (m *mockBackend) count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockBackend) setFail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[method] = err
}

func (m *mockBackend) ListItems(ctx context.Context, p api.ListItemsParams) (*model.ItemPage, error) {
	if err := m.record("ListItems"); err != nil {
		return nil, err
	}
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page == nil {
		return &model.ItemPage{Items: []model.Item{}}, nil
	}
	cp := *m.page
	return &cp, nil
}

func (m *mockBackend) GetItem(_ context.Context, id int64) (*model.Item, error) {
	if err := m.record("GetItem"); err != nil {
		return nil, err
	}
	return &model.Item{ID: id}, nil
}

func (m *mockBackend) CreateItem(_ context.Context, in model.ItemInput) (*model.Item, error) {
	if err := m.record("CreateItem"); err != nil {
		return nil, err
	}
	return &model.Item{ID: 100, Title: in.Title, ContentType: model.ContentNote}, nil
}

func (m *mockBackend) UpdateItem(_ context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	if err := m.record("UpdateItem"); err != nil {
		return nil, err
	}
	item := model.Item{ID: id}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	return &item, nil
}

func (m *mockBackend) DeleteItem(_ context.Context, _ int64) error {
	return m.record("DeleteItem")
}

func (m *mockBackend) ToggleFavorite(_ context.Context, id int64) (*model.Item, error) {
	if err := m.record("ToggleFavorite"); err != nil {
		return nil, err
	}
	return &model.Item{ID: id, IsFavorite: true}, nil
}

func (m *mockBackend) AISummary(_ context.Context, _ int64) (*model.AISummary, error) {
	if err := m.record("AISummary"); err != nil {
		return nil, err
	}
	return &model.AISummary{Summary: "summary"}, nil
}

func (m *mockBackend) Associations(_ context.Context, _ int64) ([]model.ItemBrief, error) {
	if err := m.record("Associations"); err != nil {
		return nil, err
	}
	return []model.ItemBrief{{ID: 2, Title: "linked"}}, nil
}

func (m *mockBackend) AddAssociation(_ context.Context, _, _ int64) error {
	return m.record("AddAssociation")
}

func (m *mockBackend) RemoveAssociation(_ context.Context, _, _ int64) error {
	return m.record("RemoveAssociation")
}

func (m *mockBackend) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := m.record("ListCategories"); err != nil {
		return nil, err
	}
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *mockBackend) CategoryTree(_ context.Context) ([]model.CategoryNode, error) {
	if err := m.record("CategoryTree"); err != nil {
		return nil, err
	}
	return m.tree, nil
}

func (m *mockBackend) CreateCategory(_ context.Context, in model.CategoryInput) (*model.Category, error) {
	if err := m.record("CreateCategory"); err != nil {
		return nil, err
	}
	return &model.Category{ID: 50, Name: in.Name}, nil
}

func (m *mockBackend) UpdateCategory(_ context.Context, id int64, _ model.CategoryPatch) (*model.Category, error) {
	if err := m.record("UpdateCategory"); err != nil {
		return nil, err
	}
	return &model.Category{ID: id}, nil
}

func (m *mockBackend) DeleteCategory(_ context.Context, _ int64) error {
	return m.record("DeleteCategory")
}

func (m *mockBackend) ImportFile(_ context.Context, p api.ImportFileParams) (*model.Item, error) {
	if err := m.record("ImportFile"); err != nil {
		return nil, err
	}
	return &model.Item{ID: 200, Title: p.Name, ContentType: model.ContentFile}, nil
}

func (m *mockBackend) ImportURL(_ context.Context, p api.ImportURLParams) (*model.Item, error) {
	if err := m.record("ImportURL"); err != nil {
		return nil, err
	}
	return &model.Item{ID: 201, URL: p.URL, ContentType: model.ContentURL}, nil
}

func (m *mockBackend) ImportPath(_ context.Context, _ api.ImportPathRequest) (*model.ImportResult, error) {
	if err := m.record("ImportPath"); err != nil {
		return nil, err
	}
	return &model.ImportResult{Success: true, ItemsImported: 3}, nil
}

func (m *mockBackend) Reclassify(_ context.Context, id int64) (*model.Item, error) {
	if err := m.record("Reclassify"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.item != nil {
		cp := *m.item
		return &cp, nil
	}
	return &model.Item{ID: id}, nil
}

func (m *mockBackend) Search(ctx context.Context, p api.SearchParams) (*model.ItemPage, error) {
	if err := m.record("Search"); err != nil {
		return nil, err
	}
	if m.searchFn != nil {
		return m.searchFn(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.search == nil {
		return &model.ItemPage{}, nil
	}
	cp := *m.search
	return &cp, nil
}

func (m *mockBackend) ItemsByCategory(_ context.Context, _ int) (map[string]model.CategoryGroup, error) {
	if err := m.record("ItemsByCategory"); err != nil {
		return nil, err
	}
	return map[string]model.CategoryGroup{}, nil
}

func (m *mockBackend) Stats(_ context.Context) (*model.Stats, error) {
	if err := m.record("Stats"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.stats
	return &cp, nil
}

func (m *mockBackend) Health(_ context.Context) (*model.Health, error) {
	if err := m.record("Health"); err != nil {
		return nil, err
	}
	return &model.Health{Status: "healthy"}, nil
}

// --- Mock Persister ----------------------------------------------------------

type mockPersister struct {
	mu         sync.Mutex
	snapshot   *cache.Snapshot
	loadErr    error
	saveErr    error
	categories []model.Category
	items      []model.Item
	stats      *model.Stats
	saves      int

	// beforeSaveItems runs before SaveItems records its argument.
	beforeSaveItems func(items []model.Item)
}

func (p *mockPersister) SaveCategories(_ context.Context, cats []model.Category) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.categories = cats
	return p.saveErr
}

func (p *mockPersister) SaveItems(_ context.Context, items []model.Item) error {
	if p.beforeSaveItems != nil {
		p.beforeSaveItems(items)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.items = items
	return p.saveErr
}

func (p *mockPersister) SaveStats(_ context.Context, stats *model.Stats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.stats = stats
	return p.saveErr
}

func (p *mockPersister) Load(_ context.Context) (*cache.Snapshot, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.snapshot == nil {
		return &cache.Snapshot{}, nil
	}
	return p.snapshot, nil
}
