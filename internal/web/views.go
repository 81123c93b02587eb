package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
	"github.com/njoerd114/kvault/internal/router"
)

// Settings is the client configuration shown by the settings view.
type Settings struct {
	ServerURL       string
	BaseURL         string
	Timeout         time.Duration
	AITimeout       time.Duration
	RefreshInterval time.Duration
}

// DashboardView is the body of GET /.
type DashboardView struct {
	Stats      *model.Stats              `json:"stats"`
	Categories []model.CategoryWithItems `json:"categories"`
	Recent     *model.ItemPage           `json:"recent"`
}

// BrowseView is the body of GET /browse and GET /browse/{categoryId}.
type BrowseView struct {
	Category   *model.Category  `json:"category"`
	Categories []model.Category `json:"categories"`
	Page       *model.ItemPage  `json:"page"`
}

// SearchView is the body of GET /search.
type SearchView struct {
	Query   string          `json:"query"`
	Results *model.ItemPage `json:"results"`
}

// SettingsView is the body of GET /settings.
type SettingsView struct {
	ServerURL       string `json:"server_url"`
	BaseURL         string `json:"base_url"`
	Timeout         string `json:"timeout"`
	AITimeout       string `json:"ai_timeout"`
	RefreshInterval string `json:"refresh_interval"`
	BackendStatus   string `json:"backend_status"`
	BackendError    string `json:"backend_error,omitempty"`
}

// Views holds the view handlers.
type Views struct {
	store    Store
	settings Settings
	log      *slog.Logger
}

// NewViews creates the view handlers over st.
func NewViews(st Store, settings Settings, logger *slog.Logger) *Views {
	return &Views{store: st, settings: settings, log: logger}
}

// Register attaches every view handler to rt.
func (v *Views) Register(rt *router.Router) {
	rt.HandleFunc(router.Dashboard, v.Dashboard)
	rt.HandleFunc(router.Browse, v.Browse)
	rt.HandleFunc(router.BrowseCategory, v.BrowseCategory)
	rt.HandleFunc(router.Search, v.Search)
	rt.HandleFunc(router.Settings, v.Settings)
}

// Dashboard fetches the first item page and shows it with stats and the
// categories-with-items grouping.
func (v *Views) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if v.store.Stats() == nil {
		v.store.FetchStats(ctx)
	}
	if len(v.store.Categories()) == 0 {
		v.store.FetchCategories(ctx)
	}
	page, err := v.store.LoadItems(ctx, api.ListItemsParams{})
	if err != nil {
		v.log.Warn("dashboard without recent items", "error", err)
	}

	writeJSON(w, http.StatusOK, DashboardView{
		Stats:      v.store.Stats(),
		Categories: v.store.CategoriesWithItems(),
		Recent:     page,
	})
}

// Browse clears the category selection and lists items filtered by the
// query string.
func (v *Views) Browse(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r.URL.Query())
	if err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}
	v.store.SelectCategory(nil)
	v.browse(w, r, p, nil)
}

// BrowseCategory selects the category from the path and lists its items.
func (v *Views) BrowseCategory(w http.ResponseWriter, r *http.Request) {
	id, err := router.FromRequest(r).CategoryID()
	if err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}
	p, err := listParams(r.URL.Query())
	if err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}
	p.CategoryID = &id
	v.store.SelectCategory(&id)
	v.browse(w, r, p, &id)
}

func (v *Views) browse(w http.ResponseWriter, r *http.Request, p api.ListItemsParams, categoryID *int64) {
	ctx := r.Context()
	if len(v.store.Categories()) == 0 {
		v.store.FetchCategories(ctx)
	}
	page, err := v.store.LoadItems(ctx, p)
	if err != nil {
		writeUpstream(w, "items are unavailable")
		return
	}

	cats := v.store.Categories()
	view := BrowseView{Categories: cats, Page: page}
	if categoryID != nil {
		for i := range cats {
			if cats[i].ID == *categoryID {
				view.Category = &cats[i]
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// Search records the query and runs it when it is not empty.
func (v *Views) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	v.store.SetSearchQuery(query)

	view := SearchView{Query: query}
	if query == "" {
		writeJSON(w, http.StatusOK, view)
		return
	}

	lp, err := listParams(q)
	if err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}
	p := api.SearchParams{
		Query:       query,
		CategoryID:  lp.CategoryID,
		ContentType: lp.ContentType,
		Page:        lp.Page,
		PageSize:    lp.PageSize,
	}
	if err := p.Validate(); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	view.Results, err = v.store.LoadSearch(r.Context(), query, p)
	if err != nil {
		writeUpstream(w, "search is unavailable")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Settings shows the client configuration and the backend health.
func (v *Views) Settings(w http.ResponseWriter, r *http.Request) {
	view := SettingsView{
		ServerURL:       v.settings.ServerURL,
		BaseURL:         v.settings.BaseURL,
		Timeout:         v.settings.Timeout.String(),
		AITimeout:       v.settings.AITimeout.String(),
		RefreshInterval: v.settings.RefreshInterval.String(),
	}
	h, err := v.store.Health(r.Context())
	switch {
	case err != nil:
		view.BackendStatus = "unreachable"
		view.BackendError = err.Error()
	default:
		view.BackendStatus = h.Status
	}
	writeJSON(w, http.StatusOK, view)
}

// listParams reads the shared list filters from a query string.
func listParams(q url.Values) (api.ListItemsParams, error) {
	var p api.ListItemsParams
	var err error
	if p.Page, err = intParam(q, "page"); err != nil {
		return p, err
	}
	if p.PageSize, err = intParam(q, "page_size"); err != nil {
		return p, err
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return p, &paramError{name: "category_id", value: raw}
		}
		p.CategoryID = &id
	}
	p.ContentType = model.ContentType(q.Get("content_type"))
	if raw := q.Get("favorites_only"); raw != "" {
		fav, err := strconv.ParseBool(raw)
		if err != nil {
			return p, &paramError{name: "favorites_only", value: raw}
		}
		p.FavoritesOnly = fav
	}
	return p, p.Validate()
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return n, nil
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " " + strconv.Quote(e.value)
}
