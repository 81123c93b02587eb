// Package router maps the five client URL paths to named views. The table is
// static: no guards, no redirects, history-style paths without fragments.
// A trailing slash is ignored, so /browse/ is /browse.
package router

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// View names a page-level view.
type View string

const (
	Dashboard      View = "dashboard"
	Browse         View = "browse"
	BrowseCategory View = "browse-category"
	Search         View = "search"
	Settings       View = "settings"
)

// ParamCategoryID is the path parameter of [BrowseCategory].
const ParamCategoryID = "categoryId"

// Route binds a view to its path pattern.
type Route struct {
	View    View
	Pattern string
}

// Routes is the full route table in registration order.
var Routes = []Route{
	{Dashboard, "/"},
	{Browse, "/browse"},
	{BrowseCategory, "/browse/{" + ParamCategoryID + "}"},
	{Search, "/search"},
	{Settings, "/settings"},
}

// Match is the result of resolving a path.
type Match struct {
	View    View
	Pattern string
	Params  map[string]string
}

// CategoryID parses the categoryId path parameter.
func (m Match) CategoryID() (int64, error) {
	raw, ok := m.Params[ParamCategoryID]
	if !ok {
		return 0, fmt.Errorf("view %s has no %s parameter", m.View, ParamCategoryID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid category id %q", raw)
	}
	return id, nil
}

// Router resolves paths and dispatches requests to view handlers. Register
// handlers with [Router.Handle] before serving.
type Router struct {
	mux       *chi.Mux
	byPattern map[string]View
	handlers  map[View]http.Handler
}

// New builds the router. middlewares wrap every view handler, outermost
// first.
func New(middlewares ...func(http.Handler) http.Handler) *Router {
	rt := &Router{
		mux:       chi.NewRouter(),
		byPattern: make(map[string]View, len(Routes)),
		handlers:  make(map[View]http.Handler, len(Routes)),
	}
	rt.mux.Use(middleware.StripSlashes)
	rt.mux.Use(middlewares...)
	rt.mux.NotFound(notFound)
	rt.mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	for _, route := range Routes {
		rt.byPattern[route.Pattern] = route.View
		rt.mux.Get(route.Pattern, rt.dispatch(route.View))
	}
	return rt
}

// Handle registers h as the handler for v.
func (rt *Router) Handle(v View, h http.Handler) {
	rt.handlers[v] = h
}

// HandleFunc registers fn as the handler for v.
func (rt *Router) HandleFunc(v View, fn http.HandlerFunc) {
	rt.Handle(v, fn)
}

func (rt *Router) dispatch(v View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := rt.handlers[v]
		if !ok {
			notFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	}
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Resolve looks up path without dispatching. An empty path resolves as "/"
// and a trailing slash is dropped.
func (rt *Router) Resolve(path string) (Match, bool) {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	rctx := chi.NewRouteContext()
	if !rt.mux.Match(rctx, http.MethodGet, path) {
		return Match{}, false
	}
	pattern := rctx.RoutePattern()
	v, ok := rt.byPattern[pattern]
	if !ok {
		return Match{}, false
	}
	return Match{View: v, Pattern: pattern, Params: params(rctx)}, true
}

// FromRequest returns the match recorded by chi while routing r. It is only
// meaningful inside a view handler.
func FromRequest(r *http.Request) Match {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return Match{}
	}
	pattern := rctx.RoutePattern()
	return Match{View: viewFor(pattern), Pattern: pattern, Params: params(rctx)}
}

func viewFor(pattern string) View {
	for _, route := range Routes {
		if route.Pattern == pattern {
			return route.View
		}
	}
	return ""
}

func params(rctx *chi.Context) map[string]string {
	out := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" {
			continue
		}
		out[k] = rctx.URLParams.Values[i]
	}
	return out
}

// Path builds the URL path of v, substituting params into its pattern.
func Path(v View, params map[string]string) (string, error) {
	for _, route := range Routes {
		if route.View != v {
			continue
		}
		p := route.Pattern
		for k, val := range params {
			p = strings.ReplaceAll(p, "{"+k+"}", val)
		}
		if strings.ContainsAny(p, "{}") {
			return "", fmt.Errorf("view %s: missing parameter in %s", v, route.Pattern)
		}
		return p, nil
	}
	return "", fmt.Errorf("unknown view %q", v)
}

// CategoryPath returns the browse-category path for id.
func CategoryPath(id int64) string {
	return "/browse/" + strconv.FormatInt(id, 10)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "not found", http.StatusNotFound)
}
