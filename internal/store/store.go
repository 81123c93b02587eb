package store

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/njoerd114/kvault/internal/model"
)

const (
	otelScope           = "kvault/store"
	metricActionErrors  = "kvault.store.action.errors"
	metricStaleDiscards = "kvault.store.stale_discards"
)

// ErrClosed is returned by actions started after [Store.Close].
var ErrClosed = errors.New("store closed")

// errSuperseded reports a fetch whose result was dropped because a newer
// fetch for the same intent started.
var errSuperseded = errors.New("superseded by a newer fetch")

// Field identifies a piece of store state in change notifications.
type Field string

const (
	FieldCategories       Field = "categories"
	FieldItems            Field = "items"
	FieldStats            Field = "stats"
	FieldLoading          Field = "loading"
	FieldSearchQuery      Field = "search_query"
	FieldSelectedCategory Field = "selected_category"
)

// intent keys a fetch task. Only the latest task per intent may apply its
// result.
type intent string

const (
	intentCategories intent = "categories"
	intentItems      intent = "items"
	intentStats      intent = "stats"
	intentSearch     intent = "search"
)

// Listener is called after a mutation with the field that changed. It runs
// on the goroutine that performed the mutation, outside the store's lock.
type Listener func(Field)

// Store holds the session cache. Create one with [New] and release it with
// [Store.Close]. A Store is safe for concurrent use.
type Store struct {
	backend Backend
	persist Persister
	log     *slog.Logger

	mu          sync.RWMutex
	categories  []model.Category
	items       []model.Item
	stats       *model.Stats
	inFlight    int
	searchQuery string
	selected    *int64

	gens    map[intent]uint64
	applied map[intent]uint64
	tasks   map[intent]context.CancelFunc
	closed  bool

	// persistMu orders snapshot writes so an older result never lands
	// after a newer one.
	persistMu sync.Mutex

	listenMu     sync.Mutex
	listeners    map[int]Listener
	nextListener int

	// OTel instruments, no-op when telemetry is disabled.
	tracer     trace.Tracer
	cntErrors  metric.Int64Counter
	cntDiscard metric.Int64Counter
}

// New creates a Store reading from backend. persist may be nil, in which
// case nothing is written through and [Store.Hydrate] is a no-op.
func New(backend Backend, persist Persister, logger *slog.Logger) *Store {
	meter := otel.Meter(otelScope)

	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Store{
		backend:   backend,
		persist:   persist,
		log:       logger,
		gens:      make(map[intent]uint64),
		applied:   make(map[intent]uint64),
		tasks:     make(map[intent]context.CancelFunc),
		listeners: make(map[int]Listener),

		tracer:     otel.Tracer(otelScope),
		cntErrors:  mustCounter(metricActionErrors, "Number of failed store actions"),
		cntDiscard: mustCounter(metricStaleDiscards, "Number of fetch responses discarded as stale"),
	}
}

// Close cancels every in-flight fetch. Actions started afterwards fail with
// [ErrClosed].
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for in, cancel := range s.tasks {
		cancel()
		delete(s.tasks, in)
	}
}

// --- state accessors ---------------------------------------------------------

// Categories returns a copy of the cached category list.
func (s *Store) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// Items returns a copy of the cached item list.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Stats returns a copy of the cached stats, or nil if none were fetched.
func (s *Store) Stats() *model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil {
		return nil
	}
	cp := *s.stats
	cp.ItemsByType = maps.Clone(s.stats.ItemsByType)
	return &cp
}

// Loading reports whether an item fetch or search is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// SearchQuery returns the query last recorded with [Store.SetSearchQuery].
func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// SelectedCategory returns the selected category id, or nil.
func (s *Store) SelectedCategory() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	id := *s.selected
	return &id
}

// CategoriesWithItems groups the cached items under the cached categories.
// It is recomputed on every call.
func (s *Store) CategoriesWithItems() []model.CategoryWithItems {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.GroupByCategory(s.categories, s.items)
}

// SetSearchQuery records the search box contents.
func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	changed := s.searchQuery != q
	s.searchQuery = q
	s.mu.Unlock()
	if changed {
		s.notify(FieldSearchQuery)
	}
}

// SelectCategory records the selected category; nil clears the selection.
func (s *Store) SelectCategory(id *int64) {
	s.mu.Lock()
	if id == nil {
		s.selected = nil
	} else {
		v := *id
		s.selected = &v
	}
	s.mu.Unlock()
	s.notify(FieldSelectedCategory)
}

// --- change listeners --------------------------------------------------------

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenMu.Lock()
			defer s.listenMu.Unlock()
			delete(s.listeners, id)
		})
	}
}

func (s *Store) notify(fields ...Field) {
	if len(fields) == 0 {
		return
	}
	s.listenMu.Lock()
	ls := slices.Collect(maps.Values(s.listeners))
	s.listenMu.Unlock()

	for _, fn := range ls {
		for _, f := range fields {
			fn(f)
		}
	}
}

// --- loading counter ---------------------------------------------------------

func (s *Store) startLoading() {
	s.mu.Lock()
	s.inFlight++
	first := s.inFlight == 1
	s.mu.Unlock()
	if first {
		s.notify(FieldLoading)
	}
}

func (s *Store) stopLoading() {
	s.mu.Lock()
	s.inFlight--
	last := s.inFlight == 0
	s.mu.Unlock()
	if last {
		s.notify(FieldLoading)
	}
}

// --- intent-keyed tasks ------------------------------------------------------

// begin starts a task for in, cancelling the previous one, and returns the
// task context, its generation, and a release func.
func (s *Store) begin(ctx context.Context, in intent) (context.Context, uint64, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, nil, ErrClosed
	}
	if cancel, ok := s.tasks[in]; ok {
		cancel()
	}
	s.gens[in]++
	gen := s.gens[in]
	tctx, cancel := context.WithCancel(ctx)
	s.tasks[in] = cancel

	release := func() {
		cancel()
		s.mu.Lock()
		if s.gens[in] == gen {
			delete(s.tasks, in)
		}
		s.mu.Unlock()
	}
	return tctx, gen, release, nil
}

// fetch runs load as the latest task for in. When load finishes and its
// generation is still current, apply runs under the write lock with the
// result and returns the fields it changed, then save writes the result
// through to the snapshot. A superseded task returns errSuperseded, whatever
// load returned. apply and save may be nil.
func fetch[T any](ctx context.Context, s *Store, in intent, action string, load func(context.Context) (T, error), apply func(T) []Field, save func(context.Context, T) error) (v T, err error) {
	ctx, span := s.tracer.Start(ctx, "store."+action, trace.WithAttributes(attribute.String("store.intent", string(in))))
	defer span.End()

	tctx, gen, release, err := s.begin(ctx, in)
	if err != nil {
		s.fail(ctx, span, action, err)
		return v, err
	}
	defer release()

	res, err := load(tctx)

	s.mu.Lock()
	if s.gens[in] != gen {
		s.mu.Unlock()
		s.cntDiscard.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", string(in))))
		span.SetAttributes(attribute.Bool("store.stale", true))
		s.log.Debug("discarding stale response", "intent", in, "generation", gen)
		return v, errSuperseded
	}
	var changed []Field
	if err == nil && apply != nil {
		changed = apply(res)
		s.applied[in] = gen
	}
	s.mu.Unlock()

	if err != nil {
		s.fail(ctx, span, action, err)
		return v, err
	}
	s.notify(changed...)
	if save != nil && s.persist != nil {
		s.save(ctx, in, gen, func(ctx context.Context) error { return save(ctx, res) })
	}
	return res, nil
}

// save writes an applied result through to the snapshot unless a newer
// result for the same intent has been applied since. Failures are logged.
func (s *Store) save(ctx context.Context, in intent, gen uint64, write func(context.Context) error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	latest := s.applied[in] == gen
	s.mu.RUnlock()
	if !latest {
		s.log.Debug("skipping outdated snapshot write", "intent", in, "generation", gen)
		return
	}
	if err := write(ctx); err != nil {
		s.log.Warn("persisting snapshot", "intent", in, "error", err)
	}
}

// settled treats a superseded fetch as a non-failure.
func settled(err error) error {
	if errors.Is(err, errSuperseded) {
		return nil
	}
	return err
}

// run wraps a single backend call in a span and the failure policy shared by
// every action: record, count, log, return.
func run[T any](ctx context.Context, s *Store, action string, attrs []attribute.KeyValue, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "store."+action, trace.WithAttributes(attrs...))
	defer span.End()

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		var zero T
		s.fail(ctx, span, action, ErrClosed)
		return zero, ErrClosed
	}

	v, err := fn(ctx)
	if err != nil {
		s.fail(ctx, span, action, err)
	}
	return v, err
}

func (s *Store) fail(ctx context.Context, span trace.Span, action string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.cntErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
	s.log.Error("store action failed", "action", action, "error", err)
}

func itemAttr(id int64) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.Int64("item.id", id)}
}

func categoryAttr(id int64) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.Int64("category.id", id)}
}
