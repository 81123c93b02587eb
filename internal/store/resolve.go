package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/njoerd114/kvault/internal/model"
)

// ErrCategoryNotFound is returned by [Store.ResolveCategory] when no category
// name matches.
var ErrCategoryNotFound = errors.New("category not found")

// ResolveCategory maps a user-typed name to a cached category. A
// case-insensitive exact match wins; otherwise the closest fuzzy match is
// used. The category list is fetched first when the cache is empty.
func (s *Store) ResolveCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrCategoryNotFound)
	}

	cats := s.Categories()
	if len(cats) == 0 {
		var err error
		if cats, err = s.LoadCategories(ctx); err != nil {
			return nil, fmt.Errorf("loading categories: %w", err)
		}
	}

	for i := range cats {
		if strings.EqualFold(cats[i].Name, name) {
			return &cats[i], nil
		}
	}

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	}
	sort.Stable(ranks)

	best := cats[ranks[0].OriginalIndex]
	s.log.Debug("resolved category by fuzzy match", "query", name, "category", best.Name, "distance", ranks[0].Distance)
	return &best, nil
}
