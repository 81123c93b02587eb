package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
	"github.com/njoerd114/kvault/internal/render"
)

const defaultListLimit = 20

func runStatus(ctx context.Context, args []string) error {
	fs, g := newFlagSet("status")
	return withApp(ctx, fs, g, args, 0, 0, func(a *app, _ []string) error {
		stats, err := a.store.LoadStats(ctx)
		if err != nil {
			return fmt.Errorf("fetching stats: %w", err)
		}
		fmt.Fprintln(a.out, render.Stats(stats))
		fmt.Fprintln(a.out, render.Muted("Server: "+a.client.BaseURL()))
		return nil
	})
}

func runList(ctx context.Context, args []string) error {
	fs, g := newFlagSet("list")
	category := fs.StringP("category", "c", "", "filter by category name")
	contentType := fs.StringP("type", "t", "", "filter by content type (file, url, note)")
	limit := fs.IntP("limit", "l", defaultListLimit, "maximum items to show (1-100)")
	page := fs.IntP("page", "p", 1, "page number")
	favorites := fs.Bool("favorites", false, "only favorites")

	return withApp(ctx, fs, g, args, 0, 0, func(a *app, _ []string) error {
		p := api.ListItemsParams{
			Page:          *page,
			PageSize:      *limit,
			ContentType:   model.ContentType(*contentType),
			FavoritesOnly: *favorites,
		}
		if *category != "" {
			cat, err := a.store.ResolveCategory(ctx, *category)
			if err != nil {
				return err
			}
			p.CategoryID = &cat.ID
		}
		if err := p.Validate(); err != nil {
			return err
		}

		res, err := a.store.LoadItems(ctx, p)
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		fmt.Fprintln(a.out, render.Page(res))
		return nil
	})
}

func runSearch(ctx context.Context, args []string) error {
	fs, g := newFlagSet("search")
	limit := fs.IntP("limit", "l", defaultListLimit, "maximum results (1-100)")
	contentType := fs.StringP("type", "t", "", "filter by content type (file, url, note)")

	return withApp(ctx, fs, g, args, 1, 1, func(a *app, rest []string) error {
		p := api.SearchParams{
			Query:       rest[0],
			PageSize:    *limit,
			ContentType: model.ContentType(*contentType),
		}
		if err := p.Validate(); err != nil {
			return err
		}
		res, err := a.store.LoadSearch(ctx, p.Query, p)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		fmt.Fprintln(a.out, render.Page(res))
		return nil
	})
}

func runCategories(ctx context.Context, args []string) error {
	fs, g := newFlagSet("categories")
	asTree := fs.Bool("tree", false, "show the category hierarchy")

	return withApp(ctx, fs, g, args, 0, 0, func(a *app, _ []string) error {
		if *asTree {
			roots, err := a.store.CategoryTree(ctx)
			if err != nil {
				return fmt.Errorf("fetching category tree: %w", err)
			}
			fmt.Fprintln(a.out, render.CategoryTree(roots))
			return nil
		}
		cats, err := a.store.LoadCategories(ctx)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		fmt.Fprintln(a.out, render.Categories(cats))
		return nil
	})
}

func runDelete(ctx context.Context, args []string) error {
	fs, g := newFlagSet("delete")
	return withApp(ctx, fs, g, args, 1, 1, func(a *app, rest []string) error {
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		if err := a.store.DeleteItem(ctx, id); err != nil {
			return describe(err, id)
		}
		fmt.Fprintln(a.out, render.Success(fmt.Sprintf("Deleted item %d", id)))
		return nil
	})
}

func runFavorite(ctx context.Context, args []string) error {
	fs, g := newFlagSet("favorite")
	return withApp(ctx, fs, g, args, 1, 1, func(a *app, rest []string) error {
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		item, err := a.store.ToggleFavorite(ctx, id)
		if err != nil {
			return describe(err, id)
		}
		state := "removed from favorites"
		if item.IsFavorite {
			state = "added to favorites"
		}
		fmt.Fprintln(a.out, render.Success(fmt.Sprintf("%q %s", item.Title, state)))
		return nil
	})
}

func runSummary(ctx context.Context, args []string) error {
	fs, g := newFlagSet("summary")
	return withApp(ctx, fs, g, args, 1, 1, func(a *app, rest []string) error {
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, render.Muted(fmt.Sprintf("Summarising item %d (this can take up to %v)...", id, a.client.AITimeout())))
		s, err := a.store.AISummary(ctx, id)
		if err != nil {
			return describe(err, id)
		}
		fmt.Fprintln(a.out, render.Summary(s))
		return nil
	})
}

func runLink(ctx context.Context, args []string) error {
	fs, g := newFlagSet("link")
	return withApp(ctx, fs, g, args, 2, 2, func(a *app, rest []string) error {
		id, target, err := parseIDPair(rest)
		if err != nil {
			return err
		}
		if err := a.store.AddAssociation(ctx, id, target); err != nil {
			return describe(err, id)
		}
		fmt.Fprintln(a.out, render.Success(fmt.Sprintf("Linked %d ↔ %d", id, target)))
		return nil
	})
}

func runUnlink(ctx context.Context, args []string) error {
	fs, g := newFlagSet("unlink")
	return withApp(ctx, fs, g, args, 2, 2, func(a *app, rest []string) error {
		id, target, err := parseIDPair(rest)
		if err != nil {
			return err
		}
		if err := a.store.RemoveAssociation(ctx, id, target); err != nil {
			return describe(err, id)
		}
		fmt.Fprintln(a.out, render.Success(fmt.Sprintf("Unlinked %d ↔ %d", id, target)))
		return nil
	})
}

func runLinks(ctx context.Context, args []string) error {
	fs, g := newFlagSet("links")
	return withApp(ctx, fs, g, args, 1, 1, func(a *app, rest []string) error {
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		links, err := a.store.Associations(ctx, id)
		if err != nil {
			return describe(err, id)
		}
		fmt.Fprintln(a.out, render.Associations(links))
		return nil
	})
}

// parseID parses a positive item id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func parseIDPair(args []string) (int64, int64, error) {
	id, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	target, err := parseID(args[1])
	if err != nil {
		return 0, 0, err
	}
	if id == target {
		return 0, 0, fmt.Errorf("cannot link item %d to itself", id)
	}
	return id, target, nil
}

// describe turns a 404 into a short message naming the item.
func describe(err error, id int64) error {
	if api.IsNotFound(err) {
		return fmt.Errorf("item %d not found", id)
	}
	return err
}
