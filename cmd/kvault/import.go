package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/njoerd114/kvault/internal/api"
	"github.com/njoerd114/kvault/internal/model"
	"github.com/njoerd114/kvault/internal/render"
	"github.com/njoerd114/kvault/internal/store"
)

const (
	reclassifyPageSize    = 100
	reclassifyConcurrency = 4
)

type importKind int

const (
	importURL importKind = iota
	importFile
	importServerPath
)

// classifyImport decides how target is sent to the backend. Directories are
// imported by path on the backend host, which is assumed to share the
// filesystem; single files are uploaded.
func classifyImport(target string, serverPath bool) (importKind, string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return importURL, target, nil
	}
	if serverPath {
		return importServerPath, target, nil
	}

	abs, err := filepath.Abs(expandHome(target))
	if err != nil {
		return 0, "", fmt.Errorf("resolving %q: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, "", fmt.Errorf("path not found: %s", abs)
	}
	if info.IsDir() {
		return importServerPath, abs, nil
	}
	return importFile, abs, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func runImport(ctx context.Context, args []string) error {
	fs, g := newFlagSet("import")
	category := fs.StringP("category", "c", "", "category name (default: default_category from config)")
	noClassify := fs.Bool("no-classify", false, "disable auto-classification")
	serverPath := fs.Bool("server-path", false, "treat the argument as a path on the server host")

	return withApp(ctx, fs, g, args, 1, 1, func(a *app, rest []string) error {
		kind, target, err := classifyImport(rest[0], *serverPath)
		if err != nil {
			return err
		}

		name := *category
		if name == "" {
			name = a.cfg.DefaultCategory
		}
		categoryID := a.categoryID(ctx, name)
		auto := api.Bool(!*noClassify)

		switch kind {
		case importURL:
			fmt.Fprintln(a.out, render.Muted("Importing URL: "+target))
			item, err := a.store.ImportURL(ctx, api.ImportURLParams{URL: target, CategoryID: categoryID, AutoClassify: auto})
			if err != nil {
				return fmt.Errorf("importing URL: %w", err)
			}
			printImported(a, item)

		case importFile:
			fmt.Fprintln(a.out, render.Muted("Uploading file: "+target))
			f, err := os.Open(target)
			if err != nil {
				return fmt.Errorf("opening %q: %w", target, err)
			}
			defer f.Close()
			item, err := a.store.ImportFile(ctx, api.ImportFileParams{
				Name:         filepath.Base(target),
				Content:      f,
				CategoryID:   categoryID,
				AutoClassify: auto,
			})
			if err != nil {
				return fmt.Errorf("uploading file: %w", err)
			}
			printImported(a, item)

		case importServerPath:
			fmt.Fprintln(a.out, render.Muted("Importing path on server: "+target))
			res, err := a.store.ImportPath(ctx, api.ImportPathRequest{Path: target, CategoryID: categoryID, AutoClassify: auto})
			if err != nil {
				return fmt.Errorf("importing path: %w", err)
			}
			fmt.Fprintln(a.out, render.ImportResult(res))
		}
		return nil
	})
}

// categoryID resolves name to an id. An unknown name is reported and the
// import proceeds without a category.
func (a *app) categoryID(ctx context.Context, name string) *int64 {
	if name == "" {
		return nil
	}
	cat, err := a.store.ResolveCategory(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			fmt.Fprintln(a.out, render.Failure(fmt.Sprintf("Category %q not found, skipping category assignment", name)))
		} else {
			a.logger.Warn("resolving category", "name", name, "error", err)
		}
		return nil
	}
	if !strings.EqualFold(cat.Name, name) {
		fmt.Fprintln(a.out, render.Muted(fmt.Sprintf("Using category %q for %q", cat.Name, name)))
	}
	return &cat.ID
}

func printImported(a *app, item *model.Item) {
	fmt.Fprintln(a.out, render.Success("Imported: "+item.Title))
	fmt.Fprintf(a.out, "  ID:       %d\n", item.ID)
	fmt.Fprintf(a.out, "  Category: %s\n", item.CategoryLabel())
}

func runReclassify(ctx context.Context, args []string) error {
	fs, g := newFlagSet("reclassify")
	all := fs.Bool("all", false, "reclassify every uncategorised item")
	force := fs.BoolP("force", "f", false, "with --all, include items that already have a category")

	return withApp(ctx, fs, g, args, 0, 1, func(a *app, rest []string) error {
		switch {
		case *all && len(rest) == 0:
			return a.reclassifyAll(ctx, *force)
		case !*all && len(rest) == 1:
			id, err := parseID(rest[0])
			if err != nil {
				return err
			}
			item, err := a.store.ReclassifyItem(ctx, id)
			if err != nil {
				return describe(err, id)
			}
			fmt.Fprintln(a.out, render.Success("Item reclassified"))
			fmt.Fprintf(a.out, "  Title:    %s\n", item.Title)
			fmt.Fprintf(a.out, "  Category: %s\n", item.CategoryLabel())
			if item.Confidence != nil {
				fmt.Fprintf(a.out, "  Confidence: %.0f%%\n", *item.Confidence*100)
			}
			return nil
		default:
			return fmt.Errorf("reclassify takes either an item id or --all")
		}
	})
}

// reclassifyAll collects the candidate items page by page, then reclassifies
// them with bounded concurrency. Individual failures are reported and counted.
func (a *app) reclassifyAll(ctx context.Context, force bool) error {
	var targets []model.Item
	for page := 1; ; page++ {
		res, err := a.store.ListItems(ctx, api.ListItemsParams{Page: page, PageSize: reclassifyPageSize})
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		targets = append(targets, reclassifyTargets(res.Items, force)...)
		if page >= res.TotalPages || len(res.Items) == 0 {
			break
		}
	}

	if len(targets) == 0 {
		fmt.Fprintln(a.out, render.Success("No items to reclassify"))
		return nil
	}
	fmt.Fprintf(a.out, "Reclassifying %d items...\n", len(targets))

	var ok atomic.Int64
	lines := make([]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reclassifyConcurrency)
	for i, it := range targets {
		g.Go(func() error {
			res, err := a.store.ReclassifyItem(gctx, it.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				lines[i] = render.Failure(fmt.Sprintf("%s: %v", truncateTitle(it.Title), err))
				return nil
			}
			ok.Add(1)
			lines[i] = fmt.Sprintf("  %s -> %s", render.Muted(truncateTitle(it.Title)), res.CategoryLabel())
			return nil
		})
	}
	err := g.Wait()
	for _, l := range lines {
		if l != "" {
			fmt.Fprintln(a.out, l)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, render.Success(fmt.Sprintf("Reclassified %d/%d items", ok.Load(), len(targets))))
	return nil
}

// reclassifyTargets filters a page down to uncategorised items unless force
// is set.
func reclassifyTargets(items []model.Item, force bool) []model.Item {
	if force {
		return items
	}
	var out []model.Item
	for _, it := range items {
		if it.CategoryID == nil {
			out = append(out, it)
		}
	}
	return out
}

func truncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= 40 {
		return s
	}
	return string(r[:40])
}
