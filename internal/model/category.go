package model

// Category is a hierarchical grouping node for items.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    *int64    `json:"parent_id"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	ItemCount   int       `json:"item_count"`
}

// CategoryInput is the body of a create-category request.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// CategoryPatch is the body of an update-category request.
type CategoryPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ParentID    *int64  `json:"parent_id,omitempty"`
	Color       *string `json:"color,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// CategoryNode is a category with its nested children, as returned by the
// category tree endpoint.
type CategoryNode struct {
	Category
	Children []CategoryNode `json:"children"`
}

// Flatten walks a category forest depth-first, parents before children, and
// returns the categories in visit order. depth receives each node's nesting
// level (0 for roots) when non-nil.
func Flatten(roots []CategoryNode, depth func(c Category, level int)) []Category {
	var out []Category
	var walk func(nodes []CategoryNode, level int)
	walk = func(nodes []CategoryNode, level int) {
		for _, n := range nodes {
			out = append(out, n.Category)
			if depth != nil {
				depth(n.Category, level)
			}
			walk(n.Children, level+1)
		}
	}
	walk(roots, 0)
	return out
}

// CategoryGroup is one entry of the items-by-category listing. The listing is
// keyed by category name; uncategorized items appear under "Uncategorized"
// with a nil CategoryID.
type CategoryGroup struct {
	CategoryID *int64 `json:"category_id"`
	Color      string `json:"color,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Items      []Item `json:"items"`
}

// CategoryWithItems pairs a category with the cached items that reference it.
type CategoryWithItems struct {
	Category
	Items []Item `json:"items"`
}

// GroupByCategory attaches to every category, in category order, exactly the
// items whose category reference equals that category's id, in item order.
// Uncategorized items and items referencing unknown categories attach nowhere.
func GroupByCategory(categories []Category, items []Item) []CategoryWithItems {
	byCategory := make(map[int64][]Item, len(categories))
	for _, it := range items {
		if it.CategoryID == nil {
			continue
		}
		byCategory[*it.CategoryID] = append(byCategory[*it.CategoryID], it)
	}

	out := make([]CategoryWithItems, 0, len(categories))
	for _, c := range categories {
		group := byCategory[c.ID]
		if group == nil {
			group = []Item{}
		}
		out = append(out, CategoryWithItems{Category: c, Items: group})
	}
	return out
}
