// Package render formats store data for the terminal: item and category
// tables, the category tree, and the stats summary.
package render

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/njoerd114/kvault/internal/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const maxTitle = 48

// Success renders a confirmation line.
func Success(msg string) string { return successStyle.Render("✔ " + msg) }

// Failure renders an error line.
func Failure(msg string) string { return errorStyle.Render("✖ " + msg) }

// Muted renders secondary text.
func Muted(msg string) string { return mutedStyle.Render(msg) }

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Items renders items as a table. An empty list renders a muted notice.
func Items(items []model.Item) string {
	if len(items) == 0 {
		return Muted("No items.")
	}
	t := newTable("ID", "Title", "Type", "Category", "★", "Created")
	for _, it := range items {
		fav := ""
		if it.IsFavorite {
			fav = "★"
		}
		created := ""
		if !it.CreatedAt.IsZero() {
			created = it.CreatedAt.Format("2006-01-02")
		}
		t.Row(
			strconv.FormatInt(it.ID, 10),
			truncate(it.Title, maxTitle),
			string(it.ContentType),
			it.CategoryLabel(),
			fav,
			created,
		)
	}
	return t.String()
}

// Page renders an item page with its pagination footer.
func Page(p *model.ItemPage) string {
	if p == nil {
		return Muted("No results.")
	}
	footer := Muted(fmt.Sprintf("page %d of %d · %d total", p.Page, max(p.TotalPages, 1), p.Total))
	return Items(p.Items) + "\n" + footer
}

// Categories renders categories as a table, resolving parent names from the
// same list.
func Categories(cats []model.Category) string {
	if len(cats) == 0 {
		return Muted("No categories.")
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	t := newTable("ID", "Name", "Items", "Parent", "Description")
	for _, c := range cats {
		parent := ""
		if c.ParentID != nil {
			parent = names[*c.ParentID]
		}
		t.Row(
			strconv.FormatInt(c.ID, 10),
			c.Name,
			strconv.Itoa(c.ItemCount),
			parent,
			truncate(c.Description, maxTitle),
		)
	}
	return t.String()
}

// CategoryTree renders the category hierarchy.
func CategoryTree(roots []model.CategoryNode) string {
	if len(roots) == 0 {
		return Muted("No categories.")
	}
	t := tree.Root(accentStyle.Render("Categories")).
		Enumerator(tree.RoundedEnumerator)
	for _, n := range roots {
		t.Child(categoryBranch(n))
	}
	return t.String()
}

func categoryBranch(n model.CategoryNode) any {
	label := fmt.Sprintf("%s %s", n.Name, Muted(fmt.Sprintf("(%d)", n.ItemCount)))
	if len(n.Children) == 0 {
		return label
	}
	t := tree.Root(label)
	for _, c := range n.Children {
		t.Child(categoryBranch(c))
	}
	return t
}

// Stats renders the vault summary.
func Stats(s *model.Stats) string {
	if s == nil {
		return Muted("No stats available.")
	}
	t := newTable("Metric", "Value").
		Row("Items", strconv.Itoa(s.TotalItems)).
		Row("Categories", strconv.Itoa(s.TotalCategories)).
		Row("Tags", strconv.Itoa(s.TotalTags)).
		Row("Storage", model.HumanSize(s.TotalStorageBytes))

	types := make([]model.ContentType, 0, len(s.ItemsByType))
	for ct := range s.ItemsByType {
		types = append(types, ct)
	}
	slices.Sort(types)
	for _, ct := range types {
		t.Row("  "+string(ct), strconv.Itoa(s.ItemsByType[ct]))
	}
	return t.String()
}

// Associations renders the items linked to another item.
func Associations(links []model.ItemBrief) string {
	if len(links) == 0 {
		return Muted("No linked items.")
	}
	t := newTable("ID", "Title", "Type")
	for _, l := range links {
		t.Row(strconv.FormatInt(l.ID, 10), truncate(l.Title, maxTitle), string(l.ContentType))
	}
	return t.String()
}

// Summary renders an AI summary and its category recommendation.
func Summary(s *model.AISummary) string {
	var b strings.Builder
	b.WriteString(s.Summary)
	if s.RecommendedCategory != "" {
		b.WriteString("\n\n")
		b.WriteString(accentStyle.Render("Suggested category: " + s.RecommendedCategory))
		if s.Confidence != nil {
			b.WriteString(Muted(fmt.Sprintf(" (%.0f%%)", *s.Confidence*100)))
		}
	}
	return b.String()
}

// ImportResult renders the outcome of a path import.
func ImportResult(r *model.ImportResult) string {
	var b strings.Builder
	line := fmt.Sprintf("Imported %d, skipped %d", r.ItemsImported, r.ItemsSkipped)
	if r.Success {
		b.WriteString(Success(line))
	} else {
		b.WriteString(Failure(line))
	}
	for _, e := range r.Errors {
		b.WriteString("\n  " + errorStyle.Render(e))
	}
	if len(r.Items) > 0 {
		b.WriteString("\n" + Items(r.Items))
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
