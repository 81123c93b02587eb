// Package model defines the KnowledgeVault wire types shared by the API client,
// the state store, the snapshot cache, and the views.
//
// Field names and JSON tags mirror the backend's snake_case schema. Nullable
// backend fields are pointers; optional strings use omitempty.
package model

import (
	"strings"
	"time"
)

// ContentType classifies how an item entered the vault.
type ContentType string

const (
	// ContentFile is an uploaded or path-imported file.
	ContentFile ContentType = "file"
	// ContentURL is a scraped web page.
	ContentURL ContentType = "url"
	// ContentNote is a note created directly through the API.
	ContentNote ContentType = "note"
)

// ContentTypes lists every content type in display order.
var ContentTypes = []ContentType{ContentFile, ContentURL, ContentNote}

// Timestamp decodes both RFC 3339 timestamps and the naive ISO-8601 form the
// backend emits for UTC datetimes ("2006-01-02T15:04:05.999999").
type Timestamp struct {
	time.Time
}

const naiveLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. Zero values encode as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// At wraps a time.Time as a Timestamp.
func At(t time.Time) Timestamp { return Timestamp{Time: t} }

// Item is a managed content record. It belongs to at most one category, may be
// favorited, and may be associated with other items.
type Item struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	CategoryID    *int64         `json:"category_id"`
	ContentType   ContentType    `json:"content_type"`
	FilePath      string         `json:"file_path,omitempty"`
	OriginalPath  string         `json:"original_path,omitempty"`
	URL           string         `json:"url,omitempty"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	FileHash      string         `json:"file_hash,omitempty"`
	FileSize      *int64         `json:"file_size,omitempty"`
	MimeType      string         `json:"mime_type,omitempty"`
	ThumbnailPath string         `json:"thumbnail_path,omitempty"`
	Confidence    *float64       `json:"confidence,omitempty"`
	Metadata      map[string]any `json:"item_metadata,omitempty"`
	IsFavorite    bool           `json:"is_favorite"`
	FavoriteAt    *Timestamp     `json:"favorite_at,omitempty"`
	CreatedAt     Timestamp      `json:"created_at"`
	UpdatedAt     Timestamp      `json:"updated_at"`

	CategoryName    string      `json:"category_name,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	AssociatedItems []ItemBrief `json:"associated_items,omitempty"`
}

// InCategory reports whether the item's category reference equals id.
// Uncategorized items are in no category.
func (i *Item) InCategory(id int64) bool {
	return i.CategoryID != nil && *i.CategoryID == id
}

// CategoryLabel returns the category name, or "Uncategorized".
func (i *Item) CategoryLabel() string {
	if i.CategoryName == "" {
		return "Uncategorized"
	}
	return i.CategoryName
}

// ItemBrief is the abbreviated form used for associated items.
type ItemBrief struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	ContentType   ContentType `json:"content_type"`
	ThumbnailPath string      `json:"thumbnail_path,omitempty"`
}

// ItemPage is a paginated item listing. Both the list and search endpoints
// return this shape.
type ItemPage struct {
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// ItemInput is the body of a create-item request.
type ItemInput struct {
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	CategoryID    *int64         `json:"category_id,omitempty"`
	ContentType   ContentType    `json:"content_type,omitempty"`
	URL           string         `json:"url,omitempty"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	Metadata      map[string]any `json:"item_metadata,omitempty"`
}

// ItemPatch is the body of an update-item request. Nil fields are left
// unchanged by the backend.
type ItemPatch struct {
	Title         *string        `json:"title,omitempty"`
	Description   *string        `json:"description,omitempty"`
	CategoryID    *int64         `json:"category_id,omitempty"`
	ExtractedText *string        `json:"extracted_text,omitempty"`
	Metadata      map[string]any `json:"item_metadata,omitempty"`
	IsFavorite    *bool          `json:"is_favorite,omitempty"`
}

// AISummary is the backend's AI-generated summary and category recommendation.
type AISummary struct {
	Summary               string   `json:"summary"`
	RecommendedCategory   string   `json:"recommended_category,omitempty"`
	RecommendedCategoryID *int64   `json:"recommended_category_id,omitempty"`
	Confidence            *float64 `json:"confidence,omitempty"`
}

// ImportResult reports the outcome of a path import.
type ImportResult struct {
	Success       bool     `json:"success"`
	ItemsImported int      `json:"items_imported"`
	ItemsSkipped  int      `json:"items_skipped"`
	Errors        []string `json:"errors"`
	Items         []Item   `json:"items"`
}

// Health is the backend health-check response.
type Health struct {
	Status string `json:"status"`
}

// Healthy reports whether the backend declared itself healthy.
func (h *Health) Healthy() bool { return h != nil && h.Status == "healthy" }

// ID returns a pointer to id, for optional reference fields.
func ID(id int64) *int64 { return &id }
