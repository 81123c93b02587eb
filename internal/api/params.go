package api

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/njoerd114/kvault/internal/model"
)

// DefaultLimitPerCategory is the items-by-category page size when none is given.
const DefaultLimitPerCategory = 5

var validate = validator.New(validator.WithRequiredStructEnabled())

// check validates p against its struct tags.
func check(p any) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// ListItemsParams filters and paginates GET /items/. Zero values are omitted
// and the backend applies its own defaults (page 1, 20 per page).
type ListItemsParams struct {
	Page          int               `validate:"omitempty,min=1"`
	PageSize      int               `validate:"omitempty,min=1,max=100"`
	CategoryID    *int64            `validate:"omitempty,min=1"`
	ContentType   model.ContentType `validate:"omitempty,oneof=file url note"`
	FavoritesOnly bool
}

func (p ListItemsParams) values() url.Values {
	v := url.Values{}
	addPaging(v, p.Page, p.PageSize)
	addFilters(v, p.CategoryID, p.ContentType)
	if p.FavoritesOnly {
		v.Set("favorites_only", "true")
	}
	return v
}

// SearchParams drives GET /search/. Query is matched against title,
// description, and extracted text.
type SearchParams struct {
	Query       string            `validate:"required"`
	CategoryID  *int64            `validate:"omitempty,min=1"`
	ContentType model.ContentType `validate:"omitempty,oneof=file url note"`
	Page        int               `validate:"omitempty,min=1"`
	PageSize    int               `validate:"omitempty,min=1,max=100"`
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	v.Set("q", p.Query)
	addFilters(v, p.CategoryID, p.ContentType)
	addPaging(v, p.Page, p.PageSize)
	return v
}

// ImportURLParams drives POST /import/url. A nil AutoClassify means true.
type ImportURLParams struct {
	URL          string `validate:"required,url"`
	CategoryID   *int64 `validate:"omitempty,min=1"`
	AutoClassify *bool
}

func (p ImportURLParams) values() url.Values {
	v := url.Values{}
	v.Set("url", p.URL)
	if p.CategoryID != nil {
		v.Set("category_id", strconv.FormatInt(*p.CategoryID, 10))
	}
	v.Set("auto_classify", strconv.FormatBool(autoClassify(p.AutoClassify)))
	return v
}

// ImportFileParams drives the multipart POST /import/file upload.
// A nil AutoClassify means true.
type ImportFileParams struct {
	// Name is the file name reported to the backend; it becomes the item title.
	Name         string    `validate:"required"`
	Content      io.Reader `validate:"required"`
	CategoryID   *int64    `validate:"omitempty,min=1"`
	AutoClassify *bool
}

// ImportPathRequest is the JSON body of POST /import/path. Path is resolved on
// the backend host, not locally. A nil AutoClassify lets the backend default
// to true.
type ImportPathRequest struct {
	Path         string `json:"path" validate:"required"`
	CategoryID   *int64 `json:"category_id,omitempty" validate:"omitempty,min=1"`
	AutoClassify *bool  `json:"auto_classify,omitempty"`
}

// Bool returns a pointer to b, for the optional AutoClassify fields.
func Bool(b bool) *bool { return &b }

func autoClassify(b *bool) bool { return b == nil || *b }

func addPaging(v url.Values, page, pageSize int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}
}

func addFilters(v url.Values, categoryID *int64, ct model.ContentType) {
	if categoryID != nil {
		v.Set("category_id", strconv.FormatInt(*categoryID, 10))
	}
	if ct != "" {
		v.Set("content_type", string(ct))
	}
}

// Validate reports whether p would be accepted by [Client.ListItems].
func (p ListItemsParams) Validate() error { return check(p) }

// Validate reports whether p would be accepted by [Client.Search].
func (p SearchParams) Validate() error { return check(p) }
