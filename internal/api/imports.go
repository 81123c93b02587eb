package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/njoerd114/kvault/internal/model"
)

// ImportFile uploads a file as multipart/form-data. The body is streamed, so
// p.Content is read exactly once.
func (c *Client) ImportFile(ctx context.Context, p ImportFileParams) (*model.Item, error) {
	if err := check(p); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeImportForm(mw, p))
	}()

	r := request{
		method:      http.MethodPost,
		path:        "/import/file",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}
	var item model.Item
	err := c.do(ctx, r, &item)
	_ = pr.Close()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// writeImportForm encodes the upload form: file, category_id, auto_classify.
func writeImportForm(mw *multipart.Writer, p ImportFileParams) error {
	part, err := mw.CreateFormFile("file", p.Name)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, p.Content); err != nil {
		return fmt.Errorf("copy %q into upload: %w", p.Name, err)
	}
	if p.CategoryID != nil {
		if err := mw.WriteField("category_id", strconv.FormatInt(*p.CategoryID, 10)); err != nil {
			return err
		}
	}
	if err := mw.WriteField("auto_classify", strconv.FormatBool(autoClassify(p.AutoClassify))); err != nil {
		return err
	}
	return mw.Close()
}

// ImportURL asks the backend to scrape and import a web page.
func (c *Client) ImportURL(ctx context.Context, p ImportURLParams) (*model.Item, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	var item model.Item
	r := request{method: http.MethodPost, path: "/import/url", query: p.values()}
	if err := c.do(ctx, r, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ImportPath asks the backend to import a file or directory from its own
// filesystem.
func (c *Client) ImportPath(ctx context.Context, req ImportPathRequest) (*model.ImportResult, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	var res model.ImportResult
	if err := c.sendJSON(ctx, http.MethodPost, "/import/path", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Reclassify re-runs automatic classification for the item and returns it with
// its new category.
func (c *Client) Reclassify(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	path := fmt.Sprintf("/import/%d/reclassify", id)
	if err := c.sendJSON(ctx, http.MethodPost, path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
