package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// ErrInvalidParams is wrapped by every request-parameter validation failure.
// No request is sent when it is returned.
var ErrInvalidParams = errors.New("invalid request parameters")

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the backend's "detail" message, when the body carried one.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: backend returned %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// [*StatusError].
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

const maxErrorBody = 64 << 10

func newStatusError(method, path string, resp *http.Response) *StatusError {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(b) == 0 {
		return se
	}
	var body struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(b, &body) == nil {
		switch d := body.Detail.(type) {
		case string:
			se.Detail = d
		case nil:
		default:
			// Validation errors carry a structured detail; keep it verbatim.
			if raw, err := json.Marshal(d); err == nil {
				se.Detail = string(raw)
			}
		}
	}
	return se
}
