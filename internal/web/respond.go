package web

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// ErrorCode classifies an error response.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeUpstream       ErrorCode = "upstream_unavailable"
	ErrCodeInternal       ErrorCode = "internal_error"
)

// APIError is the body of every error response.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse wraps an APIError.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, msg string) {
	writeJSON(w, status, ErrorResponse{Error: APIError{Code: code, Message: msg}})
}

func writeInvalidRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, msg)
}

func writeUpstream(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadGateway, ErrCodeUpstream, msg)
}
