package attachments

import (
	"errors"
	"net/http"
)

// Domain errors for attachment operations.
var (
	ErrNotFound     = errors.New("attachment not found")
	ErrDuplicate    = errors.New("attachment already exists")
	ErrInvalidFile  = errors.New("invalid file")
	ErrInvalidScope = errors.New("attachment must belong to exactly one project or survey")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrDenied       = errors.New("access to this attachment is restricted")
)

// MapHTTPStatus maps attachment domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidFile) || errors.Is(err, ErrInvalidScope) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrDenied) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
