package reasons

import (
	"errors"
	"net/http"
)

// Domain errors for catalog operations.
var (
	ErrNotFound   = errors.New("security reason not found")
	ErrDuplicate  = errors.New("security reason already exists")
	ErrInvalid    = errors.New("invalid security reason")
	ErrRetired    = errors.New("security reason is retired")
)

// MapHTTPStatus maps catalog domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalid) || errors.Is(err, ErrRetired) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
