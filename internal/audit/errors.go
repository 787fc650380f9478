package audit

import (
	"errors"
	"net/http"
)

// ErrInvalidAttachment indicates a malformed attachment id path parameter.
var ErrInvalidAttachment = errors.New("invalid attachment id")

// MapHTTPStatus maps audit domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidAttachment) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
