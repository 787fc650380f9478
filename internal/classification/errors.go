package classification

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Domain errors for classification operations. Any operation failure rejects
// the entire batch; a half-classified batch could leak sensitive attachments
// as UNSECURED.
var (
	ErrUnknownReason     = errors.New("security reason does not exist or is retired")
	ErrUnknownAttachment = errors.New("attachment not found")
	ErrRevisionConflict  = errors.New("attachment was modified by someone else")
	ErrTimeout           = errors.New("classification transaction timed out")
	ErrStoreUnavailable  = errors.New("classification store unavailable")
	ErrEmptyBatch        = errors.New("batch contains no operations")
	ErrInvalidRequest    = errors.New("invalid classification request")
)

// OperationError attributes a batch failure to a specific attachment (and
// reason, when known) so the caller can mount a targeted retry.
type OperationError struct {
	AttachmentID int64
	ReasonID     int64
	Err          error
}

func (e *OperationError) Error() string {
	if e.ReasonID != 0 {
		return fmt.Sprintf("attachment %d, reason %d: %v", e.AttachmentID, e.ReasonID, e.Err)
	}
	return fmt.Sprintf("attachment %d: %v", e.AttachmentID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// MapHTTPStatus maps classification domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRevisionConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnknownAttachment):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownReason):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// mapStoreErr translates transport-level failures into the retryable
// taxonomy. Domain errors pass through unchanged.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return err
}
