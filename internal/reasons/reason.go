// Package reasons implements the sensitivity reason catalog for Warden.
// Reasons form a closed, administrator-maintained set; applied tags keep
// referencing retired rows, so retirement is a soft operation.
package reasons

import "time"

// Reason is a catalog entry describing why an attachment might be sensitive.
// Immutable once in use except for expiry and retirement.
type Reason struct {
	ID          int64      `json:"reason_id"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	RetiredAt   *time.Time `json:"retired_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Expired reports whether the reason's expiry has passed. An expired reason
// is treated as inapplicable regardless of whether it is still tagged.
func (r Reason) Expired(now time.Time) bool {
	return r.ExpiryDate != nil && !r.ExpiryDate.After(now)
}

// Retired reports whether the reason has been withdrawn from the catalog.
func (r Reason) Retired() bool {
	return r.RetiredAt != nil
}

// CreateCommand carries the data needed to add a catalog entry.
type CreateCommand struct {
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}
