// Package audit implements the append-only record of classification changes.
// Entries are written inside the same transaction as the mutation they
// describe, so an entry's existence is a reliable proxy for a committed
// mutation. A database-level journal trigger mirrors every row change
// independently of this package (see cmd/migrate migrations).
package audit

import "time"

// Action identifies the kind of classification change an entry records.
type Action string

const (
	// ActionReview marks a review that altered no tags.
	ActionReview Action = "REVIEW"
	// ActionTag marks a review that applied at least one reason.
	ActionTag Action = "TAG"
	// ActionUntag marks a review that only removed reasons.
	ActionUntag Action = "UNTAG"
)

// Entry is one append-only audit record. Never mutated or deleted.
type Entry struct {
	ID           string    `json:"audit_id"`
	AttachmentID int64     `json:"attachment_id"`
	ActorID      string    `json:"actor_id"`
	Action       Action    `json:"action"`
	Added        []int64   `json:"added_reason_ids"`
	Removed      []int64   `json:"removed_reason_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActionFor derives the recorded action from the delta actually applied.
func ActionFor(added, removed []int64) Action {
	switch {
	case len(added) > 0:
		return ActionTag
	case len(removed) > 0:
		return ActionUntag
	default:
		return ActionReview
	}
}
