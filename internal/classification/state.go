// Package classification implements the attachment security classification
// engine for Warden. It persists review state and applied sensitivity
// reasons, executes batch classification mutations transactionally, and
// computes the derived security state consumed by every access decision.
package classification

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the derived security state of an attachment. It is never stored;
// every consumer computes it from the classification record at read time so
// reason expiry and concurrent edits are always reflected.
type State int

const (
	// StateSubmitted means the attachment exists but the engine has never
	// been contacted for it (no classification record). Fails closed.
	StateSubmitted State = iota
	// StatePendingReview means a record exists but no reviewer has stamped
	// it. Fails closed; any tags left from a prior review cycle are ignored.
	StatePendingReview
	// StateSecured means the attachment is reviewed and at least one
	// applied reason is still effective.
	StateSecured
	// StateUnsecured means the attachment is reviewed and no applied
	// reason remains effective.
	StateUnsecured
)

var stateLabels = map[State]string{
	StateSubmitted:     "SUBMITTED",
	StatePendingReview: "PENDING_REVIEW",
	StateSecured:       "SECURED",
	StateUnsecured:     "UNSECURED",
}

func (s State) String() string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Reviewed reports whether a reviewer has stamped the attachment.
func (s State) Reviewed() bool {
	return s == StateSecured || s == StateUnsecured
}

// Restricted reports whether the state withholds content from callers
// without an elevated role. Unknown states restrict.
func (s State) Restricted() bool {
	return s != StateUnsecured
}

// MarshalJSON serializes the state as its UI label.
func (s State) MarshalJSON() ([]byte, error) {
	label, ok := stateLabels[s]
	if !ok {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return json.Marshal(label)
}

// UnmarshalJSON parses a UI label into a State.
func (s *State) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}

	for state, l := range stateLabels {
		if l == label {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", label)
}

// AppliedReason is one tagged sensitivity reason with its catalog expiry.
type AppliedReason struct {
	ReasonID   int64
	ExpiryDate *time.Time
}

// Effective reports whether the applied reason still contributes to the
// SECURED state at the given instant.
func (a AppliedReason) Effective(now time.Time) bool {
	return a.ExpiryDate == nil || a.ExpiryDate.After(now)
}

// Record is the persisted security state of one attachment.
type Record struct {
	AttachmentID  int64
	ReviewedAt    *time.Time
	Applied       []AppliedReason
	RevisionCount int
}

// ComputeState derives the security state of a classification record at the
// given instant. A nil record means the engine has never seen the
// attachment. Pure; callers must re-evaluate on every read because reason
// expiry is time-dependent.
func ComputeState(rec *Record, now time.Time) State {
	if rec == nil {
		return StateSubmitted
	}
	if rec.ReviewedAt == nil {
		return StatePendingReview
	}

	for _, applied := range rec.Applied {
		if applied.Effective(now) {
			return StateSecured
		}
	}
	return StateUnsecured
}

// Status is the read-model of one attachment's classification, returned by
// state queries and batch results.
type Status struct {
	AttachmentID     int64      `json:"attachment_id"`
	State            State      `json:"state"`
	RevisionCount    int        `json:"revision_count"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	AppliedReasonIDs []int64    `json:"applied_reason_ids"`
}
