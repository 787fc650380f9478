// Package access implements the attachment access policy. Every disclosure
// decision in the service flows through Evaluate so the fail-closed rule for
// unreviewed attachments cannot be bypassed by a forgotten case.
package access

import (
	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/classification"
)

// Decision reports what may be returned to the caller.
type Decision struct {
	// Metadata allows returning the attachment's descriptive record.
	Metadata bool
	// Content allows returning the file contents.
	Content bool
}

var (
	allowAll     = Decision{Metadata: true, Content: true}
	metadataOnly = Decision{Metadata: true, Content: false}
	denyAll      = Decision{}
)

// Evaluate decides attachment disclosure for a caller. The rules are ordered;
// the first match wins:
//
//  1. System and data administrators see everything.
//  2. Active participants on the owning project or survey see their own data.
//  3. SECURED attachments withhold content from everyone else; metadata is
//     returned to authenticated callers only.
//  4. Unreviewed attachments (SUBMITTED, PENDING_REVIEW) are treated exactly
//     like SECURED. Unreviewed is never assumed safe.
//  5. UNSECURED attachments are open to any caller, including anonymous.
//
// Evaluate never errors: callers map missing classification records to an
// unreviewed state before calling, so ambiguity always lands on rule 4.
func Evaluate(p *auth.Principal, participant bool, state classification.State) Decision {
	if p.Administrator() {
		return allowAll
	}

	if participant {
		return allowAll
	}

	if state.Restricted() {
		if p != nil {
			return metadataOnly
		}
		return denyAll
	}

	return allowAll
}
