package classification

import "context"

// System defines the public contract of the classification engine.
type System interface {
	Handler() *Handler

	// StateOf computes the current classification status of one attachment.
	// Absence of a record is not an error; it evaluates as SUBMITTED.
	StateOf(ctx context.Context, attachmentID int64) (*Status, error)

	// StatesOf computes statuses for several attachments, preserving input
	// order. Reads committed state only; never joins a mutation transaction.
	StatesOf(ctx context.Context, attachmentIDs []int64) ([]Status, error)

	// ApplyBatch validates and commits a batch of classification mutations
	// inside one transaction. The whole batch commits or none of it does.
	// Review is implicit in any operation: every touched attachment gets
	// its review timestamp stamped.
	ApplyBatch(ctx context.Context, actorID string, ops []Operation) (*BatchResult, error)

	// MarkReviewed stamps the review timestamp without altering tags, for
	// an explicit "no sensitivity issues" confirmation.
	MarkReviewed(ctx context.Context, actorID string, attachmentID int64, expectedRevision *int) (*Outcome, error)
}
