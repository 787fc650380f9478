package classification

// Operation is one per-attachment classification mutation within a batch.
// Add and Remove must reference known, non-retired reasons. A nil
// ExpectedRevision means "current at commit time" and skips the optimistic
// concurrency check.
type Operation struct {
	AttachmentID     int64   `json:"attachment_id"`
	Add              []int64 `json:"add"`
	Remove           []int64 `json:"remove"`
	ExpectedRevision *int    `json:"expected_revision"`
}

// Outcome reports the committed result for one attachment in a batch.
type Outcome struct {
	AttachmentID  int64 `json:"attachment_id"`
	RevisionCount int   `json:"revision_count"`
	State         State `json:"state"`
}

// BatchResult is the response of a committed batch. Batches are
// all-or-nothing, so every submitted attachment appears here.
type BatchResult struct {
	Results []Outcome `json:"results"`
}

// CrossProductRequest is the wire shape of the scoped security endpoints:
// every given reason id is applied to (or removed from) every given
// attachment id as one atomic batch.
type CrossProductRequest struct {
	SecurityIDs   []int64 `json:"security_ids"`
	AttachmentIDs []int64 `json:"attachment_ids"`
}

// Operations expands the cross product into one Operation per attachment,
// preserving the caller-supplied attachment order.
func (r CrossProductRequest) Operations(add bool) []Operation {
	ops := make([]Operation, 0, len(r.AttachmentIDs))
	for _, attachmentID := range r.AttachmentIDs {
		op := Operation{AttachmentID: attachmentID}
		if add {
			op.Add = r.SecurityIDs
		} else {
			op.Remove = r.SecurityIDs
		}
		ops = append(ops, op)
	}
	return ops
}

// ReviewRequest is the wire shape of the explicit "no sensitivity issues"
// confirmation.
type ReviewRequest struct {
	ExpectedRevision *int `json:"expected_revision"`
}
