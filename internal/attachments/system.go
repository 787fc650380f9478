package attachments

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/classification"
	"github.com/wardenhq/warden/pkg/pagination"
)

// System defines the public contract for attachment registry operations.
// The registry also implements classification.Registry for scope checks.
type System interface {
	// Handler builds the HTTP handler. The classifier is injected here
	// rather than at construction because the classification engine itself
	// depends on the registry for scope checks.
	Handler(maxUploadSize int64, classifier classification.System) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Attachment], error)

	Find(ctx context.Context, id int64) (*Attachment, error)
	Create(ctx context.Context, cmd CreateCommand) (*Attachment, error)
	Delete(ctx context.Context, id int64) error

	// Open returns a content stream for the attachment. The caller is
	// responsible for access gating and for closing the reader.
	Open(ctx context.Context, a *Attachment) (io.ReadCloser, error)

	// IsParticipant reports whether the subject holds an active role on the
	// attachment's owning project or survey.
	IsParticipant(ctx context.Context, subject string, a *Attachment) (bool, error)

	// MissingInProject returns the subset of attachmentIDs not owned by the project.
	MissingInProject(ctx context.Context, projectID uuid.UUID, attachmentIDs []int64) ([]int64, error)
	// MissingInSurvey returns the subset of attachmentIDs not owned by the survey.
	MissingInSurvey(ctx context.Context, surveyID uuid.UUID, attachmentIDs []int64) ([]int64, error)
}
