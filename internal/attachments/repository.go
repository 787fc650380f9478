package attachments

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/classification"
	"github.com/wardenhq/warden/pkg/pagination"
	"github.com/wardenhq/warden/pkg/query"
	"github.com/wardenhq/warden/pkg/repository"
	"github.com/wardenhq/warden/pkg/storage"
)

type repo struct {
	db         *sql.DB
	store      storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an attachment registry implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		store:      store,
		logger:     logger.With("system", "attachments"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64, classifier classification.System) *Handler {
	return NewHandler(r, classifier, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Attachment], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "FileName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count attachments: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAttachment)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Attachment, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAttachment)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Attachment, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	key := storageKey(cmd)

	if err := r.store.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload attachment content: %w", err)
	}

	insertQ := `
		INSERT INTO attachment(
			project_id, survey_id, file_name, file_type,
			content_type, size_bytes, page_count, storage_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING attachment_id, project_id, survey_id, file_name, file_type,
				  content_type, size_bytes, page_count, storage_key,
				  uploaded_at, updated_at`

	insertArgs := []any{
		cmd.ProjectID,
		cmd.SurveyID,
		cmd.FileName,
		cmd.FileType,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Attachment, error) {
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanAttachment)
	})
	if err != nil {
		// Registration failed; the orphaned blob must not linger.
		if cleanupErr := r.store.Delete(ctx, key); cleanupErr != nil {
			r.logger.Error("orphaned blob cleanup failed", "key", key, "error", cleanupErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("attachment registered",
		"attachment_id", a.ID,
		"file_name", a.FileName,
		"file_type", a.FileType,
		"size_bytes", a.SizeBytes,
	)
	return &a, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	a, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	// Classification rows and audit entries cascade with the attachment row.
	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM attachment WHERE attachment_id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.store.Delete(ctx, a.StorageKey); err != nil {
		r.logger.Error("attachment blob delete failed", "key", a.StorageKey, "error", err)
	}

	r.logger.Info("attachment deleted", "attachment_id", id)
	return nil
}

func (r *repo) Open(ctx context.Context, a *Attachment) (io.ReadCloser, error) {
	body, err := r.store.Download(ctx, a.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download attachment %d: %w", a.ID, err)
	}
	return body, nil
}

func (r *repo) IsParticipant(ctx context.Context, subject string, a *Attachment) (bool, error) {
	var (
		participationQ string
		scopeID        uuid.UUID
	)

	switch {
	case a.ProjectID != nil:
		participationQ = `
			SELECT COUNT(*) FROM project_participation
			WHERE project_id = $1 AND user_id = $2 AND active`
		scopeID = *a.ProjectID
	case a.SurveyID != nil:
		participationQ = `
			SELECT COUNT(*) FROM survey_participation
			WHERE survey_id = $1 AND user_id = $2 AND active`
		scopeID = *a.SurveyID
	default:
		return false, ErrInvalidScope
	}

	var n int
	if err := r.db.QueryRowContext(ctx, participationQ, scopeID, subject).Scan(&n); err != nil {
		return false, fmt.Errorf("check participation: %w", err)
	}
	return n > 0, nil
}

func (r *repo) MissingInProject(ctx context.Context, projectID uuid.UUID, attachmentIDs []int64) ([]int64, error) {
	return r.missingInScope(ctx,
		"SELECT COUNT(*) FROM attachment WHERE attachment_id = $1 AND project_id = $2",
		projectID, attachmentIDs,
	)
}

func (r *repo) MissingInSurvey(ctx context.Context, surveyID uuid.UUID, attachmentIDs []int64) ([]int64, error) {
	return r.missingInScope(ctx,
		"SELECT COUNT(*) FROM attachment WHERE attachment_id = $1 AND survey_id = $2",
		surveyID, attachmentIDs,
	)
}

func (r *repo) missingInScope(ctx context.Context, scopeQ string, scopeID uuid.UUID, attachmentIDs []int64) ([]int64, error) {
	missing := make([]int64, 0)
	for _, id := range attachmentIDs {
		var n int
		if err := r.db.QueryRowContext(ctx, scopeQ, id, scopeID).Scan(&n); err != nil {
			return nil, fmt.Errorf("verify attachment %d scope: %w", id, err)
		}
		if n == 0 {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func validateCreate(cmd CreateCommand) error {
	if len(cmd.Data) == 0 || cmd.FileName == "" {
		return ErrInvalidFile
	}
	if !ValidFileType(cmd.FileType) {
		return fmt.Errorf("%w: unknown file type %q", ErrInvalidFile, cmd.FileType)
	}
	if (cmd.ProjectID == nil) == (cmd.SurveyID == nil) {
		return ErrInvalidScope
	}
	return nil
}

func storageKey(cmd CreateCommand) string {
	scope := "project"
	id := cmd.ProjectID
	if cmd.SurveyID != nil {
		scope = "survey"
		id = cmd.SurveyID
	}
	return path.Join(scope, id.String(), uuid.NewString(), cmd.FileName)
}
