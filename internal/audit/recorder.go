package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wardenhq/warden/pkg/pagination"
	"github.com/wardenhq/warden/pkg/repository"
)

// Recorder persists and queries audit entries.
type Recorder interface {
	Handler() *Handler

	// Append writes an entry using the given executor. Callers pass their
	// open transaction so the entry commits atomically with the mutation
	// it describes.
	Append(ctx context.Context, ex repository.Executor, e Entry) (Entry, error)

	// Trail returns the entries for one attachment, newest first.
	Trail(
		ctx context.Context,
		attachmentID int64,
		page pagination.PageRequest,
	) (*pagination.PageResult[Entry], error)
}

type recorder struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit recorder backed by the classification store.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Recorder {
	return &recorder{
		db:         db,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *recorder) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *recorder) Append(ctx context.Context, ex repository.Executor, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Action == "" {
		e.Action = ActionFor(e.Added, e.Removed)
	}

	added, err := marshalIDs(e.Added)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal added reason ids: %w", err)
	}
	removed, err := marshalIDs(e.Removed)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal removed reason ids: %w", err)
	}

	insertQ := `
		INSERT INTO attachment_security_audit(
			audit_id, attachment_id, actor_id, action,
			added_reason_ids, removed_reason_ids, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if err := repository.ExecExpectOne(ctx, ex, insertQ,
		e.ID, e.AttachmentID, e.ActorID, string(e.Action), added, removed, e.CreatedAt,
	); err != nil {
		return Entry{}, fmt.Errorf("append audit entry: %w", err)
	}

	return e, nil
}

func (r *recorder) Trail(
	ctx context.Context,
	attachmentID int64,
	page pagination.PageRequest,
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	countQ := `SELECT COUNT(*) FROM attachment_security_audit WHERE attachment_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, attachmentID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	trailQ := `
		SELECT audit_id, attachment_id, actor_id, action,
			   added_reason_ids, removed_reason_ids, created_at
		FROM attachment_security_audit
		WHERE attachment_id = $1
		ORDER BY audit_id DESC
		LIMIT $2 OFFSET $3`

	args := []any{attachmentID, page.PageSize, page.Offset()}
	items, err := repository.QueryMany(ctx, r.db, trailQ, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var (
		e       Entry
		added   []byte
		removed []byte
	)

	if err := s.Scan(
		&e.ID,
		&e.AttachmentID,
		&e.ActorID,
		&e.Action,
		&added,
		&removed,
		&e.CreatedAt,
	); err != nil {
		return Entry{}, err
	}

	if err := json.Unmarshal(added, &e.Added); err != nil {
		return Entry{}, fmt.Errorf("unmarshal added reason ids: %w", err)
	}
	if err := json.Unmarshal(removed, &e.Removed); err != nil {
		return Entry{}, fmt.Errorf("unmarshal removed reason ids: %w", err)
	}

	return e, nil
}

func marshalIDs(ids []int64) ([]byte, error) {
	if ids == nil {
		ids = []int64{}
	}
	return json.Marshal(ids)
}
