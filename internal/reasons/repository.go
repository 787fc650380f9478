package reasons

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wardenhq/warden/pkg/pagination"
	"github.com/wardenhq/warden/pkg/query"
	"github.com/wardenhq/warden/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a catalog repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "reasons"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Reason], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count security reasons: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReason)
	if err != nil {
		return nil, fmt.Errorf("query security reasons: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Active(ctx context.Context) ([]Reason, error) {
	qb := query.NewBuilder(projection, defaultSort).WhereNullable("RetiredAt", nil)
	q, args := qb.Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanReason)
	if err != nil {
		return nil, fmt.Errorf("query active security reasons: %w", err)
	}

	return items, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Reason, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	reason, err := repository.QueryOne(ctx, r.db, q, args, scanReason)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &reason, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Reason, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	insertQ := `
		INSERT INTO security_reason(category, title, description, expiry_date)
		VALUES ($1, $2, $3, $4)
		RETURNING reason_id, category, title, description, expiry_date,
				  retired_at, created_at`

	insertArgs := []any{
		strings.TrimSpace(cmd.Category),
		strings.TrimSpace(cmd.Title),
		strings.TrimSpace(cmd.Description),
		cmd.ExpiryDate,
	}

	reason, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Reason, error) {
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanReason)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("security reason created",
		"reason_id", reason.ID,
		"category", reason.Category,
		"title", reason.Title,
	)
	return &reason, nil
}

func (r *repo) Retire(ctx context.Context, id int64) (*Reason, error) {
	retireQ := `
		UPDATE security_reason
		SET retired_at = NOW()
		WHERE reason_id = $1 AND retired_at IS NULL
		RETURNING reason_id, category, title, description, expiry_date,
				  retired_at, created_at`

	reason, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Reason, error) {
		return repository.QueryOne(ctx, tx, retireQ, []any{id}, scanReason)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("security reason retired", "reason_id", reason.ID)
	return &reason, nil
}

func validateCreate(cmd CreateCommand) error {
	if strings.TrimSpace(cmd.Category) == "" {
		return fmt.Errorf("%w: category required", ErrInvalid)
	}
	if strings.TrimSpace(cmd.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalid)
	}
	return nil
}
