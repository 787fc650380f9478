package classification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"github.com/wardenhq/warden/internal/audit"
	"github.com/wardenhq/warden/internal/obs"
	"github.com/wardenhq/warden/pkg/repository"
)

const pgForeignKeyCode = "23503"

// stateReadConcurrency bounds parallel per-attachment reads in StatesOf.
const stateReadConcurrency = 4

type engine struct {
	db       *sql.DB
	recorder audit.Recorder
	registry Registry
	logger   *slog.Logger
	cfg      Config
}

// New creates a classification engine implementing the System interface.
// The engine takes no in-process locks; correctness across concurrent
// reviewers and service instances rests entirely on the per-attachment
// revision check inside the transaction.
func New(
	db *sql.DB,
	recorder audit.Recorder,
	registry Registry,
	logger *slog.Logger,
	cfg Config,
) System {
	return &engine{
		db:       db,
		recorder: recorder,
		registry: registry,
		logger:   logger.With("system", "classification"),
		cfg:      cfg,
	}
}

func (e *engine) Handler() *Handler {
	return NewHandler(e, e.registry, e.logger, e.cfg)
}

func (e *engine) StateOf(ctx context.Context, attachmentID int64) (*Status, error) {
	rec, err := e.loadRecord(ctx, e.db, attachmentID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	status := statusOf(attachmentID, rec, time.Now().UTC())
	return &status, nil
}

func (e *engine) StatesOf(ctx context.Context, attachmentIDs []int64) ([]Status, error) {
	statuses := make([]Status, len(attachmentIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stateReadConcurrency)

	for i, id := range attachmentIDs {
		g.Go(func() error {
			status, err := e.StateOf(gctx, id)
			if err != nil {
				return err
			}
			statuses[i] = *status
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (e *engine) ApplyBatch(ctx context.Context, actorID string, ops []Operation) (*BatchResult, error) {
	if len(ops) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(ops) > e.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit %d", ErrInvalidRequest, len(ops), e.cfg.MaxBatchSize)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.BatchTimeoutDuration())
	defer cancel()

	start := time.Now()
	outcomes, err := repository.WithTx(ctx, e.db, func(tx *sql.Tx) ([]Outcome, error) {
		results := make([]Outcome, 0, len(ops))
		for _, op := range ops {
			outcome, err := e.applyOne(ctx, tx, actorID, op)
			if err != nil {
				return nil, err
			}
			results = append(results, outcome)
		}
		return results, nil
	})
	obs.BatchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		obs.ClassificationBatches.WithLabelValues("rejected").Inc()
		return nil, mapStoreErr(err)
	}

	obs.ClassificationBatches.WithLabelValues("committed").Inc()
	e.logger.Info("classification batch committed",
		"actor_id", actorID,
		"operations", len(ops),
	)
	return &BatchResult{Results: outcomes}, nil
}

func (e *engine) MarkReviewed(ctx context.Context, actorID string, attachmentID int64, expectedRevision *int) (*Outcome, error) {
	result, err := e.ApplyBatch(ctx, actorID, []Operation{{
		AttachmentID:     attachmentID,
		ExpectedRevision: expectedRevision,
	}})
	if err != nil {
		return nil, err
	}
	return &result.Results[0], nil
}

// applyOne executes a single operation inside the batch transaction.
// Operations are applied in the caller-supplied order; any failure aborts
// the whole batch via the surrounding transaction.
func (e *engine) applyOne(ctx context.Context, tx *sql.Tx, actorID string, op Operation) (Outcome, error) {
	now := time.Now().UTC()

	// Lazily create the record. A foreign key failure here means the
	// attachment itself is unknown.
	_, err := tx.ExecContext(ctx,
		`INSERT INTO attachment_security (attachment_id)
		 VALUES ($1)
		 ON CONFLICT (attachment_id) DO NOTHING`,
		op.AttachmentID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Outcome{}, &OperationError{AttachmentID: op.AttachmentID, Err: ErrUnknownAttachment}
		}
		return Outcome{}, fmt.Errorf("ensure classification record %d: %w", op.AttachmentID, err)
	}

	var revision int
	row := tx.QueryRowContext(ctx,
		`SELECT revision_count FROM attachment_security
		 WHERE attachment_id = $1
		 FOR UPDATE`,
		op.AttachmentID,
	)
	if err := row.Scan(&revision); err != nil {
		return Outcome{}, fmt.Errorf("lock classification record %d: %w", op.AttachmentID, err)
	}

	if op.ExpectedRevision != nil && *op.ExpectedRevision != revision {
		return Outcome{}, &OperationError{AttachmentID: op.AttachmentID, Err: ErrRevisionConflict}
	}

	if err := e.validateReasons(ctx, tx, op); err != nil {
		return Outcome{}, err
	}

	current, err := appliedIDs(ctx, tx, op.AttachmentID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load applied reasons %d: %w", op.AttachmentID, err)
	}

	// Adds before removes; both are idempotent set operations, so only the
	// actual delta is executed and audited.
	added, err := e.applyAdds(ctx, tx, op.AttachmentID, op.Add, current)
	if err != nil {
		return Outcome{}, err
	}
	removed, err := e.applyRemoves(ctx, tx, op.AttachmentID, op.Remove, current)
	if err != nil {
		return Outcome{}, err
	}

	// Review is implicit in any operation, even a pure no-op: the reviewer
	// looked and committed. The revision always advances so concurrent
	// writers are detected.
	if err := repository.ExecExpectOne(ctx, tx,
		`UPDATE attachment_security
		 SET reviewed_at = $2, revision_count = revision_count + 1
		 WHERE attachment_id = $1`,
		op.AttachmentID, now,
	); err != nil {
		return Outcome{}, fmt.Errorf("stamp review %d: %w", op.AttachmentID, err)
	}

	if _, err := e.recorder.Append(ctx, tx, audit.Entry{
		AttachmentID: op.AttachmentID,
		ActorID:      actorID,
		Added:        added,
		Removed:      removed,
		CreatedAt:    now,
	}); err != nil {
		return Outcome{}, err
	}

	applied, err := e.loadApplied(ctx, tx, op.AttachmentID)
	if err != nil {
		return Outcome{}, fmt.Errorf("reload applied reasons %d: %w", op.AttachmentID, err)
	}

	rec := &Record{
		AttachmentID:  op.AttachmentID,
		ReviewedAt:    &now,
		Applied:       applied,
		RevisionCount: revision + 1,
	}

	return Outcome{
		AttachmentID:  op.AttachmentID,
		RevisionCount: rec.RevisionCount,
		State:         ComputeState(rec, now),
	}, nil
}

// validateReasons rejects the operation if any referenced reason is missing
// or retired. Fail closed: a typo in one id must not half-classify a batch.
func (e *engine) validateReasons(ctx context.Context, tx *sql.Tx, op Operation) error {
	seen := make(map[int64]struct{}, len(op.Add)+len(op.Remove))

	for _, id := range slices.Concat(op.Add, op.Remove) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		var n int
		row := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM security_reason
			 WHERE reason_id = $1 AND retired_at IS NULL`,
			id,
		)
		if err := row.Scan(&n); err != nil {
			return fmt.Errorf("validate reason %d: %w", id, err)
		}
		if n == 0 {
			return &OperationError{AttachmentID: op.AttachmentID, ReasonID: id, Err: ErrUnknownReason}
		}
	}
	return nil
}

func (e *engine) applyAdds(ctx context.Context, tx *sql.Tx, attachmentID int64, add []int64, current map[int64]struct{}) ([]int64, error) {
	added := make([]int64, 0, len(add))
	for _, id := range add {
		if _, ok := current[id]; ok {
			continue
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO attachment_security_reason (attachment_id, reason_id)
			 VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			attachmentID, id,
		)
		if err != nil {
			return nil, fmt.Errorf("apply reason %d to attachment %d: %w", id, attachmentID, err)
		}

		current[id] = struct{}{}
		added = append(added, id)
	}
	return added, nil
}

func (e *engine) applyRemoves(ctx context.Context, tx *sql.Tx, attachmentID int64, remove []int64, current map[int64]struct{}) ([]int64, error) {
	removed := make([]int64, 0, len(remove))
	for _, id := range remove {
		if _, ok := current[id]; !ok {
			continue
		}

		_, err := tx.ExecContext(ctx,
			`DELETE FROM attachment_security_reason
			 WHERE attachment_id = $1 AND reason_id = $2`,
			attachmentID, id,
		)
		if err != nil {
			return nil, fmt.Errorf("remove reason %d from attachment %d: %w", id, attachmentID, err)
		}

		delete(current, id)
		removed = append(removed, id)
	}
	return removed, nil
}

// loadRecord reads committed classification state outside any mutation
// transaction. Returns nil when the engine has never seen the attachment.
func (e *engine) loadRecord(ctx context.Context, q repository.Querier, attachmentID int64) (*Record, error) {
	rec := Record{AttachmentID: attachmentID}

	row := q.QueryRowContext(ctx,
		`SELECT reviewed_at, revision_count FROM attachment_security
		 WHERE attachment_id = $1`,
		attachmentID,
	)
	if err := row.Scan(&rec.ReviewedAt, &rec.RevisionCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load classification record %d: %w", attachmentID, err)
	}

	applied, err := e.loadAppliedFrom(ctx, q, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("load applied reasons %d: %w", attachmentID, err)
	}
	rec.Applied = applied

	return &rec, nil
}

func (e *engine) loadApplied(ctx context.Context, tx *sql.Tx, attachmentID int64) ([]AppliedReason, error) {
	return e.loadAppliedFrom(ctx, tx, attachmentID)
}

func (e *engine) loadAppliedFrom(ctx context.Context, q repository.Querier, attachmentID int64) ([]AppliedReason, error) {
	appliedQ := `
		SELECT j.reason_id, r.expiry_date
		FROM attachment_security_reason j
		JOIN security_reason r ON r.reason_id = j.reason_id
		WHERE j.attachment_id = $1
		ORDER BY j.reason_id`

	return repository.QueryMany(ctx, q, appliedQ, []any{attachmentID}, scanApplied)
}

func appliedIDs(ctx context.Context, tx *sql.Tx, attachmentID int64) (map[int64]struct{}, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT reason_id FROM attachment_security_reason
		 WHERE attachment_id = $1`,
		attachmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func scanApplied(s repository.Scanner) (AppliedReason, error) {
	var a AppliedReason
	err := s.Scan(&a.ReasonID, &a.ExpiryDate)
	return a, err
}

func statusOf(attachmentID int64, rec *Record, now time.Time) Status {
	status := Status{
		AttachmentID:     attachmentID,
		State:            ComputeState(rec, now),
		AppliedReasonIDs: []int64{},
	}

	if rec != nil {
		status.RevisionCount = rec.RevisionCount
		status.ReviewedAt = rec.ReviewedAt
		for _, applied := range rec.Applied {
			status.AppliedReasonIDs = append(status.AppliedReasonIDs, applied.ReasonID)
		}
	}

	return status
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyCode
}
