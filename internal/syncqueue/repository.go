// Package syncqueue provides the durable retry path for CRM sync operations.
// Failed syncs land in an outbox table, a dispatcher feeds them into asynq,
// and a worker replays them against the sync service with backoff.
package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusEnqueued   Status = "enqueued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

var errRepoNotConfigured = errors.New("sync outbox repository not configured")

// Record is one deferred sync operation. Payload holds the originating event
// serialized as JSON; Operation selects how the worker replays it.
type Record struct {
	ID        uuid.UUID
	Operation string
	Payload   json.RawMessage
	RunAt     time.Time
	Status    Status
	Attempts  int
	LastError *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, operation string, payload []byte, runAt time.Time) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, errRepoNotConfigured
	}
	if runAt.IsZero() {
		runAt = time.Now().UTC()
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO crm_sync_outbox (operation, payload, run_at, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING id`,
		operation, payload, runAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	if r == nil || r.pool == nil {
		return Record{}, errRepoNotConfigured
	}

	var rec Record
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, operation, payload, run_at, status, attempts, last_error
		 FROM crm_sync_outbox
		 WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Operation, &rec.Payload, &rec.RunAt, &status, &rec.Attempts, &rec.LastError)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, pgx.ErrNoRows
	}
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	return rec, nil
}

// ClaimPending atomically flips due pending records to enqueued and returns
// them. Concurrent dispatchers skip each other's rows.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotConfigured
	}
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM crm_sync_outbox
		WHERE status = 'pending' AND run_at <= now()
		ORDER BY run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE crm_sync_outbox o
	SET status = 'enqueued', updated_at = now()
	FROM cte
	WHERE o.id = cte.id
	RETURNING o.id, o.operation, o.payload, o.run_at, o.status, o.attempts, o.last_error`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Payload, &rec.RunAt, &status, &rec.Attempts, &rec.LastError); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// MakeAllDue pulls every pending record's due time back to now, so a drain
// picks up entries scheduled for the future.
func (r *Repository) MakeAllDue(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return errRepoNotConfigured
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE crm_sync_outbox
		 SET run_at = now(), updated_at = now()
		 WHERE status = 'pending'`,
	)
	return err
}

func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errRepoNotConfigured
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE crm_sync_outbox
		 SET status = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errRepoNotConfigured
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE crm_sync_outbox
		 SET status = 'succeeded', last_error = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

// Reschedule puts a record back in the pending state with a new due time.
func (r *Repository) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error {
	if r == nil || r.pool == nil {
		return errRepoNotConfigured
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE crm_sync_outbox
		 SET status = 'pending', run_at = $2, last_error = $3, updated_at = now()
		 WHERE id = $1`,
		id, runAt, lastError,
	)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	if r == nil || r.pool == nil {
		return errRepoNotConfigured
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE crm_sync_outbox
		 SET status = 'failed', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}
