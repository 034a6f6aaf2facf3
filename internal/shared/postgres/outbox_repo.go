package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"policyflow/internal/ports"
)

// OutboxRepo implements the transactional outbox table using pgx and SQL.
type OutboxRepo struct{}

// NewOutboxRepo constructs a new OutboxRepo.
func NewOutboxRepo() ports.OutboxRepository {
	return &OutboxRepo{}
}

// Insert records a PENDING event. Callers invoke this inside the same
// unit-of-work as the state change the event announces.
func (r *OutboxRepo) Insert(ctx context.Context, ev *ports.OutboxEvent) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO outbox_events (id, event_type, payload, publish_status)
		VALUES ($1, $2, $3, 'PENDING')
		RETURNING publish_status, created_at`,
		ev.ID,
		ev.EventType,
		ev.Payload,
	).Scan(&ev.PublishStatus, &ev.CreatedAt)
}

// ListPending selects a bounded batch of unpublished events, oldest first.
// SKIP LOCKED lets concurrent publisher instances drain disjoint batches;
// double-publish of a row that was published but not yet marked stays a
// benign race under the at-least-once contract.
func (r *OutboxRepo) ListPending(ctx context.Context, limit int) ([]ports.OutboxEvent, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, event_type, payload, publish_status, created_at
		FROM outbox_events
		WHERE publish_status = 'PENDING'
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ports.OutboxEvent
	for rows.Next() {
		var ev ports.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Payload, &ev.PublishStatus, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkPublished flips a row to PUBLISHED after broker acknowledgment. The
// guard on publish_status keeps the transition one-way.
func (r *OutboxRepo) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE outbox_events
		SET publish_status = 'PUBLISHED', published_at = $2
		WHERE id = $1 AND publish_status = 'PENDING'
	`, id, at)
	return err
}
