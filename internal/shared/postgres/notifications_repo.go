package postgres

import (
	"context"
	"time"

	"policyflow/internal/ports"
)

// NotificationsRepo owns the consumer-side dedup ledger and notification log.
type NotificationsRepo struct{}

// NewNotificationsRepo constructs a new NotificationsRepo.
func NewNotificationsRepo() ports.NotificationRepository {
	return &NotificationsRepo{}
}

// RecordProcessed claims the business key in the dedup ledger. ON CONFLICT
// DO NOTHING makes redeliveries of the same key report inserted=false, which
// is the whole idempotence guarantee under at-least-once delivery.
func (r *NotificationsRepo) RecordProcessed(ctx context.Context, key string, at time.Time) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO consumed_messages (business_key, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (business_key) DO NOTHING
	`, key, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// InsertLog appends the persisted record of a delivered notification.
func (r *NotificationsRepo) InsertLog(ctx context.Context, log *ports.NotificationLog) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO notifications_log (policy_id, customer_id, event_type, sent_at)
		VALUES ($1, $2, $3, $4)
	`, log.PolicyID, log.CustomerID, log.EventType, log.SentAt)
	return err
}
