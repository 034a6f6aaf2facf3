package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"policyflow/internal/domain/customers"
	"policyflow/internal/domain/policies"
	"policyflow/internal/domain/quotes"
)

// UnitOfWork wraps a function in a DB transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// QuoteRepository persists quotes. Status changes go through the guarded CAS
// update so concurrent accepts can never both win.
type QuoteRepository interface {
	Create(ctx context.Context, q *quotes.Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*quotes.Quote, error)
	// UpdateStatusCAS applies expected->next only if the row still holds
	// expected. Returns applied=false when the row changed underneath.
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected, next quotes.Status) (applied bool, err error)
	// ExpireOlderThan flips PENDING quotes created before cutoff to EXPIRED
	// and reports how many rows changed.
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PolicyRepository persists issued policies.
type PolicyRepository interface {
	Create(ctx context.Context, p *policies.Policy) error
	GetByID(ctx context.Context, id uuid.UUID) (*policies.Policy, error)
}

// Outbox publish states. A row never moves back from PUBLISHED.
const (
	OutboxPending   = "PENDING"
	OutboxPublished = "PUBLISHED"
)

// OutboxEvent is a durably recorded to-be-published event. It is inserted in
// the same transaction as the state change it announces.
type OutboxEvent struct {
	ID            uuid.UUID
	EventType     string
	Payload       []byte // JSON wire bytes, published verbatim
	PublishStatus string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// OutboxRepository owns the outbox table. ListPending must lock the returned
// rows for the duration of the transaction so concurrent drains skip them.
type OutboxRepository interface {
	Insert(ctx context.Context, ev *OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CustomerRepository resolves a customer reference to its risk profile.
type CustomerRepository interface {
	GetRiskProfile(ctx context.Context, customerID uuid.UUID) (customers.RiskProfile, error)
}

// NotificationLog is the persisted record of one delivered notification.
type NotificationLog struct {
	PolicyID   uuid.UUID
	CustomerID uuid.UUID
	EventType  string
	SentAt     time.Time
}

// NotificationRepository owns the consumer-side dedup ledger and the
// notification log.
type NotificationRepository interface {
	// RecordProcessed inserts the dedup ledger entry for key. Returns
	// inserted=false when the key was already processed (redelivery).
	RecordProcessed(ctx context.Context, key string, at time.Time) (inserted bool, err error)
	InsertLog(ctx context.Context, log *NotificationLog) error
}
