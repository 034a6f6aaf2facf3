package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"policyflow/internal/domain/policies"
	"policyflow/internal/domain/pricing"
	"policyflow/internal/domain/quotes"
)

// QuoteService is the issuance core: quote creation, the transactional
// accept, reads, and the expiry sweep. Business outcomes (not-found,
// conflict, validation) surface as typed errors, never panics.
type QuoteService interface {
	CreateQuote(ctx context.Context, cmd CreateQuoteCommand) (*quotes.Quote, error)
	AcceptQuote(ctx context.Context, quoteID uuid.UUID) (*policies.Policy, error)
	GetQuote(ctx context.Context, quoteID uuid.UUID) (*quotes.Quote, error)
	GetPolicy(ctx context.Context, policyID uuid.UUID) (*policies.Policy, error)
	ExpireStaleQuotes(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CreateQuoteCommand carries decoded input for CreateQuote. The service owns
// the business validation.
type CreateQuoteCommand struct {
	CustomerID     uuid.UUID
	CoverageAmount pricing.Money
	TermYears      int
}

// Publisher sends one message to the broker and returns only after the
// broker acknowledged it.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Metrics is the injected counter sink. The core increments; exposition is
// owned elsewhere.
type Metrics interface {
	QuoteCreated()
	PolicyIssued()
	NotificationProcessed()
	NotificationFailed()
}
