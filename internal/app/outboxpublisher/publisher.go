package outboxpublisher

import (
	"context"
	"strings"
	"time"

	"policyflow/internal/ports"
	"policyflow/internal/shared/logger"
	"policyflow/internal/shared/rabbitmq"
)

// Publisher drains PENDING outbox rows to the broker. Each Drain call is a
// single bounded cycle; the periodic loop lives in the cmd wiring so tests
// can single-step one iteration.
type Publisher struct {
	uow       ports.UnitOfWork
	outbox    ports.OutboxRepository
	queue     ports.Publisher
	logger    *logger.Logger
	batchSize int
	now       func() time.Time
}

// New creates a Publisher with the required dependencies.
func New(uow ports.UnitOfWork, outbox ports.OutboxRepository, queue ports.Publisher, logger *logger.Logger, batchSize int) *Publisher {
	return &Publisher{
		uow:       uow,
		outbox:    outbox,
		queue:     queue,
		logger:    logger,
		batchSize: batchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Drain selects one batch of pending events, publishes each, and marks the
// acknowledged ones PUBLISHED. Publish attempts are independent per row: a
// broker refusal for one event leaves it PENDING for the next cycle without
// blocking the rest of the batch. Returns how many events were published.
func (p *Publisher) Drain(ctx context.Context) (int, error) {
	published := 0
	err := p.uow.WithinTx(ctx, func(txCtx context.Context) error {
		events, err := p.outbox.ListPending(txCtx, p.batchSize)
		if err != nil {
			return err
		}

		for _, ev := range events {
			if err := p.queue.Publish(rabbitmq.ExchangeEvents, routingKey(ev.EventType), ev.Payload); err != nil {
				// stays PENDING, retried next cycle
				p.logger.Warn(ctx, "outbox_publish_failed", "Broker rejected event, will retry", map[string]any{
					"event_id":   ev.ID.String(),
					"event_type": ev.EventType,
					"error":      err.Error(),
				})
				continue
			}

			if err := p.outbox.MarkPublished(txCtx, ev.ID, p.now()); err != nil {
				// the event was sent; losing the mark means one extra
				// delivery later, which consumers dedup
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		p.logger.Debug(ctx, "outbox_drained", "Outbox batch published", map[string]any{"published": published})
	}
	return published, nil
}

// routingKey maps an event type to its topic routing key:
// POLICY_ISSUED -> policy.issued.
func routingKey(eventType string) string {
	return strings.ReplaceAll(strings.ToLower(eventType), "_", ".")
}
