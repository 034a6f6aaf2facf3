package notificationconsumer

import (
	"context"
	"fmt"
	"time"

	"policyflow/internal/ports"
	"policyflow/internal/shared/contracts"
	"policyflow/internal/shared/logger"
)

// Processor applies one POLICY_ISSUED event idempotently: the dedup ledger
// entry and the notification log row commit in a single transaction, so the
// side effect happens at most once per business key no matter how many times
// the broker redelivers the message.
type Processor struct {
	uow     ports.UnitOfWork
	repo    ports.NotificationRepository
	metrics ports.Metrics
	logger  *logger.Logger
	sender  Sender
	now     func() time.Time
}

// Sender emits the customer-facing notification. Production wiring uses
// StdoutSender; tests plug a recorder.
type Sender func(msg contracts.PolicyIssuedMessage)

// StdoutSender prints a human-readable notification line.
func StdoutSender(msg contracts.PolicyIssuedMessage) {
	fmt.Printf("Notification: policy %s issued for customer %s at %s\n",
		msg.PolicyID, msg.CustomerID, msg.IssuedAt.UTC().Format(time.RFC3339))
}

// NewProcessor creates a Processor with the required dependencies.
func NewProcessor(uow ports.UnitOfWork, repo ports.NotificationRepository, metrics ports.Metrics, logger *logger.Logger, sender Sender) *Processor {
	if sender == nil {
		sender = StdoutSender
	}
	return &Processor{
		uow:     uow,
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		sender:  sender,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ProcessPolicyIssued handles one delivery of a POLICY_ISSUED message.
// Store failures come back wrapped as Retryable so the consume loop requeues
// instead of dead-lettering.
func (p *Processor) ProcessPolicyIssued(ctx context.Context, msg contracts.PolicyIssuedMessage) error {
	duplicate := false
	err := p.uow.WithinTx(ctx, func(txCtx context.Context) error {
		inserted, err := p.repo.RecordProcessed(txCtx, msg.DedupKey(), p.now())
		if err != nil {
			return err
		}
		if !inserted {
			duplicate = true
			return nil
		}

		return p.repo.InsertLog(txCtx, &ports.NotificationLog{
			PolicyID:   msg.PolicyID,
			CustomerID: msg.CustomerID,
			EventType:  msg.Type,
			SentAt:     p.now(),
		})
	})
	if err != nil {
		p.metrics.NotificationFailed()
		return Retryable(err)
	}

	if duplicate {
		// redelivery of an already-processed key, ack without a second send
		p.logger.Debug(ctx, "notification_duplicate", "Skipping already-processed message", map[string]any{
			"business_key": msg.DedupKey(),
		})
		return nil
	}

	p.sender(msg)
	p.metrics.NotificationProcessed()
	p.logger.Debug(ctx, "notification_sent", "Policy issuance notification delivered", map[string]any{
		"policy_id":   msg.PolicyID.String(),
		"customer_id": msg.CustomerID.String(),
	})
	return nil
}
