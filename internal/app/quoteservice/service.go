package quoteservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"policyflow/internal/domain/policies"
	"policyflow/internal/domain/pricing"
	"policyflow/internal/domain/quotes"
	"policyflow/internal/ports"
	"policyflow/internal/shared/contracts"
	"policyflow/internal/shared/logger"
)

// Service implements ports.QuoteService.
type Service struct {
	uow       ports.UnitOfWork
	quotes    ports.QuoteRepository
	policies  ports.PolicyRepository
	outbox    ports.OutboxRepository
	customers ports.CustomerRepository
	metrics   ports.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// Ensure Service implements the interface at compile time.
var _ ports.QuoteService = (*Service)(nil)

// New creates a QuoteService with the required dependencies.
func New(
	uow ports.UnitOfWork,
	quotesRepo ports.QuoteRepository,
	policiesRepo ports.PolicyRepository,
	outboxRepo ports.OutboxRepository,
	customersRepo ports.CustomerRepository,
	metrics ports.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		uow:       uow,
		quotes:    quotesRepo,
		policies:  policiesRepo,
		outbox:    outboxRepo,
		customers: customersRepo,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Tests use it to pin issuance dates.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// CreateQuote validates input, prices the risk, and persists a PENDING quote.
func (service *Service) CreateQuote(ctx context.Context, cmd ports.CreateQuoteCommand) (*quotes.Quote, error) {
	if cmd.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer_id is required", pricing.ErrInvalidInput)
	}
	if cmd.CoverageAmount <= 0 {
		return nil, fmt.Errorf("%w: coverage_amount must be positive", pricing.ErrInvalidInput)
	}
	if cmd.TermYears <= 0 {
		return nil, fmt.Errorf("%w: term_years must be positive", pricing.ErrInvalidInput)
	}

	var quote *quotes.Quote
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		profile, err := service.customers.GetRiskProfile(txCtx, cmd.CustomerID)
		if err != nil {
			return err
		}

		now := service.now()
		premium, err := pricing.ComputeMonthlyPremium(pricing.RiskInput{
			Age:        profile.AgeAt(now),
			Smoker:     profile.Smoker,
			Occupation: profile.OccupationRisk,
		}, cmd.CoverageAmount, cmd.TermYears)
		if err != nil {
			return err
		}

		q := &quotes.Quote{
			ID:             uuid.New(),
			CustomerID:     cmd.CustomerID,
			CoverageAmount: cmd.CoverageAmount,
			TermYears:      cmd.TermYears,
			MonthlyPremium: premium,
			Status:         quotes.StatusPending,
			CreatedAt:      now,
		}
		if err := service.quotes.Create(txCtx, q); err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to create quote", err)
			return err
		}

		quote = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.metrics.QuoteCreated()
	service.logger.Debug(ctx, "quote_created", "Quote persisted in PENDING", map[string]any{
		"quote_id":        quote.ID.String(),
		"monthly_premium": quote.MonthlyPremium.ToFloat2(),
	})
	return quote, nil
}

// AcceptQuote is the critical transactional operation: it flips the quote to
// ACCEPTED, creates the policy, and records the POLICY_ISSUED outbox event in
// one atomic scope. On any failure everything rolls back and the quote stays
// PENDING, so a caller retry is safe.
func (service *Service) AcceptQuote(ctx context.Context, quoteID uuid.UUID) (*policies.Policy, error) {
	var policy *policies.Policy
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		q, err := service.quotes.GetByID(txCtx, quoteID)
		if err != nil {
			return err
		}
		if q.Status != quotes.StatusPending {
			return fmt.Errorf("quote %s is %s: %w", quoteID, q.Status, quotes.ErrNotPending)
		}

		// guarded update: under concurrent accepts exactly one caller wins
		applied, err := service.quotes.UpdateStatusCAS(txCtx, quoteID, quotes.StatusPending, quotes.StatusAccepted)
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("quote %s lost the accept race: %w", quoteID, quotes.ErrNotPending)
		}

		now := service.now()
		p := &policies.Policy{
			ID:         uuid.New(),
			CustomerID: q.CustomerID,
			QuoteID:    q.ID,
			StartDate:  now,
			EndDate:    now.AddDate(q.TermYears, 0, 0),
			Status:     policies.StatusActive,
			CreatedAt:  now,
		}
		p.Number = policies.NewNumber(now, p.ID)
		if err := service.policies.Create(txCtx, p); err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to create policy", err)
			return err
		}

		payload, err := json.Marshal(contracts.PolicyIssuedMessage{
			Type:       contracts.EventPolicyIssued,
			PolicyID:   p.ID,
			CustomerID: p.CustomerID,
			IssuedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("marshal issued event: %w", err)
		}
		if err := service.outbox.Insert(txCtx, &ports.OutboxEvent{
			ID:        uuid.New(),
			EventType: contracts.EventPolicyIssued,
			Payload:   payload,
			CreatedAt: now,
		}); err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to record outbox event", err)
			return err
		}

		policy = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.metrics.PolicyIssued()
	service.logger.Info(ctx, "policy_issued", "Quote accepted and policy issued", map[string]any{
		"quote_id":      quoteID.String(),
		"policy_id":     policy.ID.String(),
		"policy_number": policy.Number,
	})
	return policy, nil
}

// GetQuote loads a quote by id.
func (service *Service) GetQuote(ctx context.Context, quoteID uuid.UUID) (*quotes.Quote, error) {
	var q *quotes.Quote
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		q, err = service.quotes.GetByID(txCtx, quoteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetPolicy loads a policy by id.
func (service *Service) GetPolicy(ctx context.Context, policyID uuid.UUID) (*policies.Policy, error) {
	var p *policies.Policy
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		p, err = service.policies.GetByID(txCtx, policyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ExpireStaleQuotes transitions PENDING quotes older than the given age to
// EXPIRED. Terminal quotes are untouched; repeated sweeps are no-ops.
func (service *Service) ExpireStaleQuotes(ctx context.Context, olderThan time.Duration) (int64, error) {
	var expired int64
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		expired, err = service.quotes.ExpireOlderThan(txCtx, service.now().Add(-olderThan))
		return err
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		service.logger.Info(ctx, "quotes_expired", "Stale quotes expired", map[string]any{"count": expired})
	}
	return expired, nil
}
