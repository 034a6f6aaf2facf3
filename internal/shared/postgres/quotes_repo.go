package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"policyflow/internal/domain/pricing"
	"policyflow/internal/domain/quotes"
	"policyflow/internal/ports"
)

// QuotesRepo implements persistence for quotes using pgx and SQL.
type QuotesRepo struct{}

// NewQuotesRepo constructs a new QuotesRepo.
func NewQuotesRepo() ports.QuoteRepository {
	return &QuotesRepo{}
}

// Create inserts a quote in PENDING status.
// Money columns are NUMERIC in DB; we send integer cents and divide by 100 in SQL.
func (r *QuotesRepo) Create(ctx context.Context, q *quotes.Quote) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO quotes (id, customer_id, coverage_amount, term_years, monthly_premium, status)
		VALUES ($1, $2, $3::numeric/100, $4, $5::numeric/100, 'PENDING')
		RETURNING status, created_at`,
		q.ID,
		q.CustomerID,
		int64(q.CoverageAmount),
		q.TermYears,
		int64(q.MonthlyPremium),
	).Scan(&q.Status, &q.CreatedAt)
}

// GetByID retrieves a quote by id.
func (r *QuotesRepo) GetByID(ctx context.Context, id uuid.UUID) (*quotes.Quote, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var q quotes.Quote
	var coverageCents, premiumCents int64
	err = tx.QueryRow(ctx, `
		SELECT id, customer_id, (coverage_amount*100)::bigint, term_years, (monthly_premium*100)::bigint, status, created_at
		FROM quotes
		WHERE id = $1
	`, id).Scan(&q.ID, &q.CustomerID, &coverageCents, &q.TermYears, &premiumCents, &q.Status, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, quotes.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	q.CoverageAmount = pricing.Money(coverageCents)
	q.MonthlyPremium = pricing.Money(premiumCents)
	return &q, nil
}

// UpdateStatusCAS updates the quote status using a compare-and-swap approach.
// The guarded WHERE is what makes concurrent accepts race safely: only one
// caller observes applied=true.
func (r *QuotesRepo) UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected, next quotes.Status) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var applied bool
	err = tx.QueryRow(ctx, `
		UPDATE quotes
		SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING true
	`, next, id, expected).Scan(&applied)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ExpireOlderThan transitions stale PENDING quotes to EXPIRED in one statement.
func (r *QuotesRepo) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE quotes
		SET status = 'EXPIRED'
		WHERE status = 'PENDING' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
