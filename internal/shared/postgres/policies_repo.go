package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"policyflow/internal/domain/policies"
	"policyflow/internal/ports"
)

// PoliciesRepo implements persistence for issued policies using pgx and SQL.
type PoliciesRepo struct{}

// NewPoliciesRepo constructs a new PoliciesRepo.
func NewPoliciesRepo() ports.PolicyRepository {
	return &PoliciesRepo{}
}

// Create inserts an ACTIVE policy. The table carries uniqueness constraints on
// number and quote_id; a violation here means a concurrent issuance slipped
// past the CAS guard and must abort the transaction.
func (r *PoliciesRepo) Create(ctx context.Context, p *policies.Policy) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO policies (id, number, customer_id, quote_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'ACTIVE')
		RETURNING status, created_at`,
		p.ID,
		p.Number,
		p.CustomerID,
		p.QuoteID,
		p.StartDate,
		p.EndDate,
	).Scan(&p.Status, &p.CreatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("policy uniqueness violated for quote %s: %w", p.QuoteID, err)
	}
	return err
}

// GetByID retrieves a policy by id.
func (r *PoliciesRepo) GetByID(ctx context.Context, id uuid.UUID) (*policies.Policy, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var p policies.Policy
	err = tx.QueryRow(ctx, `
		SELECT id, number, customer_id, quote_id, start_date, end_date, status, created_at
		FROM policies
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Number, &p.CustomerID, &p.QuoteID, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, policies.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
