package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"policyflow/internal/domain/customers"
	"policyflow/internal/domain/pricing"
	"policyflow/internal/ports"
)

// CustomersRepo resolves customer references to risk profiles.
type CustomersRepo struct{}

// NewCustomersRepo constructs a new CustomersRepo.
func NewCustomersRepo() ports.CustomerRepository {
	return &CustomersRepo{}
}

// GetRiskProfile loads the underwriting inputs for one customer.
func (r *CustomersRepo) GetRiskProfile(ctx context.Context, customerID uuid.UUID) (customers.RiskProfile, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return customers.RiskProfile{}, err
	}

	var p customers.RiskProfile
	var occupation string
	err = tx.QueryRow(ctx, `
		SELECT id, date_of_birth, smoker, occupation_risk
		FROM customers
		WHERE id = $1
	`, customerID).Scan(&p.CustomerID, &p.DateOfBirth, &p.Smoker, &occupation)
	if errors.Is(err, pgx.ErrNoRows) {
		return customers.RiskProfile{}, customers.ErrNotFound
	}
	if err != nil {
		return customers.RiskProfile{}, err
	}

	p.OccupationRisk = pricing.OccupationRisk(occupation)
	return p, nil
}
