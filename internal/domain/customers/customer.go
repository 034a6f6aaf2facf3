package customers

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"policyflow/internal/domain/pricing"
)

// ErrNotFound is returned when no customer exists for the given reference.
var ErrNotFound = errors.New("customer not found")

// RiskProfile is the underwriting view of a customer consumed by the quoting flow.
type RiskProfile struct {
	CustomerID     uuid.UUID
	DateOfBirth    time.Time
	Smoker         bool
	OccupationRisk pricing.OccupationRisk
}

// AgeAt returns the customer's age in full years at the given instant.
func (p RiskProfile) AgeAt(at time.Time) int {
	age := at.Year() - p.DateOfBirth.Year()
	// birthday not reached yet this year
	anniversary := p.DateOfBirth.AddDate(age, 0, 0)
	if at.Before(anniversary) {
		age--
	}
	return age
}
