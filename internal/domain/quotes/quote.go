package quotes

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"policyflow/internal/domain/pricing"
)

var (
	// ErrNotFound is returned when no quote exists for the given id.
	ErrNotFound = errors.New("quote not found")
	// ErrNotPending marks an attempt to act on a quote that already reached a
	// terminal status. Maps to a conflict outcome, never a server error.
	ErrNotPending = errors.New("quote is not pending")
)

// Quote is a priced, not-yet-binding offer tied to a customer and coverage request.
// MonthlyPremium is computed at creation and immutable afterwards.
type Quote struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	CoverageAmount pricing.Money
	TermYears      int
	MonthlyPremium pricing.Money
	Status         Status
	CreatedAt      time.Time
}
