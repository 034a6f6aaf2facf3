package policies

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no policy exists for the given id.
var ErrNotFound = errors.New("policy not found")

// Status is the lifecycle state of an issued policy.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusLapsed    Status = "LAPSED"
	StatusCancelled Status = "CANCELLED"
)

// Policy is the binding contract created when a quote is accepted.
// A policy exists iff its source quote is ACCEPTED; at most one per quote,
// enforced by a uniqueness constraint on quote_id.
type Policy struct {
	ID         uuid.UUID
	Number     string // follows the format: POL_YYYYMMDD_XXXXXXXX
	CustomerID uuid.UUID
	QuoteID    uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	Status     Status
	CreatedAt  time.Time
}

// NewNumber builds a human-readable policy number from the issuance date and
// the policy id. Uniqueness is ultimately guaranteed by the DB constraint on
// policy number, not by this scheme alone.
func NewNumber(issuedAt time.Time, id uuid.UUID) string {
	return fmt.Sprintf("POL_%s_%.8s", issuedAt.UTC().Format("20060102"), id.String())
}
