package contracts

import (
	"time"

	"github.com/google/uuid"
)

// EventPolicyIssued is emitted once per successful issuance.
const EventPolicyIssued = "POLICY_ISSUED"

// Envelope is the minimal shape every event on the policy_events exchange
// shares. Consumers decode it first to dispatch by type.
type Envelope struct {
	Type string `json:"type"`
}

// PolicyIssuedMessage is the wire format of a POLICY_ISSUED event. The same
// bytes are stored as the outbox payload and published to the broker.
type PolicyIssuedMessage struct {
	Type       string    `json:"type"`
	PolicyID   uuid.UUID `json:"policyId"`
	CustomerID uuid.UUID `json:"customerId"`
	IssuedAt   time.Time `json:"issuedAt"` // RFC 3339
}

// DedupKey derives the consumer-side idempotency key for this message.
// Redeliveries of the same issuance always map to the same key.
func (m PolicyIssuedMessage) DedupKey() string {
	return m.Type + ":" + m.PolicyID.String()
}
