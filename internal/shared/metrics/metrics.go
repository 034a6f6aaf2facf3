package metrics

import "sync/atomic"

// Counters is an in-process implementation of ports.Metrics. The external
// metrics collaborator scrapes Snapshot; the core only increments.
type Counters struct {
	quotesCreated          atomic.Int64
	policiesIssued         atomic.Int64
	notificationsProcessed atomic.Int64
	notificationsFailed    atomic.Int64
}

// NewCounters creates a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) QuoteCreated()          { c.quotesCreated.Add(1) }
func (c *Counters) PolicyIssued()          { c.policiesIssued.Add(1) }
func (c *Counters) NotificationProcessed() { c.notificationsProcessed.Add(1) }
func (c *Counters) NotificationFailed()    { c.notificationsFailed.Add(1) }

// Snapshot returns the current counter values keyed by their exposition names.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"quotes_created_total":          c.quotesCreated.Load(),
		"policies_issued_total":         c.policiesIssued.Load(),
		"notifications_processed_total": c.notificationsProcessed.Load(),
		"notifications_failed_total":    c.notificationsFailed.Load(),
	}
}
