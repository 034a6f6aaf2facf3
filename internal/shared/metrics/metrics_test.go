package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters_Snapshot(t *testing.T) {
	t.Parallel()
	c := NewCounters()

	c.QuoteCreated()
	c.QuoteCreated()
	c.PolicyIssued()
	c.NotificationProcessed()
	c.NotificationFailed()

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap["quotes_created_total"])
	assert.Equal(t, int64(1), snap["policies_issued_total"])
	assert.Equal(t, int64(1), snap["notifications_processed_total"])
	assert.Equal(t, int64(1), snap["notifications_failed_total"])
}

func TestCounters_ConcurrentIncrements(t *testing.T) {
	t.Parallel()
	c := NewCounters()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.QuoteCreated()
			c.PolicyIssued()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap["quotes_created_total"])
	assert.Equal(t, int64(50), snap["policies_issued_total"])
}
