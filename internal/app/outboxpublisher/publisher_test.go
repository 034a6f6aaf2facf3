package outboxpublisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyflow/internal/ports"
	"policyflow/internal/shared/logger"
	"policyflow/internal/shared/rabbitmq"
)

// outboxStore is an in-memory outbox table with commit-or-discard semantics.
type outboxStore struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (s *outboxStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := append([]ports.OutboxEvent(nil), s.events...)
	if err := fn(ctx); err != nil {
		s.events = snapshot
		return err
	}
	return nil
}

func (s *outboxStore) Insert(_ context.Context, ev *ports.OutboxEvent) error {
	e := *ev
	e.PublishStatus = ports.OutboxPending
	s.events = append(s.events, e)
	return nil
}

func (s *outboxStore) ListPending(_ context.Context, limit int) ([]ports.OutboxEvent, error) {
	var out []ports.OutboxEvent
	for _, ev := range s.events {
		if ev.PublishStatus == ports.OutboxPending {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *outboxStore) MarkPublished(_ context.Context, id uuid.UUID, at time.Time) error {
	for i, ev := range s.events {
		if ev.ID == id && ev.PublishStatus == ports.OutboxPending {
			s.events[i].PublishStatus = ports.OutboxPublished
			s.events[i].PublishedAt = &at
		}
	}
	return nil
}

func (s *outboxStore) pendingCount() int {
	n := 0
	for _, ev := range s.events {
		if ev.PublishStatus == ports.OutboxPending {
			n++
		}
	}
	return n
}

type recordedPublish struct {
	exchange   string
	routingKey string
	body       string
}

// fakeQueue records publishes and can refuse selected payloads.
type fakeQueue struct {
	published []recordedPublish
	refuse    map[string]bool // keyed by body
}

func (q *fakeQueue) Publish(exchange, routingKey string, body []byte) error {
	if q.refuse[string(body)] {
		return errors.New("channel closed")
	}
	q.published = append(q.published, recordedPublish{exchange, routingKey, string(body)})
	return nil
}

func seedEvent(store *outboxStore, payload string) uuid.UUID {
	id := uuid.New()
	store.events = append(store.events, ports.OutboxEvent{
		ID:            id,
		EventType:     "POLICY_ISSUED",
		Payload:       []byte(payload),
		PublishStatus: ports.OutboxPending,
		CreatedAt:     time.Now().UTC(),
	})
	return id
}

func TestDrain_PublishesAndMarksBatch(t *testing.T) {
	t.Parallel()
	store := &outboxStore{}
	queue := &fakeQueue{}
	seedEvent(store, `{"type":"POLICY_ISSUED","n":1}`)
	seedEvent(store, `{"type":"POLICY_ISSUED","n":2}`)

	p := New(store, store, queue, logger.NewLogger("outbox-publisher-test"), 10)

	published, err := p.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, published)

	require.Len(t, queue.published, 2)
	assert.Equal(t, rabbitmq.ExchangeEvents, queue.published[0].exchange)
	assert.Equal(t, "policy.issued", queue.published[0].routingKey)
	assert.Zero(t, store.pendingCount())
	for _, ev := range store.events {
		assert.NotNil(t, ev.PublishedAt)
	}
}

func TestDrain_EventStaysPendingUntilDrained(t *testing.T) {
	t.Parallel()
	store := &outboxStore{}
	queue := &fakeQueue{}
	seedEvent(store, `{"type":"POLICY_ISSUED"}`)

	// the row is durable and PENDING before any drain runs; a crash between
	// commit and publish loses nothing
	assert.Equal(t, 1, store.pendingCount())
	assert.Empty(t, queue.published)

	p := New(store, store, queue, logger.NewLogger("outbox-publisher-test"), 10)
	_, err := p.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, store.pendingCount())
}

func TestDrain_BrokerRefusalLeavesRowPending(t *testing.T) {
	t.Parallel()
	store := &outboxStore{}
	poison := `{"type":"POLICY_ISSUED","n":"refused"}`
	queue := &fakeQueue{refuse: map[string]bool{poison: true}}
	refusedID := seedEvent(store, poison)
	seedEvent(store, `{"type":"POLICY_ISSUED","n":"ok"}`)

	p := New(store, store, queue, logger.NewLogger("outbox-publisher-test"), 10)

	published, err := p.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, published, "refusal must not block the rest of the batch")
	assert.Equal(t, 1, store.pendingCount())

	// next cycle picks the refused row up again
	queue.refuse = nil
	published, err = p.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Zero(t, store.pendingCount())

	for _, ev := range store.events {
		if ev.ID == refusedID {
			assert.Equal(t, ports.OutboxPublished, ev.PublishStatus)
		}
	}
}

func TestDrain_RespectsBatchSize(t *testing.T) {
	t.Parallel()
	store := &outboxStore{}
	queue := &fakeQueue{}
	for i := 0; i < 5; i++ {
		seedEvent(store, `{"type":"POLICY_ISSUED"}`)
	}

	p := New(store, store, queue, logger.NewLogger("outbox-publisher-test"), 2)

	published, err := p.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, 3, store.pendingCount())
}

func TestRoutingKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "policy.issued", routingKey("POLICY_ISSUED"))
	assert.Equal(t, "quote.expired", routingKey("QUOTE_EXPIRED"))
}
