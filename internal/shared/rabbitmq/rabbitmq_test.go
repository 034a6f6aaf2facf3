package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConfirm resolves a deferred publish confirm with a fixed outcome.
type fakeConfirm struct {
	acked bool
	err   error
}

func (f fakeConfirm) WaitContext(_ context.Context) (bool, error) {
	return f.acked, f.err
}

// blockedConfirm never resolves; only the context ends the wait.
type blockedConfirm struct{}

func (blockedConfirm) WaitContext(ctx context.Context) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestAwaitConfirm_AckSucceeds(t *testing.T) {
	t.Parallel()
	assert.NoError(t, awaitConfirm(context.Background(), fakeConfirm{acked: true}))
}

func TestAwaitConfirm_NackIsAnError(t *testing.T) {
	t.Parallel()

	// a nacked publish was not stored by the broker; reporting success here
	// would let the outbox row be marked PUBLISHED while the event is gone
	err := awaitConfirm(context.Background(), fakeConfirm{acked: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nacked")
}

func TestAwaitConfirm_TimeoutIsAnError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := awaitConfirm(ctx, blockedConfirm{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
