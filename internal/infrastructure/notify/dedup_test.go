package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/mfgops/backend/internal/infrastructure/cache"
	"github.com/mfgops/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingStore simulates an unavailable idempotency backend
type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("store unavailable")
}
func (failingStore) IsProcessed(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}
func (failingStore) Close() error { return nil }

func newDedupFixture(t *testing.T, enabled bool) (*DedupHandler, *testutil.MockEventHandler) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	sink := testutil.NewMockEventHandler("order.submitted")
	handler := NewDedupHandler(sink, store, shared.IdempotencyConfig{
		Enabled: enabled,
		TTL:     time.Minute,
	}, zap.NewNop())
	return handler, sink
}

func TestDedupHandler_Handle(t *testing.T) {
	t.Run("delivers a new event once", func(t *testing.T) {
		handler, sink := newDedupFixture(t, true)
		event := testutil.NewTestEvent("order.submitted", 17)

		require.NoError(t, handler.Handle(context.Background(), event))
		require.NoError(t, handler.Handle(context.Background(), event))

		assert.Equal(t, 1, sink.HandledCount())
		assert.Equal(t, int64(1), handler.Metrics().Delivered.Load())
		assert.Equal(t, int64(1), handler.Metrics().Duplicates.Load())
	})

	t.Run("re-minted event for the same aggregate state is suppressed", func(t *testing.T) {
		handler, sink := newDedupFixture(t, true)

		first := testutil.NewTestEventWithVersion("order.submitted", 17, 2)
		second := testutil.NewTestEventWithVersion("order.submitted", 17, 2)
		require.NotEqual(t, first.EventID(), second.EventID())
		require.Equal(t, first.DedupKey(), second.DedupKey())

		require.NoError(t, handler.Handle(context.Background(), first))
		require.NoError(t, handler.Handle(context.Background(), second))

		assert.Equal(t, 1, sink.HandledCount())
		assert.Equal(t, int64(1), handler.Metrics().Duplicates.Load())
	})

	t.Run("successive aggregate versions both deliver", func(t *testing.T) {
		handler, sink := newDedupFixture(t, true)

		require.NoError(t, handler.Handle(context.Background(), testutil.NewTestEventWithVersion("order.submitted", 17, 1)))
		require.NoError(t, handler.Handle(context.Background(), testutil.NewTestEventWithVersion("order.submitted", 17, 2)))

		assert.Equal(t, 2, sink.HandledCount())
	})

	t.Run("same state on different aggregates both deliver", func(t *testing.T) {
		handler, sink := newDedupFixture(t, true)

		require.NoError(t, handler.Handle(context.Background(), testutil.NewTestEvent("order.submitted", 17)))
		require.NoError(t, handler.Handle(context.Background(), testutil.NewTestEvent("order.submitted", 18)))

		assert.Equal(t, 2, sink.HandledCount())
	})

	t.Run("same id after TTL expiry delivers again", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })

		sink := testutil.NewMockEventHandler("order.submitted")
		handler := NewDedupHandler(sink, store, shared.IdempotencyConfig{
			Enabled: true,
			TTL:     10 * time.Millisecond,
		}, zap.NewNop())

		event := testutil.NewTestEventWithID(uuid.New(), "order.submitted", 17)
		require.NoError(t, handler.Handle(context.Background(), event))
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, handler.Handle(context.Background(), event))

		assert.Equal(t, 2, sink.HandledCount())
	})

	t.Run("disabled dedup passes everything through", func(t *testing.T) {
		handler, sink := newDedupFixture(t, false)
		event := testutil.NewTestEvent("order.submitted", 17)

		require.NoError(t, handler.Handle(context.Background(), event))
		require.NoError(t, handler.Handle(context.Background(), event))

		assert.Equal(t, 2, sink.HandledCount())
	})

	t.Run("store failure degrades to delivery", func(t *testing.T) {
		sink := testutil.NewMockEventHandler("order.submitted")
		handler := NewDedupHandler(sink, failingStore{}, shared.IdempotencyConfig{
			Enabled: true,
			TTL:     time.Minute,
		}, zap.NewNop())

		require.NoError(t, handler.Handle(context.Background(), testutil.NewTestEvent("order.submitted", 17)))
		assert.Equal(t, 1, sink.HandledCount())
	})

	t.Run("sink failure counts as failed", func(t *testing.T) {
		handler, sink := newDedupFixture(t, true)
		sink.SetError(errors.New("webhook 500"))

		err := handler.Handle(context.Background(), testutil.NewTestEvent("order.submitted", 17))
		require.Error(t, err)
		assert.Equal(t, int64(1), handler.Metrics().Failed.Load())
	})
}

func TestDedupHandler_EventTypes(t *testing.T) {
	handler, _ := newDedupFixture(t, true)
	assert.Equal(t, []string{"order.submitted"}, handler.EventTypes())
}
