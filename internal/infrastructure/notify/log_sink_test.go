package notify

import (
	"context"
	"testing"
	"time"

	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/mfgops/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogSink_EventTypes(t *testing.T) {
	sink := NewLogSink(zap.NewNop())
	assert.ElementsMatch(t, []string{
		order.EventTypeOrderSubmitted,
		order.EventTypeOrderApproved,
		order.EventTypeOrderRejected,
		order.EventTypeOrderShipped,
		order.EventTypeOrderCancelled,
	}, sink.EventTypes())
}

func TestLogSink_Handle(t *testing.T) {
	sink := NewLogSink(zap.NewNop())

	o, err := order.NewOrder(order.OrderTypeSales, 7, 11, time.Now(), nil, 0)
	require.NoError(t, err)
	o.ID = 17
	o.Code = "SO-2026-001"

	events := []struct {
		name  string
		event shared.DomainEvent
	}{
		{"submitted", order.NewOrderSubmittedEvent(o)},
		{"approved", order.NewOrderApprovedEvent(o, 22)},
		{"rejected", order.NewOrderRejectedEvent(o, 22, "price mismatch")},
		{"shipped", order.NewOrderShippedEvent(o, 11, true)},
		{"cancelled", order.NewOrderCancelledEvent(o, 11, "withdrawn", true)},
		{"unknown type", testutil.NewTestEvent("order.archived", 17)},
	}

	for _, tt := range events {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, sink.Handle(context.Background(), tt.event))
		})
	}
}
