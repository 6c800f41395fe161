package notify

import (
	"context"

	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LogSink is the default notification sink: it renders each order lifecycle
// event as a structured log line. Real channels (mail, chat webhooks) plug
// into the bus the same way.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("notify")}
}

// EventTypes returns the order lifecycle events this sink renders
func (s *LogSink) EventTypes() []string {
	return []string{
		order.EventTypeOrderSubmitted,
		order.EventTypeOrderApproved,
		order.EventTypeOrderRejected,
		order.EventTypeOrderShipped,
		order.EventTypeOrderCancelled,
	}
}

// Handle renders one lifecycle event
func (s *LogSink) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.Uint64("order_id", event.AggregateID()),
	}

	switch e := event.(type) {
	case *order.OrderSubmittedEvent:
		fields = append(fields,
			zap.String("code", e.Code),
			zap.Uint64("creator_id", e.CreatorID),
		)
		s.logger.Info("order submitted for approval", fields...)
	case *order.OrderApprovedEvent:
		fields = append(fields,
			zap.String("code", e.Code),
			zap.Uint64("creator_id", e.CreatorID),
			zap.Uint64("approver_id", e.ApproverID),
		)
		s.logger.Info("order approved", fields...)
	case *order.OrderRejectedEvent:
		fields = append(fields,
			zap.String("code", e.Code),
			zap.Uint64("creator_id", e.CreatorID),
			zap.String("reason", e.Reason),
		)
		s.logger.Info("order rejected", fields...)
	case *order.OrderShippedEvent:
		fields = append(fields,
			zap.String("code", e.Code),
			zap.Bool("completed", e.Completed),
		)
		s.logger.Info("order shipped", fields...)
	case *order.OrderCancelledEvent:
		fields = append(fields,
			zap.String("code", e.Code),
			zap.String("reason", e.Reason),
			zap.Bool("released_reservations", e.WasReserved),
		)
		s.logger.Info("order cancelled", fields...)
	default:
		fields = append(fields, zap.String("event_type", event.EventType()))
		s.logger.Info("order event", fields...)
	}
	return nil
}

// Ensure LogSink implements EventHandler
var _ shared.EventHandler = (*LogSink)(nil)
