package notify

import (
	"context"
	"sync/atomic"

	"github.com/mfgops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DedupMetrics tracks delivery deduplication statistics
type DedupMetrics struct {
	Delivered  atomic.Int64
	Duplicates atomic.Int64
	Failed     atomic.Int64
}

// DedupHandler wraps a sink with delivery deduplication. Each dedup key,
// derived from the aggregate and its version rather than the random event
// id, is delivered at most once within the configured TTL. A retried
// operation that mints a fresh event for the same aggregate state is thereby
// suppressed.
type DedupHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	metrics *DedupMetrics
}

// NewDedupHandler creates a new deduplicating sink wrapper
func NewDedupHandler(handler shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *DedupHandler {
	return &DedupHandler{
		handler: handler,
		store:   store,
		config:  config,
		logger:  logger,
		metrics: &DedupMetrics{},
	}
}

// EventTypes returns the event types of the wrapped sink
func (h *DedupHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle delivers the event unless it was already delivered within the TTL.
// A store failure degrades to at-least-once delivery rather than dropping
// the notification.
func (h *DedupHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := event.DedupKey()
	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	if err != nil {
		h.logger.Warn("dedup check failed, delivering anyway",
			zap.String("dedup_key", key),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	} else if !isNew {
		h.metrics.Duplicates.Add(1)
		h.logger.Debug("duplicate notification suppressed",
			zap.String("dedup_key", key),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.metrics.Failed.Add(1)
		return err
	}
	h.metrics.Delivered.Add(1)
	return nil
}

// Metrics returns the delivery counters for this wrapper
func (h *DedupHandler) Metrics() *DedupMetrics {
	return h.metrics
}

// Ensure DedupHandler implements EventHandler
var _ shared.EventHandler = (*DedupHandler)(nil)
