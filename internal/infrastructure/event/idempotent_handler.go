package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotentHandler wraps a handler so each event ID is handled at most once
// within the TTL, even when the same event is delivered again.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	prefix  string
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler. Keys are namespaced by prefix so two
// wrapped handlers sharing a store do not suppress each other.
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, prefix string, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		ttl:     ttl,
		prefix:  prefix,
		logger:  logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event was already handled
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := "event:" + h.prefix + ":" + event.EventID().String()

	fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		// a store outage must not drop events
		h.logger.Warn("Idempotency check failed, handling event anyway",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	case !fresh:
		h.duplicate.Add(1)
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		// let a redelivery try again
		if relErr := h.store.Release(context.WithoutCancel(ctx), key); relErr != nil {
			h.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return err
	}

	h.processed.Add(1)
	return nil
}

// Stats returns the current counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: h.processed.Load(),
		EventsDuplicate: h.duplicate.Load(),
		EventsFailed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
