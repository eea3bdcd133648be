package event

import (
	"context"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the log as an audit record.
// Together with the movement journal it is the trail of who changed what.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit handler writing to a named child of base
func NewAuditLogHandler(base *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: base.Named("audit")}
}

// EventTypes returns nil so the handler receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event envelope and its payload
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Reflect("payload", event),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID := logger.GetUserID(ctx); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}

	h.logger.Info("Domain event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
