package inventory

import (
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeStockLevel is the aggregate type for stock level events
const AggregateTypeStockLevel = "StockLevel"

// EventTypeStockMoved is raised whenever a movement changes a stock level
const EventTypeStockMoved = "StockMoved"

// StockMovedEvent is raised when a movement has been applied to a stock level
type StockMovedEvent struct {
	shared.BaseDomainEvent
	ArticleID    uuid.UUID    `json:"article_id"`
	MovementID   uuid.UUID    `json:"movement_id"`
	MovementType MovementType `json:"movement_type"`
	Quantity     int64        `json:"quantity"`
	StockBefore  int64        `json:"stock_before"`
	StockAfter   int64        `json:"stock_after"`
}

// NewStockMovedEvent creates a new StockMovedEvent
func NewStockMovedEvent(level *StockLevel, movement *StockMovement) *StockMovedEvent {
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoved, AggregateTypeStockLevel, level.ID, level.TenantID),
		ArticleID:       level.ArticleID,
		MovementID:      movement.ID,
		MovementType:    movement.Type,
		Quantity:        movement.Quantity,
		StockBefore:     movement.StockBefore,
		StockAfter:      movement.StockAfter,
	}
}
