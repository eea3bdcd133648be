package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// StockLevel is the on-hand quantity of one article.
// CurrentStock never goes negative; only Apply changes it.
type StockLevel struct {
	shared.TenantAggregateRoot
	ArticleID     uuid.UUID
	CurrentStock  int64
	ReservedStock int64
}

// NewStockLevel creates an empty stock level for an article
func NewStockLevel(tenantID, articleID uuid.UUID) (*StockLevel, error) {
	if articleID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Article ID cannot be empty")
	}
	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ArticleID:           articleID,
	}, nil
}

// Apply applies a movement and returns the journal entry for it.
// Checkin and adjustment add the quantity and fail with INVALID_QUANTITY when
// the result would not fit in an int64. Checkout removes it and fails with
// INSUFFICIENT_STOCK when it would go negative. A failed Apply leaves the level untouched.
func (s *StockLevel) Apply(in MovementInput) (*StockMovement, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	before := s.CurrentStock
	switch in.Type {
	case MovementTypeCheckin, MovementTypeAdjustment:
		if in.Quantity > math.MaxInt64-s.CurrentStock {
			return nil, shared.NewDomainError(shared.CodeInvalidQuantity,
				fmt.Sprintf("Stock overflow: %d on hand, %d more cannot be recorded", s.CurrentStock, in.Quantity))
		}
		s.CurrentStock += in.Quantity
	case MovementTypeCheckout:
		if in.Quantity > s.CurrentStock {
			return nil, shared.NewDomainError(shared.CodeInsufficientStock,
				fmt.Sprintf("Insufficient stock: requested %d, available %d", in.Quantity, s.CurrentStock))
		}
		s.CurrentStock -= in.Quantity
	}

	now := time.Now()
	s.Touch(now)

	movement := &StockMovement{
		ID:          uuid.New(),
		TenantID:    s.TenantID,
		ArticleID:   s.ArticleID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		StockBefore: before,
		StockAfter:  s.CurrentStock,
		Reference:   in.Reference,
		Note:        in.Note,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
	}

	s.AddDomainEvent(NewStockMovedEvent(s, movement))

	return movement, nil
}

// AvailableStock returns stock not held by reservations
func (s *StockLevel) AvailableStock() int64 {
	available := s.CurrentStock - s.ReservedStock
	if available < 0 {
		return 0
	}
	return available
}
