package inventory

import (
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementType represents the kind of stock movement applied to an article
type MovementType string

const (
	MovementTypeCheckin    MovementType = "checkin"
	MovementTypeCheckout   MovementType = "checkout"
	MovementTypeAdjustment MovementType = "adjustment"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeCheckin, MovementTypeCheckout, MovementTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsOutbound returns true if the movement removes stock
func (t MovementType) IsOutbound() bool {
	return t == MovementTypeCheckout
}

// MovementTypes lists all movement types in display order
func MovementTypes() []MovementType {
	return []MovementType{MovementTypeCheckin, MovementTypeCheckout, MovementTypeAdjustment}
}

// StockMovement is one journal entry of the stock ledger.
// It is written in the same transaction as the stock level change it describes.
type StockMovement struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	ArticleID   uuid.UUID
	Type        MovementType
	Quantity    int64
	StockBefore int64
	StockAfter  int64
	Reference   string
	Note        string
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
}

// MovementInput carries the caller supplied part of a movement
type MovementInput struct {
	Type      MovementType
	Quantity  int64
	Reference string
	Note      string
	CreatedBy *uuid.UUID
}

// Validate checks the movement type and quantity
func (in MovementInput) Validate() error {
	if !in.Type.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Unknown movement type: "+string(in.Type))
	}
	if in.Quantity <= 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Movement quantity must be positive")
	}
	if len(in.Reference) > 100 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reference cannot exceed 100 characters")
	}
	return nil
}

// SignedQuantity returns the effect of the movement on current stock
func (m *StockMovement) SignedQuantity() int64 {
	if m.Type.IsOutbound() {
		return -m.Quantity
	}
	return m.Quantity
}
