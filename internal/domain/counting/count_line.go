package counting

import (
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotItem is an article with its stock level as read at snapshot time
type SnapshotItem struct {
	ArticleID    uuid.UUID
	ArticleCode  string
	ArticleName  string
	CategoryID   *uuid.UUID
	Location     string
	Unit         string
	UnitPrice    decimal.Decimal
	CurrentStock int64
}

// CountLine is one article's expected-vs-counted comparison within a session.
// ExpectedQuantity is copied from the ledger when the line is created and never changes.
// Deviation is only ever derived from CountedQuantity and ExpectedQuantity.
type CountLine struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	SessionID        uuid.UUID
	ArticleID        uuid.UUID
	ArticleCode      string
	ArticleName      string
	Location         string
	Unit             string
	UnitPrice        decimal.Decimal
	ExpectedQuantity int64
	CountedQuantity  *int64
	Deviation        *int64
	Notes            string
	CountedBy        *uuid.UUID
	CountedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCountLine creates an uncounted line from a snapshot item
func NewCountLine(tenantID, sessionID uuid.UUID, item SnapshotItem) CountLine {
	now := time.Now()
	return CountLine{
		ID:               uuid.New(),
		TenantID:         tenantID,
		SessionID:        sessionID,
		ArticleID:        item.ArticleID,
		ArticleCode:      item.ArticleCode,
		ArticleName:      item.ArticleName,
		Location:         item.Location,
		Unit:             item.Unit,
		UnitPrice:        item.UnitPrice,
		ExpectedQuantity: item.CurrentStock,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// RecordCount stores a physical count, replacing any previous one
func (l *CountLine) RecordCount(counted int64, notes string, countedBy uuid.UUID) error {
	if counted < 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Counted quantity cannot be negative")
	}
	if countedBy == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Counting user cannot be empty")
	}
	if len(notes) > 1000 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Notes cannot exceed 1000 characters")
	}

	now := time.Now()
	deviation := counted - l.ExpectedQuantity
	l.CountedQuantity = &counted
	l.Deviation = &deviation
	l.Notes = notes
	l.CountedBy = &countedBy
	l.CountedAt = &now
	l.UpdatedAt = now

	return nil
}

// IsCounted returns true once a count has been recorded
func (l *CountLine) IsCounted() bool {
	return l.CountedQuantity != nil
}

// DeviationOrZero returns the deviation, treating an uncounted line as zero
func (l *CountLine) DeviationOrZero() int64 {
	if l.Deviation == nil {
		return 0
	}
	return *l.Deviation
}

// HasDeviation returns true if the line was counted with a nonzero deviation
func (l *CountLine) HasDeviation() bool {
	return l.DeviationOrZero() != 0
}

// DeviationValue prices the absolute deviation at the snapshotted unit price
func (l *CountLine) DeviationValue() decimal.Decimal {
	return decimal.NewFromInt(abs(l.DeviationOrZero())).Mul(l.UnitPrice)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
