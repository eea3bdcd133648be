package models

import (
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ArticleModel is the persistence model for the Article aggregate root.
// Uniqueness of (tenant_id, code) is enforced by the migration.
type ArticleModel struct {
	TenantAggregateModel
	Code       string          `gorm:"type:varchar(50);not null;index"`
	Name       string          `gorm:"type:varchar(200);not null"`
	CategoryID *uuid.UUID      `gorm:"type:uuid;index"`
	Location   string          `gorm:"type:varchar(200)"`
	Unit       string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ArticleModel) TableName() string {
	return "articles"
}

// ToDomain converts the persistence model to a domain Article
func (m *ArticleModel) ToDomain() *inventory.Article {
	return &inventory.Article{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		CategoryID:          m.CategoryID,
		Location:            m.Location,
		Unit:                m.Unit,
		UnitPrice:           m.UnitPrice,
	}
}

// FromDomain populates the persistence model from a domain Article
func (m *ArticleModel) FromDomain(a *inventory.Article) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.CategoryID = a.CategoryID
	m.Location = a.Location
	m.Unit = a.Unit
	m.UnitPrice = a.UnitPrice
}

// ArticleModelFromDomain creates a new persistence model from a domain Article
func ArticleModelFromDomain(a *inventory.Article) *ArticleModel {
	m := &ArticleModel{}
	m.FromDomain(a)
	return m
}

// StockLevelModel is the persistence model for the StockLevel aggregate root.
// There is at most one row per article.
type StockLevelModel struct {
	TenantAggregateModel
	ArticleID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CurrentStock  int64     `gorm:"not null;default:0"`
	ReservedStock int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevelModel) TableName() string {
	return "stock_levels"
}

// ToDomain converts the persistence model to a domain StockLevel
func (m *StockLevelModel) ToDomain() *inventory.StockLevel {
	return &inventory.StockLevel{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		ArticleID:           m.ArticleID,
		CurrentStock:        m.CurrentStock,
		ReservedStock:       m.ReservedStock,
	}
}

// StockLevelModelFromDomain creates a new persistence model from a domain StockLevel
func StockLevelModelFromDomain(s *inventory.StockLevel) *StockLevelModel {
	m := &StockLevelModel{
		ArticleID:     s.ArticleID,
		CurrentStock:  s.CurrentStock,
		ReservedStock: s.ReservedStock,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// StockMovementModel is the persistence model for one movement journal entry.
// Rows are append-only.
type StockMovementModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ArticleID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_movement_article_created,priority:1"`
	Type        string     `gorm:"column:movement_type;type:varchar(20);not null"`
	Quantity    int64      `gorm:"not null"`
	StockBefore int64      `gorm:"not null"`
	StockAfter  int64      `gorm:"not null"`
	Reference   string     `gorm:"type:varchar(100)"`
	Note        string     `gorm:"type:varchar(500)"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_stock_movement_article_created,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ArticleID:   m.ArticleID,
		Type:        inventory.MovementType(m.Type),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reference:   m.Reference,
		Note:        m.Note,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:          mv.ID,
		TenantID:    mv.TenantID,
		ArticleID:   mv.ArticleID,
		Type:        mv.Type.String(),
		Quantity:    mv.Quantity,
		StockBefore: mv.StockBefore,
		StockAfter:  mv.StockAfter,
		Reference:   mv.Reference,
		Note:        mv.Note,
		CreatedBy:   mv.CreatedBy,
		CreatedAt:   mv.CreatedAt,
	}
}
