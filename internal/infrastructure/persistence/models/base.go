package models

import (
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantAggregateModel holds the columns every tenant-owned aggregate table
// shares. version backs the compare-and-set in the repositories.
type TenantAggregateModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Version   int        `gorm:"not null;default:1"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// FromDomainTenantAggregateRoot copies the aggregate header into m
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	*m = TenantAggregateModel{
		ID:        t.ID,
		TenantID:  t.TenantID,
		Version:   t.Version,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// ToTenantAggregateRoot rebuilds the aggregate header from m
func (m *TenantAggregateModel) ToTenantAggregateRoot() shared.TenantAggregateRoot {
	var root shared.TenantAggregateRoot
	root.ID = m.ID
	root.CreatedAt = m.CreatedAt
	root.UpdatedAt = m.UpdatedAt
	root.Version = m.Version
	root.TenantID = m.TenantID
	root.CreatedBy = m.CreatedBy
	return root
}

// All returns every model in dependency order, for AutoMigrate on sqlite
func All() []any {
	return []any{
		&ArticleModel{},
		&StockLevelModel{},
		&StockMovementModel{},
		&CountSessionModel{},
		&CountLineModel{},
	}
}
