package persistence

import (
	"context"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCountLineRepository implements CountLineRepository using GORM
type GormCountLineRepository struct {
	db *gorm.DB
}

// NewGormCountLineRepository creates a new GormCountLineRepository
func NewGormCountLineRepository(db *gorm.DB) *GormCountLineRepository {
	return &GormCountLineRepository{db: db}
}

// FindByID finds a line without locking it
func (r *GormCountLineRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*counting.CountLine, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a line and locks its row until the transaction ends
func (r *GormCountLineRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*counting.CountLine, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormCountLineRepository) find(db *gorm.DB, tenantID, id uuid.UUID) (*counting.CountLine, error) {
	var model models.CountLineModel
	if err := db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		return nil, translateError(err, "Count line")
	}
	return model.ToDomain(), nil
}

// SaveCount stores the count fields of a line. The expected quantity is never written.
func (r *GormCountLineRepository) SaveCount(ctx context.Context, line *counting.CountLine) error {
	result := r.db.WithContext(ctx).
		Model(&models.CountLineModel{}).
		Where("tenant_id = ? AND id = ?", line.TenantID, line.ID).
		Updates(map[string]any{
			"counted_quantity": line.CountedQuantity,
			"deviation":        line.Deviation,
			"notes":            line.Notes,
			"counted_by":       line.CountedBy,
			"counted_at":       line.CountedAt,
			"updated_at":       line.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "Count line")
	}
	return nil
}

var _ counting.CountLineRepository = (*GormCountLineRepository)(nil)
