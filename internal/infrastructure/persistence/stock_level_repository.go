package persistence

import (
	"context"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockLevelRepository implements StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindByArticle finds the stock level of an article
func (r *GormStockLevelRepository) FindByArticle(ctx context.Context, tenantID, articleID uuid.UUID) (*inventory.StockLevel, error) {
	return r.findByArticle(r.db.WithContext(ctx), tenantID, articleID)
}

// FindByArticleForUpdate finds the stock level with SELECT ... FOR UPDATE.
// Drivers without row locks (sqlite) ignore the clause; SaveWithLock's version
// check still rejects a lost update.
func (r *GormStockLevelRepository) FindByArticleForUpdate(ctx context.Context, tenantID, articleID uuid.UUID) (*inventory.StockLevel, error) {
	return r.findByArticle(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, articleID)
}

func (r *GormStockLevelRepository) findByArticle(db *gorm.DB, tenantID, articleID uuid.UUID) (*inventory.StockLevel, error) {
	var model models.StockLevelModel
	if err := db.Where("tenant_id = ? AND article_id = ?", tenantID, articleID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Stock level")
	}
	return model.ToDomain(), nil
}

// FindByArticles finds stock levels for several articles, keyed by article ID
func (r *GormStockLevelRepository) FindByArticles(ctx context.Context, tenantID uuid.UUID, articleIDs []uuid.UUID) (map[uuid.UUID]inventory.StockLevel, error) {
	levels := make(map[uuid.UUID]inventory.StockLevel, len(articleIDs))
	if len(articleIDs) == 0 {
		return levels, nil
	}

	var rows []models.StockLevelModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND article_id IN ?", tenantID, articleIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		levels[rows[i].ArticleID] = *rows[i].ToDomain()
	}
	return levels, nil
}

// Create inserts a new stock level
func (r *GormStockLevelRepository) Create(ctx context.Context, level *inventory.StockLevel) error {
	err := r.db.WithContext(ctx).Create(models.StockLevelModelFromDomain(level)).Error
	return translateError(err, "Stock level")
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockLevelRepository) SaveWithLock(ctx context.Context, level *inventory.StockLevel) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockLevelModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", level.TenantID, level.ID, level.Version-1).
		Updates(map[string]any{
			"current_stock":  level.CurrentStock,
			"reserved_stock": level.ReservedStock,
			"version":        level.Version,
			"updated_at":     level.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimisticLockError("Stock level")
	}
	return nil
}

var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)
