package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormArticleRepository implements ArticleRepository using GORM
type GormArticleRepository struct {
	db *gorm.DB
}

// NewGormArticleRepository creates a new GormArticleRepository
func NewGormArticleRepository(db *gorm.DB) *GormArticleRepository {
	return &GormArticleRepository{db: db}
}

// FindByIDForTenant finds an article by ID within a tenant
func (r *GormArticleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Article, error) {
	var model models.ArticleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Article")
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists articles of a tenant, narrowed by category and location
func (r *GormArticleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.ArticleFilter) ([]inventory.Article, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ArticleModel{}).Where("tenant_id = ?", tenantID)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(loc)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ArticleModel
	if err := paginate(query, filter.Filter, articleSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	articles := make([]inventory.Article, len(rows))
	for i := range rows {
		articles[i] = *rows[i].ToDomain()
	}
	return articles, total, nil
}

// ExistsByCode checks if an article code is already taken within a tenant
func (r *GormArticleRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ArticleModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an article
func (r *GormArticleRepository) Save(ctx context.Context, article *inventory.Article) error {
	err := r.db.WithContext(ctx).Save(models.ArticleModelFromDomain(article)).Error
	return translateError(err, "Article")
}

var _ inventory.ArticleRepository = (*GormArticleRepository)(nil)
