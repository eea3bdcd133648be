package persistence

import (
	"context"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCountSessionRepository implements CountSessionRepository using GORM
type GormCountSessionRepository struct {
	db *gorm.DB
}

// NewGormCountSessionRepository creates a new GormCountSessionRepository
func NewGormCountSessionRepository(db *gorm.DB) *GormCountSessionRepository {
	return &GormCountSessionRepository{db: db}
}

// preloadLines loads lines in article code order
func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("article_code ASC")
	})
}

// FindByIDForTenant finds a session with its lines
func (r *GormCountSessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*counting.CountSession, error) {
	return r.find(preloadLines(r.db.WithContext(ctx)), tenantID, id)
}

// FindByIDForUpdate finds a session with its lines and locks the session row
func (r *GormCountSessionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*counting.CountSession, error) {
	db := preloadLines(r.db.WithContext(ctx)).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.find(db, tenantID, id)
}

// FindHeaderForShare finds a session without lines under FOR SHARE
func (r *GormCountSessionRepository) FindHeaderForShare(ctx context.Context, tenantID, id uuid.UUID) (*counting.CountSession, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"}), tenantID, id)
}

func (r *GormCountSessionRepository) find(db *gorm.DB, tenantID, id uuid.UUID) (*counting.CountSession, error) {
	var model models.CountSessionModel
	if err := db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		return nil, translateError(err, "Count session")
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists sessions with their lines
func (r *GormCountSessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter counting.SessionListFilter) ([]counting.CountSession, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CountSessionModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CountSessionModel
	if err := paginate(preloadLines(query), filter.Filter, countSessionSort).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	sessions := make([]counting.CountSession, len(rows))
	for i := range rows {
		sessions[i] = *rows[i].ToDomain()
	}
	return sessions, total, nil
}

// Create inserts a session and all of its lines
func (r *GormCountSessionRepository) Create(ctx context.Context, session *counting.CountSession) error {
	model := models.CountSessionModelFromDomain(session)
	err := r.db.WithContext(ctx).Create(model).Error
	return translateError(err, "Count session")
}

// SaveWithLock updates the session header if its version is unchanged
func (r *GormCountSessionRepository) SaveWithLock(ctx context.Context, session *counting.CountSession) error {
	result := r.db.WithContext(ctx).
		Model(&models.CountSessionModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", session.TenantID, session.ID, session.Version-1).
		Updates(map[string]any{
			"title":        session.Title,
			"description":  session.Description,
			"status":       session.Status,
			"started_at":   session.StartedAt,
			"completed_at": session.CompletedAt,
			"approved_by":  session.ApprovedBy,
			"approved_at":  session.ApprovedAt,
			"version":      session.Version,
			"updated_at":   session.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimisticLockError("Count session")
	}
	return nil
}

// AddLine inserts a line into an existing session
func (r *GormCountSessionRepository) AddLine(ctx context.Context, line *counting.CountLine) error {
	err := r.db.WithContext(ctx).Create(models.CountLineModelFromDomain(line)).Error
	return translateError(err, "Count line")
}

// Delete removes a session and all of its lines.
// Lines are deleted explicitly so the cascade holds where foreign keys are not enforced.
func (r *GormCountSessionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tenant_id = ? AND session_id = ?", tenantID, id).
		Delete(&models.CountLineModel{}).Error; err != nil {
		return err
	}

	result := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.CountSessionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ counting.CountSessionRepository = (*GormCountSessionRepository)(nil)
