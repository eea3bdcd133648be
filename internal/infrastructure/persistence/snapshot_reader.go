package persistence

import (
	"context"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSnapshotReader reads articles joined with their stock levels.
// Articles without a stock level row are reported with zero stock.
type GormSnapshotReader struct {
	db *gorm.DB
}

// NewGormSnapshotReader creates a new GormSnapshotReader
func NewGormSnapshotReader(db *gorm.DB) *GormSnapshotReader {
	return &GormSnapshotReader{db: db}
}

type snapshotRow struct {
	ArticleID    uuid.UUID
	ArticleCode  string
	ArticleName  string
	CategoryID   *uuid.UUID
	Location     string
	Unit         string
	UnitPrice    decimal.Decimal
	CurrentStock int64
}

func (r *GormSnapshotReader) baseQuery(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("articles AS a").
		Select(`a.id AS article_id, a.code AS article_code, a.name AS article_name,
			a.category_id, a.location, a.unit, a.unit_price,
			COALESCE(s.current_stock, 0) AS current_stock`).
		Joins("LEFT JOIN stock_levels AS s ON s.article_id = a.id AND s.tenant_id = a.tenant_id").
		Where("a.tenant_id = ?", tenantID)
}

// FindMatching returns every article selected by filter with its current stock.
// Category is filtered in SQL; the location match uses Unicode case folding and
// is applied in Go so every driver gives the same result.
func (r *GormSnapshotReader) FindMatching(ctx context.Context, tenantID uuid.UUID, filter counting.SessionFilter) ([]counting.SnapshotItem, error) {
	query := r.baseQuery(ctx, tenantID)
	if filter.CategoryID != nil {
		query = query.Where("a.category_id = ?", *filter.CategoryID)
	}

	var rows []snapshotRow
	if err := query.Order("a.code ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]counting.SnapshotItem, 0, len(rows))
	for _, row := range rows {
		if !filter.Matches(row.CategoryID, row.Location) {
			continue
		}
		items = append(items, row.toItem())
	}
	return items, nil
}

// FindByArticle returns one article with its current stock
func (r *GormSnapshotReader) FindByArticle(ctx context.Context, tenantID, articleID uuid.UUID) (*counting.SnapshotItem, error) {
	var rows []snapshotRow
	if err := r.baseQuery(ctx, tenantID).
		Where("a.id = ?", articleID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, translateError(gorm.ErrRecordNotFound, "Article")
	}
	item := rows[0].toItem()
	return &item, nil
}

func (row snapshotRow) toItem() counting.SnapshotItem {
	return counting.SnapshotItem{
		ArticleID:    row.ArticleID,
		ArticleCode:  row.ArticleCode,
		ArticleName:  row.ArticleName,
		CategoryID:   row.CategoryID,
		Location:     row.Location,
		Unit:         row.Unit,
		UnitPrice:    row.UnitPrice,
		CurrentStock: row.CurrentStock,
	}
}

var _ counting.SnapshotReader = (*GormSnapshotReader)(nil)
