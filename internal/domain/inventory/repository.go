package inventory

import (
	"context"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// ArticleFilter narrows article listings
type ArticleFilter struct {
	shared.Filter
	CategoryID *uuid.UUID
	Location   string
}

// ArticleRepository defines the interface for article persistence
type ArticleRepository interface {
	// FindByIDForTenant finds an article by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Article, error)

	// FindAllForTenant lists articles matching the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ArticleFilter) ([]Article, int64, error)

	// ExistsByCode checks if an article code is already taken within a tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// Save creates or updates an article
	Save(ctx context.Context, article *Article) error
}

// StockLevelRepository defines the interface for stock level persistence
type StockLevelRepository interface {
	// FindByArticle finds the stock level of an article
	FindByArticle(ctx context.Context, tenantID, articleID uuid.UUID) (*StockLevel, error)

	// FindByArticleForUpdate finds the stock level of an article and locks
	// the row until the surrounding transaction ends
	FindByArticleForUpdate(ctx context.Context, tenantID, articleID uuid.UUID) (*StockLevel, error)

	// FindByArticles finds stock levels for several articles, keyed by article ID
	FindByArticles(ctx context.Context, tenantID uuid.UUID, articleIDs []uuid.UUID) (map[uuid.UUID]StockLevel, error)

	// Create inserts a new stock level
	Create(ctx context.Context, level *StockLevel) error

	// SaveWithLock updates a stock level if its version is unchanged since it was read
	SaveWithLock(ctx context.Context, level *StockLevel) error
}

// StockMovementRepository defines the interface for the movement journal
type StockMovementRepository interface {
	// Create appends a movement to the journal
	Create(ctx context.Context, movement *StockMovement) error

	// FindByArticle lists movements of an article, newest first
	FindByArticle(ctx context.Context, tenantID, articleID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)
}
