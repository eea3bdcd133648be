package inventory

import (
	"context"
	"fmt"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// ArticleService gives read access to the article registry and registers new
// articles together with an empty stock level.
type ArticleService struct {
	txScope     TransactionScope
	articleRepo inventory.ArticleRepository
	stockRepo   inventory.StockLevelRepository
}

// NewArticleService creates a new ArticleService
func NewArticleService(
	txScope TransactionScope,
	articleRepo inventory.ArticleRepository,
	stockRepo inventory.StockLevelRepository,
) *ArticleService {
	return &ArticleService{
		txScope:     txScope,
		articleRepo: articleRepo,
		stockRepo:   stockRepo,
	}
}

// RegisterArticle creates an article with a zero stock level
func (s *ArticleService) RegisterArticle(ctx context.Context, tenantID uuid.UUID, req RegisterArticleRequest, createdBy *uuid.UUID) (*ArticleResponse, error) {
	article, err := inventory.NewArticle(tenantID, req.Code, req.Name, req.CategoryID, req.Location, req.Unit, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	article.CreatedBy = createdBy

	level, err := inventory.NewStockLevel(tenantID, article.ID)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.ArticleRepo().ExistsByCode(ctx, tenantID, article.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Article code %s already exists", article.Code))
		}
		if err := repos.ArticleRepo().Save(ctx, article); err != nil {
			return err
		}
		return repos.StockLevelRepo().Create(ctx, level)
	})
	if err != nil {
		return nil, err
	}

	resp := ToArticleResponse(article, level)
	return &resp, nil
}

// GetArticle returns an article with its stock level
func (s *ArticleService) GetArticle(ctx context.Context, tenantID, id uuid.UUID) (*ArticleResponse, error) {
	article, err := s.articleRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	level, err := s.stockRepo.FindByArticle(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	resp := ToArticleResponse(article, level)
	return &resp, nil
}

// ListArticles returns a page of articles with their stock levels
func (s *ArticleService) ListArticles(ctx context.Context, tenantID uuid.UUID, filter ArticleListFilter) ([]ArticleResponse, int64, error) {
	domainFilter := inventory.ArticleFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		Location: filter.Location,
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "code"
		domainFilter.OrderDir = "asc"
	}
	if filter.CategoryID != "" {
		categoryID, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "Invalid category ID")
		}
		domainFilter.CategoryID = &categoryID
	}

	articles, total, err := s.articleRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
	}
	levels, err := s.stockRepo.FindByArticles(ctx, tenantID, ids)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ArticleResponse, len(articles))
	for i := range articles {
		var level *inventory.StockLevel
		if l, ok := levels[articles[i].ID]; ok {
			level = &l
		}
		responses[i] = ToArticleResponse(&articles[i], level)
	}
	return responses, total, nil
}
