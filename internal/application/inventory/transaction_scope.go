package inventory

import (
	"context"

	"github.com/erp/stockcount/internal/domain/inventory"
)

// TransactionScope provides transactional access to ledger repositories.
// All repository calls made inside fn commit or roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the ledger repositories bound to one transaction
type TransactionalRepositories interface {
	ArticleRepo() inventory.ArticleRepository
	StockLevelRepo() inventory.StockLevelRepository
	MovementRepo() inventory.StockMovementRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// Used in tests where the repositories are in-memory.
type NoOpTransactionScope struct {
	articleRepo  inventory.ArticleRepository
	stockRepo    inventory.StockLevelRepository
	movementRepo inventory.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	articleRepo inventory.ArticleRepository,
	stockRepo inventory.StockLevelRepository,
	movementRepo inventory.StockMovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		articleRepo:  articleRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ArticleRepo returns the article repository
func (s *NoOpTransactionScope) ArticleRepo() inventory.ArticleRepository {
	return s.articleRepo
}

// StockLevelRepo returns the stock level repository
func (s *NoOpTransactionScope) StockLevelRepo() inventory.StockLevelRepository {
	return s.stockRepo
}

// MovementRepo returns the movement journal repository
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
