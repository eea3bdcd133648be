package persistence

import (
	"context"

	appcount "github.com/erp/stockcount/internal/application/counting"
	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/inventory"
	"gorm.io/gorm"
)

// LedgerTransactionScope implements the ledger TransactionScope using GORM transactions.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
type LedgerTransactionScope struct {
	db *gorm.DB
}

// NewLedgerTransactionScope creates a new LedgerTransactionScope
func NewLedgerTransactionScope(db *gorm.DB) *LedgerTransactionScope {
	return &LedgerTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *LedgerTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

type gormLedgerRepositories struct {
	tx *gorm.DB
}

func (r *gormLedgerRepositories) ArticleRepo() inventory.ArticleRepository {
	return NewGormArticleRepository(r.tx)
}

func (r *gormLedgerRepositories) StockLevelRepo() inventory.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

func (r *gormLedgerRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// CountTransactionScope implements the counting TransactionScope using GORM transactions
type CountTransactionScope struct {
	db *gorm.DB
}

// NewCountTransactionScope creates a new CountTransactionScope
func NewCountTransactionScope(db *gorm.DB) *CountTransactionScope {
	return &CountTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *CountTransactionScope) Execute(ctx context.Context, fn func(repos appcount.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCountRepositories{tx: tx})
	})
}

type gormCountRepositories struct {
	tx *gorm.DB
}

func (r *gormCountRepositories) SessionRepo() counting.CountSessionRepository {
	return NewGormCountSessionRepository(r.tx)
}

func (r *gormCountRepositories) LineRepo() counting.CountLineRepository {
	return NewGormCountLineRepository(r.tx)
}

func (r *gormCountRepositories) SnapshotReader() counting.SnapshotReader {
	return NewGormSnapshotReader(r.tx)
}

var (
	_ appinv.TransactionScope            = (*LedgerTransactionScope)(nil)
	_ appinv.TransactionalRepositories   = (*gormLedgerRepositories)(nil)
	_ appcount.TransactionScope          = (*CountTransactionScope)(nil)
	_ appcount.TransactionalRepositories = (*gormCountRepositories)(nil)
)
