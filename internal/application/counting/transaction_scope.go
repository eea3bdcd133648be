package counting

import (
	"context"

	"github.com/erp/stockcount/internal/domain/counting"
)

// TransactionScope provides transactional access to count repositories
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the count repositories bound to one transaction.
// SnapshotReader reads the ledger in the same transaction, so a session's
// expected quantities come from one consistent view.
type TransactionalRepositories interface {
	SessionRepo() counting.CountSessionRepository
	LineRepo() counting.CountLineRepository
	SnapshotReader() counting.SnapshotReader
}

// NoOpTransactionScope runs fn directly against the given repositories
type NoOpTransactionScope struct {
	sessionRepo counting.CountSessionRepository
	lineRepo    counting.CountLineRepository
	snapshot    counting.SnapshotReader
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	sessionRepo counting.CountSessionRepository,
	lineRepo counting.CountLineRepository,
	snapshot counting.SnapshotReader,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		sessionRepo: sessionRepo,
		lineRepo:    lineRepo,
		snapshot:    snapshot,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) SessionRepo() counting.CountSessionRepository { return s.sessionRepo }
func (s *NoOpTransactionScope) LineRepo() counting.CountLineRepository       { return s.lineRepo }
func (s *NoOpTransactionScope) SnapshotReader() counting.SnapshotReader      { return s.snapshot }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
