package counting

import (
	"context"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// SessionListFilter narrows session listings
type SessionListFilter struct {
	shared.Filter
	Status *SessionStatus
}

// CountSessionRepository defines the interface for count session persistence.
// Lines are loaded and stored together with their session except for
// individual count updates, which go through CountLineRepository.
type CountSessionRepository interface {
	// FindByIDForTenant finds a session with its lines
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CountSession, error)

	// FindByIDForUpdate finds a session with its lines and locks the session row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*CountSession, error)

	// FindHeaderForShare finds a session without its lines and takes a shared
	// lock on the row, so status changes wait for the current transaction
	FindHeaderForShare(ctx context.Context, tenantID, id uuid.UUID) (*CountSession, error)

	// FindAllForTenant lists sessions with their lines
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SessionListFilter) ([]CountSession, int64, error)

	// Create inserts a session and all of its lines
	Create(ctx context.Context, session *CountSession) error

	// SaveWithLock updates the session header if its version is unchanged
	SaveWithLock(ctx context.Context, session *CountSession) error

	// AddLine inserts a line into an existing session
	AddLine(ctx context.Context, line *CountLine) error

	// Delete removes a session and all of its lines
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// CountLineRepository defines the interface for count line persistence
type CountLineRepository interface {
	// FindByID finds a line without locking it
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CountLine, error)

	// FindByIDForUpdate finds a line and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*CountLine, error)

	// SaveCount stores the count fields of a line
	SaveCount(ctx context.Context, line *CountLine) error
}

// SnapshotReader reads articles together with their current stock
type SnapshotReader interface {
	// FindMatching returns every article selected by filter with its current stock
	FindMatching(ctx context.Context, tenantID uuid.UUID, filter SessionFilter) ([]SnapshotItem, error)

	// FindByArticle returns one article with its current stock
	FindByArticle(ctx context.Context, tenantID, articleID uuid.UUID) (*SnapshotItem, error)
}
