package persistence

import (
	"context"
	"math"
	"testing"

	appcount "github.com/erp/stockcount/internal/application/counting"
	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

// TestCountFlow runs the ledger and count services against sqlite through the GORM transaction scopes
func TestCountFlow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	a := seedArticle(t, db, tenantID, "A-100", "Hall 1", nil, 50)
	b := seedArticle(t, db, tenantID, "B-200", "Hall 2", nil, 10)

	ledger := appinv.NewStockLedgerService(
		NewLedgerTransactionScope(db),
		NewGormStockLevelRepository(db),
		NewGormStockMovementRepository(db),
	)
	sessions := appcount.NewSessionService(NewCountTransactionScope(db), NewGormCountSessionRepository(db))
	lines := appcount.NewLineService(NewCountTransactionScope(db))

	// ledger: checkout within stock, then an oversized checkout that must not change stock
	moved, err := ledger.ApplyMovement(ctx, tenantID, a.ID, appinv.ApplyMovementRequest{Type: "checkout", Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(40), moved.Stock.CurrentStock)

	_, err = ledger.ApplyMovement(ctx, tenantID, a.ID, appinv.ApplyMovementRequest{Type: "checkout", Quantity: 45})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	level, err := ledger.GetStockLevel(ctx, tenantID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), level.CurrentStock)

	movements, total, err := ledger.ListMovements(ctx, tenantID, a.ID, appinv.MovementListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, movements, 1)
	assert.Equal(t, int64(50), movements[0].StockBefore)

	// counting: snapshot, count, aggregate
	session, err := sessions.CreateSession(ctx, tenantID, appcount.CreateSessionRequest{Title: "Monthly", Location: "hall"}, userID)
	require.NoError(t, err)
	require.Len(t, session.Lines, 2)
	assert.Equal(t, int64(40), session.Lines[0].ExpectedQuantity)

	// movements after the snapshot leave expected quantities alone
	_, err = ledger.ApplyMovement(ctx, tenantID, a.ID, appinv.ApplyMovementRequest{Type: "checkin", Quantity: 25})
	require.NoError(t, err)
	snapshot, err := sessions.GetSession(ctx, tenantID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), snapshot.Lines[0].ExpectedQuantity)
	assert.Equal(t, int64(10), snapshot.Lines[1].ExpectedQuantity)
	level, err = ledger.GetStockLevel(ctx, tenantID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(65), level.CurrentStock)

	_, err = lines.RecordCount(ctx, tenantID, session.Lines[0].ID, appcount.RecordCountRequest{CountedQuantity: int64Ptr(38)}, userID)
	require.NoError(t, err)
	_, err = lines.RecordCount(ctx, tenantID, session.Lines[1].ID, appcount.RecordCountRequest{CountedQuantity: int64Ptr(13)}, userID)
	require.NoError(t, err)

	got, err := sessions.GetSession(ctx, tenantID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Summary.CompletedItems)
	assert.Equal(t, int64(5), got.Summary.TotalDeviations)
	assert.True(t, got.Summary.HasDeviations)

	// recording counts never touches the ledger
	level, err = ledger.GetStockLevel(ctx, tenantID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), level.CurrentStock)

	// lifecycle
	actor := counting.Actor{UserID: userID}
	for _, status := range []string{"in_progress", "completed"} {
		_, err = sessions.AdvanceStatus(ctx, tenantID, session.ID, appcount.AdvanceStatusRequest{Status: status}, actor)
		require.NoError(t, err)
	}

	_, err = lines.RecordCount(ctx, tenantID, session.Lines[0].ID, appcount.RecordCountRequest{CountedQuantity: int64Ptr(40)}, userID)
	assert.ErrorIs(t, err, shared.ErrSessionClosed)

	err = sessions.DeleteSession(ctx, tenantID, session.ID, userID)
	assert.ErrorIs(t, err, shared.ErrNotDeletable)

	_, err = sessions.AdvanceStatus(ctx, tenantID, session.ID, appcount.AdvanceStatusRequest{Status: "approved"}, actor)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	approved, err := sessions.AdvanceStatus(ctx, tenantID, session.ID, appcount.AdvanceStatusRequest{Status: "approved"},
		counting.Actor{UserID: userID, CanApprove: true})
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, &userID, approved.ApprovedBy)
	assert.NotNil(t, approved.CompletedAt)
}

func TestCountFlow_DeleteOpenSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()
	seedArticle(t, db, tenantID, "A-100", "Hall 1", nil, 5)

	sessions := appcount.NewSessionService(NewCountTransactionScope(db), NewGormCountSessionRepository(db))
	session, err := sessions.CreateSession(ctx, tenantID, appcount.CreateSessionRequest{Title: "Draft"}, userID)
	require.NoError(t, err)

	require.NoError(t, sessions.DeleteSession(ctx, tenantID, session.ID, userID))

	_, err = sessions.GetSession(ctx, tenantID, session.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCountFlow_CheckinOverflow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	a := seedArticle(t, db, tenantID, "A-100", "", nil, math.MaxInt64-1)

	ledger := appinv.NewStockLedgerService(
		NewLedgerTransactionScope(db),
		NewGormStockLevelRepository(db),
		NewGormStockMovementRepository(db),
	)

	_, err := ledger.ApplyMovement(ctx, tenantID, a.ID, appinv.ApplyMovementRequest{Type: "checkin", Quantity: 5})
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	level, err := ledger.GetStockLevel(ctx, tenantID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-1), level.CurrentStock)

	_, total, err := ledger.ListMovements(ctx, tenantID, a.ID, appinv.MovementListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
