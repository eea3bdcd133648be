package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB creates a postgres GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestStockLevelRepository_ForUpdateSQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	tenantID, articleID, levelID := uuid.New(), uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "article_id", "current_stock", "reserved_stock", "version"}).
		AddRow(levelID.String(), tenantID.String(), articleID.String(), 12, 0, 3)
	mock.ExpectQuery(`SELECT \* FROM "stock_levels" WHERE .*tenant_id = \$1 AND article_id = \$2.* FOR UPDATE`).
		WillReturnRows(rows)

	level, err := NewGormStockLevelRepository(db).FindByArticleForUpdate(context.Background(), tenantID, articleID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), level.CurrentStock)
	assert.Equal(t, 3, level.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLevelRepository_SaveWithLockConflict(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	level, err := inventory.NewStockLevel(uuid.New(), uuid.New())
	require.NoError(t, err)
	level.Version = 4

	mock.ExpectExec(`UPDATE "stock_levels" SET .* WHERE .*version = \$`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewGormStockLevelRepository(db).SaveWithLock(context.Background(), level)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountSessionRepository_ShareLockSQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	tenantID, sessionID := uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "title", "status", "version"}).
		AddRow(sessionID.String(), tenantID.String(), "Monthly", "completed", 3)
	mock.ExpectQuery(`SELECT \* FROM "count_sessions" WHERE .* FOR SHARE`).
		WillReturnRows(rows)

	session, err := NewGormCountSessionRepository(db).FindHeaderForShare(context.Background(), tenantID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, counting.SessionStatusCompleted, session.Status)
	assert.False(t, session.AcceptsCounts())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountSessionRepository_DeleteNotFound(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectExec(`DELETE FROM "count_lines"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "count_sessions"`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGormCountSessionRepository(db).Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil, "Article"))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound, "Article"), shared.ErrNotFound)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey, "Article"), shared.ErrAlreadyExists)

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_articles_tenant_code"}
	translated := translateError(pgErr, "Article")
	assert.ErrorIs(t, translated, shared.ErrAlreadyExists)
	assert.True(t, errors.As(translated, &pgErr))

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other, "Article"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
