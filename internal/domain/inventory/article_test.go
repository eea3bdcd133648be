package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArticle(t *testing.T) {
	tenantID := uuid.New()
	categoryID := uuid.New()

	t.Run("creates article with valid inputs", func(t *testing.T) {
		a, err := NewArticle(tenantID, " BMA-001 ", "Smoke detector", &categoryID, "Shelf A-3", "", decimal.NewFromFloat(12.5))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Equal(t, "BMA-001", a.Code)
		assert.Equal(t, "Smoke detector", a.Name)
		assert.Equal(t, &categoryID, a.CategoryID)
		assert.Equal(t, "Shelf A-3", a.Location)
		assert.Equal(t, "pcs", a.Unit)
		assert.True(t, a.UnitPrice.Equal(decimal.NewFromFloat(12.5)))
	})

	t.Run("fails with empty code", func(t *testing.T) {
		_, err := NewArticle(tenantID, "  ", "Name", nil, "", "pcs", decimal.Zero)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Article code cannot be empty")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewArticle(tenantID, "A1", "", nil, "", "pcs", decimal.Zero)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Article name cannot be empty")
	})

	t.Run("fails with negative price", func(t *testing.T) {
		_, err := NewArticle(tenantID, "A1", "Name", nil, "", "pcs", decimal.NewFromInt(-1))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unit price cannot be negative")
	})

	t.Run("relocate bumps version", func(t *testing.T) {
		a, err := NewArticle(tenantID, "A1", "Name", nil, "Old", "pcs", decimal.Zero)
		require.NoError(t, err)

		a.Relocate(" New ")

		assert.Equal(t, "New", a.Location)
		assert.Equal(t, 2, a.GetVersion())
	})
}
