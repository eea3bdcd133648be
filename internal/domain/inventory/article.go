package inventory

import (
	"strings"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Article is a stock keeping unit. It is reference data: the ledger keys
// stock levels by article but never changes the article itself.
type Article struct {
	shared.TenantAggregateRoot
	Code       string
	Name       string
	CategoryID *uuid.UUID
	Location   string
	Unit       string
	UnitPrice  decimal.Decimal
}

// NewArticle creates a new article
func NewArticle(tenantID uuid.UUID, code, name string, categoryID *uuid.UUID, location, unit string, unitPrice decimal.Decimal) (*Article, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Article code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Article code cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Article name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit price cannot be negative")
	}
	if unit == "" {
		unit = "pcs"
	}

	return &Article{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		CategoryID:          categoryID,
		Location:            strings.TrimSpace(location),
		Unit:                unit,
		UnitPrice:           unitPrice,
	}, nil
}

// Relocate changes the storage location of the article
func (a *Article) Relocate(location string) {
	a.Location = strings.TrimSpace(location)
	a.Touch(time.Now())
}
