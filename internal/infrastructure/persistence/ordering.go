package persistence

import (
	"slices"
	"strings"

	"github.com/erp/stockcount/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns whitelists the columns a list endpoint may order by.
// OrderBy values reach SQL verbatim, so anything else falls back to the default.
type sortColumns struct {
	allowed  []string
	fallback string
}

var (
	articleSort      = sortColumns{allowed: []string{"code", "name", "location", "unit_price", "created_at", "updated_at"}, fallback: "code"}
	countSessionSort = sortColumns{allowed: []string{"title", "status", "created_at", "updated_at"}, fallback: "created_at"}
)

// clause returns "<column> ASC|DESC"; direction defaults to DESC
func (s sortColumns) clause(orderBy, orderDir string) string {
	column := s.fallback
	if c := strings.TrimSpace(orderBy); slices.Contains(s.allowed, c) {
		column = c
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}

// paginate orders by a whitelisted column with id as tie breaker, then cuts the page
func paginate(query *gorm.DB, filter shared.Filter, sort sortColumns) *gorm.DB {
	filter = filter.Normalize()
	return query.
		Order(sort.clause(filter.OrderBy, filter.OrderDir)).
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}
