package shared

import "strings"

// Paging limits shared by every list query
const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// Filter is the paging and ordering part of a list query.
// OrderBy is checked against a per-table whitelist by the repositories.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// Normalize clamps Page and PageSize and folds OrderDir to "asc" or "desc"
func (f Filter) Normalize() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc") {
		f.OrderDir = "asc"
	} else {
		f.OrderDir = "desc"
	}
	return f
}

// Offset is the number of rows before the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
