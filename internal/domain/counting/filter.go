package counting

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// SessionFilter selects the articles snapshotted into a session.
// Both criteria are optional; when both are set an article must satisfy both.
type SessionFilter struct {
	CategoryID *uuid.UUID
	Location   string
}

// IsEmpty returns true when the filter matches every article
func (f SessionFilter) IsEmpty() bool {
	return f.CategoryID == nil && strings.TrimSpace(f.Location) == ""
}

// Matches reports whether an article with the given category and location is selected.
// Location is a case-insensitive substring match using Unicode case folding.
func (f SessionFilter) Matches(categoryID *uuid.UUID, location string) bool {
	if f.CategoryID != nil {
		if categoryID == nil || *categoryID != *f.CategoryID {
			return false
		}
	}
	needle := strings.TrimSpace(f.Location)
	if needle == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(location), fold.String(needle))
}
