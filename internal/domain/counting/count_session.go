package counting

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// Actor is the user performing a session operation, as resolved by the auth layer
type Actor struct {
	UserID     uuid.UUID
	CanApprove bool
}

// CountSession is one inventory counting exercise.
// It is the aggregate root for count lines.
type CountSession struct {
	shared.TenantAggregateRoot
	Title       string
	Description string
	Status      SessionStatus
	Filter      SessionFilter
	StartedAt   *time.Time
	CompletedAt *time.Time
	ApprovedBy  *uuid.UUID
	ApprovedAt  *time.Time
	Lines       []CountLine
}

// NewCountSession creates an open session with one line per snapshot item.
// An empty item list is valid and yields a session without lines.
func NewCountSession(tenantID uuid.UUID, title, description string, filter SessionFilter, createdBy uuid.UUID, items []SnapshotItem) (*CountSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Session title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Session title cannot exceed 200 characters")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Creator ID cannot be empty")
	}

	s := &CountSession{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, createdBy),
		Title:               title,
		Description:         description,
		Status:              SessionStatusOpen,
		Filter:              filter,
		Lines:               make([]CountLine, 0, len(items)),
	}

	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ArticleID]; dup {
			continue
		}
		seen[item.ArticleID] = struct{}{}
		s.Lines = append(s.Lines, NewCountLine(tenantID, s.ID, item))
	}

	s.AddDomainEvent(NewCountSessionCreatedEvent(s))

	return s, nil
}

// AddLine snapshots one more article into an open session.
// The expected quantity is the ledger value at the time of this call.
func (s *CountSession) AddLine(item SnapshotItem) (*CountLine, error) {
	if s.Status != SessionStatusOpen {
		return nil, shared.NewDomainError(shared.CodeSessionClosed, "Lines can only be added while the session is open")
	}
	if s.HasArticle(item.ArticleID) {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Article is already part of this session")
	}

	line := NewCountLine(s.TenantID, s.ID, item)
	s.Lines = append(s.Lines, line)
	s.Touch(time.Now())

	return &s.Lines[len(s.Lines)-1], nil
}

// HasArticle returns true if the article already has a line in this session
func (s *CountSession) HasArticle(articleID uuid.UUID) bool {
	for i := range s.Lines {
		if s.Lines[i].ArticleID == articleID {
			return true
		}
	}
	return false
}

// Advance moves the session to target, which must be the direct successor of
// the current status. Approval additionally requires an actor allowed to approve.
func (s *CountSession) Advance(target SessionStatus, actor Actor) error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Session is %s and cannot change status", s.Status))
	}
	if !s.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot transition from %s to %s", s.Status, target))
	}
	if actor.UserID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Acting user cannot be empty")
	}

	now := time.Now()
	switch target {
	case SessionStatusInProgress:
		s.StartedAt = &now
	case SessionStatusCompleted:
		s.CompletedAt = &now
	case SessionStatusApproved:
		if !actor.CanApprove {
			return shared.NewDomainError(shared.CodeForbidden, "Approving a count session requires elevated privileges")
		}
		approver := actor.UserID
		s.ApprovedBy = &approver
		s.ApprovedAt = &now
	}

	from := s.Status
	s.Status = target
	s.Touch(now)

	s.AddDomainEvent(NewCountSessionStatusChangedEvent(s, from, actor.UserID))

	return nil
}

// AcceptsCounts returns true while counts may be recorded against the session's lines
func (s *CountSession) AcceptsCounts() bool {
	return s.Status.AcceptsCounts()
}

// EnsureDeletable returns NOT_DELETABLE unless the session is still open
func (s *CountSession) EnsureDeletable() error {
	if s.Status != SessionStatusOpen {
		return shared.NewDomainError(shared.CodeNotDeletable,
			fmt.Sprintf("Count session in status %s cannot be deleted", s.Status))
	}
	return nil
}

// MarkDeleted checks that the session may be deleted and records the deletion event
func (s *CountSession) MarkDeleted(deletedBy uuid.UUID) error {
	if err := s.EnsureDeletable(); err != nil {
		return err
	}
	s.AddDomainEvent(NewCountSessionDeletedEvent(s, deletedBy))
	return nil
}

// Summary derives the session rollups from its current lines
func (s *CountSession) Summary() Summary {
	return Summarize(s.Lines)
}

// FindLine returns the line with the given ID
func (s *CountSession) FindLine(lineID uuid.UUID) (*CountLine, error) {
	for i := range s.Lines {
		if s.Lines[i].ID == lineID {
			return &s.Lines[i], nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, "Count line not found in session")
}
