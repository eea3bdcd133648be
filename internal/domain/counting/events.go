package counting

import (
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeCountSession is the aggregate type for count session events
const AggregateTypeCountSession = "CountSession"

// Count session event type constants
const (
	EventTypeCountSessionCreated       = "CountSessionCreated"
	EventTypeCountSessionStatusChanged = "CountSessionStatusChanged"
	EventTypeCountSessionDeleted       = "CountSessionDeleted"
	EventTypeCountRecorded             = "CountRecorded"
)

// CountSessionCreatedEvent is raised when a session has been opened
type CountSessionCreatedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID `json:"session_id"`
	Title     string    `json:"title"`
	LineCount int       `json:"line_count"`
	CreatedBy uuid.UUID `json:"created_by"`
}

// NewCountSessionCreatedEvent creates a new CountSessionCreatedEvent
func NewCountSessionCreatedEvent(s *CountSession) *CountSessionCreatedEvent {
	var createdBy uuid.UUID
	if s.CreatedBy != nil {
		createdBy = *s.CreatedBy
	}
	return &CountSessionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCountSessionCreated, AggregateTypeCountSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		Title:           s.Title,
		LineCount:       len(s.Lines),
		CreatedBy:       createdBy,
	}
}

// CountSessionStatusChangedEvent is raised on every successful status advance
type CountSessionStatusChangedEvent struct {
	shared.BaseDomainEvent
	SessionID  uuid.UUID     `json:"session_id"`
	FromStatus SessionStatus `json:"from_status"`
	ToStatus   SessionStatus `json:"to_status"`
	ActorID    uuid.UUID     `json:"actor_id"`
}

// NewCountSessionStatusChangedEvent creates a new CountSessionStatusChangedEvent
func NewCountSessionStatusChangedEvent(s *CountSession, from SessionStatus, actorID uuid.UUID) *CountSessionStatusChangedEvent {
	return &CountSessionStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCountSessionStatusChanged, AggregateTypeCountSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		FromStatus:      from,
		ToStatus:        s.Status,
		ActorID:         actorID,
	}
}

// CountSessionDeletedEvent is raised when an open session is deleted
type CountSessionDeletedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID `json:"session_id"`
	LineCount int       `json:"line_count"`
	DeletedBy uuid.UUID `json:"deleted_by"`
}

// NewCountSessionDeletedEvent creates a new CountSessionDeletedEvent
func NewCountSessionDeletedEvent(s *CountSession, deletedBy uuid.UUID) *CountSessionDeletedEvent {
	return &CountSessionDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCountSessionDeleted, AggregateTypeCountSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		LineCount:       len(s.Lines),
		DeletedBy:       deletedBy,
	}
}

// CountRecordedEvent is raised when a physical count is stored on a line
type CountRecordedEvent struct {
	shared.BaseDomainEvent
	SessionID       uuid.UUID `json:"session_id"`
	LineID          uuid.UUID `json:"line_id"`
	ArticleID       uuid.UUID `json:"article_id"`
	CountedQuantity int64     `json:"counted_quantity"`
	Deviation       int64     `json:"deviation"`
	CountedBy       uuid.UUID `json:"counted_by"`
}

// NewCountRecordedEvent creates a new CountRecordedEvent
func NewCountRecordedEvent(line *CountLine) *CountRecordedEvent {
	e := &CountRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCountRecorded, AggregateTypeCountSession, line.SessionID, line.TenantID),
		SessionID:       line.SessionID,
		LineID:          line.ID,
		ArticleID:       line.ArticleID,
		Deviation:       line.DeviationOrZero(),
	}
	if line.CountedQuantity != nil {
		e.CountedQuantity = *line.CountedQuantity
	}
	if line.CountedBy != nil {
		e.CountedBy = *line.CountedBy
	}
	return e
}
