package counting

import (
	"context"
	"fmt"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// SessionService manages the count session lifecycle
type SessionService struct {
	txScope        TransactionScope
	sessionRepo    counting.CountSessionRepository
	eventPublisher shared.EventPublisher
}

// NewSessionService creates a new SessionService
func NewSessionService(txScope TransactionScope, sessionRepo counting.CountSessionRepository) *SessionService {
	return &SessionService{
		txScope:     txScope,
		sessionRepo: sessionRepo,
	}
}

// SetEventPublisher sets the publisher used for domain events after commit
func (s *SessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateSession opens a session and snapshots every matching article's
// current stock into one line each. The snapshot read and the inserts share
// one transaction, so either all lines exist or the session does not.
func (s *SessionService) CreateSession(ctx context.Context, tenantID uuid.UUID, req CreateSessionRequest, createdBy uuid.UUID) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "count_session", "create")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	filter := counting.SessionFilter{Location: req.Location}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid category ID")
		}
		filter.CategoryID = &categoryID
	}

	var session *counting.CountSession
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		items, err := repos.SnapshotReader().FindMatching(ctx, tenantID, filter)
		if err != nil {
			return err
		}

		cs, err := counting.NewCountSession(tenantID, req.Title, req.Description, filter, createdBy, items)
		if err != nil {
			return err
		}
		if err := repos.SessionRepo().Create(ctx, cs); err != nil {
			return err
		}

		session = cs
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, session)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, session.ID.String(),
		telemetry.SpanAttrLineCount, len(session.Lines),
	)
	telemetry.SetOK(span)

	resp := ToSessionResponse(session, true)
	return &resp, nil
}

// GetSession returns a session with its lines and summary
func (s *SessionService) GetSession(ctx context.Context, tenantID, id uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session, true)
	return &resp, nil
}

// ListSessions returns a page of sessions with their summaries
func (s *SessionService) ListSessions(ctx context.Context, tenantID uuid.UUID, filter SessionListFilter) ([]SessionResponse, int64, error) {
	domainFilter := counting.SessionListFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "created_at"
		domainFilter.OrderDir = "desc"
	}
	if filter.Status != "" {
		status, err := parseStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Status = &status
	}

	sessions, total, err := s.sessionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = ToSessionResponse(&sessions[i], false)
	}
	return responses, total, nil
}

// AdvanceStatus moves a session one step along open, in_progress, completed, approved
func (s *SessionService) AdvanceStatus(ctx context.Context, tenantID, id uuid.UUID, req AdvanceStatusRequest, actor counting.Actor) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "count_session", "advance_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSessionID, id.String(),
		telemetry.SpanAttrTargetStatus, req.Status,
	)

	target := counting.SessionStatus(req.Status)

	var session *counting.CountSession
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cs, err := repos.SessionRepo().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := cs.Advance(target, actor); err != nil {
			return err
		}
		if err := repos.SessionRepo().SaveWithLock(ctx, cs); err != nil {
			return err
		}
		session = cs
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, session)
	telemetry.SetOK(span)

	resp := ToSessionResponse(session, true)
	return &resp, nil
}

// AddLine snapshots one more article into an open session
func (s *SessionService) AddLine(ctx context.Context, tenantID, sessionID uuid.UUID, req AddLineRequest) (*LineResponse, error) {
	articleID, err := uuid.Parse(req.ArticleID)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid article ID")
	}

	var line *counting.CountLine
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cs, err := repos.SessionRepo().FindByIDForUpdate(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		item, err := repos.SnapshotReader().FindByArticle(ctx, tenantID, articleID)
		if err != nil {
			return err
		}
		l, err := cs.AddLine(*item)
		if err != nil {
			return err
		}
		if err := repos.SessionRepo().AddLine(ctx, l); err != nil {
			return err
		}
		if err := repos.SessionRepo().SaveWithLock(ctx, cs); err != nil {
			return err
		}
		line = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToLineResponse(line)
	return &resp, nil
}

// DeleteSession removes an open session and all of its lines
func (s *SessionService) DeleteSession(ctx context.Context, tenantID, id, deletedBy uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "count_session", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSessionID, id.String(),
	)

	var session *counting.CountSession
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cs, err := repos.SessionRepo().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := cs.MarkDeleted(deletedBy); err != nil {
			return err
		}
		if err := repos.SessionRepo().Delete(ctx, tenantID, id); err != nil {
			return err
		}
		session = cs
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.publishDomainEvents(ctx, session)
	telemetry.SetOK(span)
	return nil
}

func (s *SessionService) publishDomainEvents(ctx context.Context, session *counting.CountSession) {
	events := session.GetDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	session.ClearDomainEvents()
}

// parseStatus converts a list filter value into a known SessionStatus
func parseStatus(value string) (counting.SessionStatus, error) {
	status := counting.SessionStatus(value)
	if !status.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown session status %q", value))
	}
	return status, nil
}
