package counting

import (
	"context"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// LineService records physical counts. It never touches the stock ledger.
type LineService struct {
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewLineService creates a new LineService
func NewLineService(txScope TransactionScope) *LineService {
	return &LineService{txScope: txScope}
}

// SetEventPublisher sets the publisher used for domain events after commit
func (s *LineService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RecordCount stores a counted quantity on a line and derives its deviation.
// A later count replaces an earlier one. Counts are accepted while the
// session is open or in progress.
//
// Locks are taken session first, then line, matching the order used by
// status changes and deletion.
func (s *LineService) RecordCount(ctx context.Context, tenantID, lineID uuid.UUID, req RecordCountRequest, countedBy uuid.UUID) (*LineResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "count_line", "record_count")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrLineID, lineID.String(),
	)

	if req.CountedQuantity == nil {
		err := shared.NewDomainError(shared.CodeInvalidQuantity, "Counted quantity is required")
		telemetry.RecordError(span, err)
		return nil, err
	}
	counted := *req.CountedQuantity
	telemetry.SetAttribute(span, telemetry.SpanAttrCountedQuantity, counted)

	var line *counting.CountLine
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		probe, err := repos.LineRepo().FindByID(ctx, tenantID, lineID)
		if err != nil {
			return err
		}

		session, err := repos.SessionRepo().FindHeaderForShare(ctx, tenantID, probe.SessionID)
		if err != nil {
			return err
		}
		if !session.AcceptsCounts() {
			return shared.NewDomainError(shared.CodeSessionClosed, "Counts can only be recorded while the session is open or in progress")
		}

		l, err := repos.LineRepo().FindByIDForUpdate(ctx, tenantID, lineID)
		if err != nil {
			return err
		}
		if err := l.RecordCount(counted, req.Notes, countedBy); err != nil {
			return err
		}
		if err := repos.LineRepo().SaveCount(ctx, l); err != nil {
			return err
		}

		line = l
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, counting.NewCountRecordedEvent(line))
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrDeviation, line.DeviationOrZero())
	telemetry.SetOK(span)

	resp := ToLineResponse(line)
	return &resp, nil
}
