package inventory

import (
	"context"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// StockLedgerService applies stock movements and serves stock levels.
// Movements on one article are serialized by a row lock taken inside the
// transaction scope, with an optimistic version check on write.
type StockLedgerService struct {
	txScope        TransactionScope
	stockRepo      inventory.StockLevelRepository
	movementRepo   inventory.StockMovementRepository
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
}

// NewStockLedgerService creates a new StockLedgerService
func NewStockLedgerService(
	txScope TransactionScope,
	stockRepo inventory.StockLevelRepository,
	movementRepo inventory.StockMovementRepository,
) *StockLedgerService {
	return &StockLedgerService{
		txScope:        txScope,
		stockRepo:      stockRepo,
		movementRepo:   movementRepo,
		idempotencyTTL: shared.DefaultIdempotencyTTL,
	}
}

// SetEventPublisher sets the publisher used for domain events after commit
func (s *StockLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling for movement posting
func (s *StockLedgerService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// ApplyMovement applies a checkin, checkout or adjustment to an article's stock
// and journals it. A checkout larger than the current stock fails with
// INSUFFICIENT_STOCK and changes nothing.
func (s *StockLedgerService) ApplyMovement(ctx context.Context, tenantID, articleID uuid.UUID, req ApplyMovementRequest) (*ApplyMovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_ledger", "apply_movement")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrArticleID, articleID.String(),
		telemetry.SpanAttrMovementType, req.Type,
		telemetry.SpanAttrQuantity, req.Quantity,
	)

	input := inventory.MovementInput{
		Type:      inventory.MovementType(req.Type),
		Quantity:  req.Quantity,
		Reference: req.Reference,
		Note:      req.Note,
		CreatedBy: req.OperatorID,
	}
	if err := input.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	release, err := s.claimIdempotencyKey(ctx, tenantID, req.IdempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var level *inventory.StockLevel
	var movement *inventory.StockMovement
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		l, err := repos.StockLevelRepo().FindByArticleForUpdate(ctx, tenantID, articleID)
		if err != nil {
			return err
		}

		m, err := l.Apply(input)
		if err != nil {
			return err
		}

		if err := repos.StockLevelRepo().SaveWithLock(ctx, l); err != nil {
			return err
		}
		if err := repos.MovementRepo().Create(ctx, m); err != nil {
			return err
		}

		level, movement = l, m
		return nil
	})
	if err != nil {
		release()
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, level)

	telemetry.SetAttribute(span, telemetry.SpanAttrStockAfter, level.CurrentStock)
	telemetry.SetOK(span)

	return &ApplyMovementResponse{
		Movement: ToMovementResponse(movement),
		Stock:    ToStockLevelResponse(level),
	}, nil
}

// GetStockLevel returns the current stock of an article
func (s *StockLedgerService) GetStockLevel(ctx context.Context, tenantID, articleID uuid.UUID) (*StockLevelResponse, error) {
	level, err := s.stockRepo.FindByArticle(ctx, tenantID, articleID)
	if err != nil {
		return nil, err
	}
	resp := ToStockLevelResponse(level)
	return &resp, nil
}

// ListMovements returns the movement journal of an article, newest first
func (s *StockLedgerService) ListMovements(ctx context.Context, tenantID, articleID uuid.UUID, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if _, err := s.stockRepo.FindByArticle(ctx, tenantID, articleID); err != nil {
		return nil, 0, err
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()

	movements, total, err := s.movementRepo.FindByArticle(ctx, tenantID, articleID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToMovementResponses(movements), total, nil
}

// claimIdempotencyKey records key in the idempotency store. The returned
// release func forgets the key again so a failed request can be retried.
func (s *StockLedgerService) claimIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (func(), error) {
	noop := func() {}
	if key == "" || s.idempotency == nil {
		return noop, nil
	}

	scoped := "stock_movement:" + tenantID.String() + ":" + key
	fresh, err := s.idempotency.MarkProcessed(ctx, scoped, s.idempotencyTTL)
	if err != nil {
		return noop, err
	}
	if !fresh {
		return noop, shared.NewDomainError(shared.CodeDuplicateRequest, "A movement with this idempotency key was already posted")
	}

	return func() {
		_ = s.idempotency.Release(context.WithoutCancel(ctx), scoped)
	}, nil
}

// publishDomainEvents publishes and clears events collected on the stock level.
// Publishing failures are logged by the bus and never fail the movement.
func (s *StockLedgerService) publishDomainEvents(ctx context.Context, level *inventory.StockLevel) {
	events := level.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		level.ClearDomainEvents()
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	level.ClearDomainEvents()
}
