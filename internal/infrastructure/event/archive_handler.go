package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appcount "github.com/erp/stockcount/internal/application/counting"
	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionReader loads the read model of a count session
type SessionReader interface {
	GetSession(ctx context.Context, tenantID, id uuid.UUID) (*appcount.SessionResponse, error)
}

// ObjectWriter stores a document under a key
type ObjectWriter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// SessionArchive is the document written for an approved session
type SessionArchive struct {
	ArchivedAt time.Time                `json:"archived_at"`
	ApprovedBy uuid.UUID                `json:"approved_by"`
	Session    appcount.SessionResponse `json:"session"`
}

// SessionArchiveHandler uploads the full read model of a session, lines and
// summary included, once the session has been approved
type SessionArchiveHandler struct {
	sessions SessionReader
	objects  ObjectWriter
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionArchiveHandler creates the archive handler
func NewSessionArchiveHandler(sessions SessionReader, objects ObjectWriter, logger *zap.Logger) *SessionArchiveHandler {
	return &SessionArchiveHandler{
		sessions: sessions,
		objects:  objects,
		logger:   logger,
		now:      time.Now,
	}
}

// EventTypes implements shared.EventHandler
func (h *SessionArchiveHandler) EventTypes() []string {
	return []string{counting.EventTypeCountSessionStatusChanged}
}

// Handle archives the session when the event moves it to approved
func (h *SessionArchiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*counting.CountSessionStatusChangedEvent)
	if !ok || changed.ToStatus != counting.SessionStatusApproved {
		return nil
	}

	session, err := h.sessions.GetSession(ctx, changed.TenantID(), changed.SessionID)
	if err != nil {
		return fmt.Errorf("load session %s for archive: %w", changed.SessionID, err)
	}

	body, err := json.Marshal(SessionArchive{
		ArchivedAt: h.now().UTC(),
		ApprovedBy: changed.ActorID,
		Session:    *session,
	})
	if err != nil {
		return fmt.Errorf("encode session archive: %w", err)
	}

	key := ArchiveKey(changed.TenantID(), changed.SessionID, changed.OccurredAt())
	if err := h.objects.Put(ctx, key, body, "application/json"); err != nil {
		return err
	}

	h.logger.Info("Count session archived",
		zap.String("session_id", changed.SessionID.String()),
		zap.String("key", key),
		zap.Int("lines", len(session.Lines)),
	)
	return nil
}

// ArchiveKey returns the object key of a session archive:
// <tenant>/<yyyy>/<mm>/<session>.json, dated by approval time
func ArchiveKey(tenantID, sessionID uuid.UUID, approvedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", tenantID, approvedAt.UTC().Format("2006/01"), sessionID)
}

var _ shared.EventHandler = (*SessionArchiveHandler)(nil)
