package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	appcount "github.com/erp/stockcount/internal/application/counting"
	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/cache"
	"github.com/erp/stockcount/internal/infrastructure/logger"
	"github.com/erp/stockcount/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIdempotentHandler(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	inner := newTestHandler("StockMoved")
	h := NewIdempotentHandler(inner, store, "archive", time.Hour, zap.NewNop())
	assert.Equal(t, []string{"StockMoved"}, h.EventTypes())

	ctx := context.Background()
	event := newTestEvent("StockMoved")

	require.NoError(t, h.Handle(ctx, event))
	require.NoError(t, h.Handle(ctx, event))
	assert.Equal(t, 1, inner.count())

	t.Run("a failure releases the key for redelivery", func(t *testing.T) {
		failing := newTestHandler("StockMoved")
		failing.err = errors.New("s3 down")
		fh := NewIdempotentHandler(failing, store, "failing", time.Hour, zap.NewNop())

		other := newTestEvent("StockMoved")
		assert.Error(t, fh.Handle(ctx, other))

		failing.err = nil
		require.NoError(t, fh.Handle(ctx, other))
		assert.Equal(t, 2, failing.count())
		assert.Equal(t, IdempotencyStats{EventsProcessed: 1, EventsFailed: 1}, fh.Stats())
	})

	t.Run("prefixes keep handlers apart", func(t *testing.T) {
		second := newTestHandler("StockMoved")
		sh := NewIdempotentHandler(second, store, "audit", time.Hour, zap.NewNop())
		require.NoError(t, sh.Handle(ctx, event))
		assert.Equal(t, 1, second.count())
	})

	assert.Equal(t, IdempotencyStats{EventsProcessed: 1, EventsDuplicate: 1}, h.Stats())
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewAuditLogHandler(zap.New(core))
	assert.Nil(t, h.EventTypes())

	ctx := logger.WithRequestID(context.Background(), zap.NewNop(), "req-1")
	event := newTestEvent("CountRecorded")
	require.NoError(t, h.Handle(ctx, event))

	entries := logs.FilterMessage("Domain event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)

	fields := entries[0].ContextMap()
	assert.Equal(t, "CountRecorded", fields["event_type"])
	assert.Equal(t, event.AggregateID().String(), fields["aggregate_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Contains(t, fields, "payload")
}

type stubSessionReader struct {
	session *appcount.SessionResponse
	err     error
	calls   int
}

func (r *stubSessionReader) GetSession(_ context.Context, _, _ uuid.UUID) (*appcount.SessionResponse, error) {
	r.calls++
	return r.session, r.err
}

func approvedEvent(t *testing.T, to counting.SessionStatus) *counting.CountSessionStatusChangedEvent {
	t.Helper()
	session, err := counting.NewCountSession(uuid.New(), "Year end", "", counting.SessionFilter{}, uuid.New(), nil)
	require.NoError(t, err)
	session.Status = to
	return counting.NewCountSessionStatusChangedEvent(session, counting.SessionStatusCompleted, uuid.New())
}

func TestSessionArchiveHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads approved sessions", func(t *testing.T) {
		event := approvedEvent(t, counting.SessionStatusApproved)
		reader := &stubSessionReader{session: &appcount.SessionResponse{
			ID:     event.SessionID,
			Title:  "Year end",
			Status: "approved",
			Lines:  []appcount.LineResponse{{ArticleCode: "A-100"}},
		}}
		objects := storage.NewMemoryObjectStore()
		h := NewSessionArchiveHandler(reader, objects, zap.NewNop())
		h.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

		require.NoError(t, h.Handle(ctx, event))

		key := ArchiveKey(event.TenantID(), event.SessionID, event.OccurredAt())
		obj, ok := objects.Get(key)
		require.True(t, ok, "expected object under %s", key)
		assert.Equal(t, "application/json", obj.ContentType)

		var archive SessionArchive
		require.NoError(t, json.Unmarshal(obj.Body, &archive))
		assert.Equal(t, event.ActorID, archive.ApprovedBy)
		assert.Equal(t, "Year end", archive.Session.Title)
		assert.Len(t, archive.Session.Lines, 1)
		assert.True(t, archive.ArchivedAt.Equal(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("ignores other transitions and events", func(t *testing.T) {
		reader := &stubSessionReader{}
		objects := storage.NewMemoryObjectStore()
		h := NewSessionArchiveHandler(reader, objects, zap.NewNop())

		require.NoError(t, h.Handle(ctx, approvedEvent(t, counting.SessionStatusCompleted)))
		require.NoError(t, h.Handle(ctx, newTestEvent(counting.EventTypeCountSessionStatusChanged)))
		assert.Zero(t, reader.calls)
		assert.Empty(t, objects.Objects())
	})

	t.Run("load failures are returned", func(t *testing.T) {
		reader := &stubSessionReader{err: shared.ErrNotFound}
		h := NewSessionArchiveHandler(reader, storage.NewMemoryObjectStore(), zap.NewNop())
		err := h.Handle(ctx, approvedEvent(t, counting.SessionStatusApproved))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestArchiveKey(t *testing.T) {
	tenant := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	session := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	at := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("CET", 3600))

	assert.Equal(t,
		"11111111-1111-1111-1111-111111111111/2026/03/22222222-2222-2222-2222-222222222222.json",
		ArchiveKey(tenant, session, at))
}
