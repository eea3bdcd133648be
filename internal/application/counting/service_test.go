package counting

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// memoryStore implements the session, line and snapshot repositories in memory.
// Sessions are stored without lines; lines live in their own map like rows do.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]counting.CountSession
	lines    map[uuid.UUID]counting.CountLine
	articles []counting.SnapshotItem
}

func newMemoryStore(articles ...counting.SnapshotItem) *memoryStore {
	return &memoryStore{
		sessions: make(map[uuid.UUID]counting.CountSession),
		lines:    make(map[uuid.UUID]counting.CountLine),
		articles: articles,
	}
}

func (m *memoryStore) load(tenantID, id uuid.UUID, withLines bool) (*counting.CountSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Count session not found")
	}
	s.Lines = nil
	if withLines {
		for _, l := range m.lines {
			if l.SessionID == id {
				s.Lines = append(s.Lines, l)
			}
		}
		sort.Slice(s.Lines, func(i, j int) bool { return s.Lines[i].ArticleCode < s.Lines[j].ArticleCode })
	}
	return &s, nil
}

func (m *memoryStore) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*counting.CountSession, error) {
	return m.load(tenantID, id, true)
}

func (m *memoryStore) FindByIDForUpdate(_ context.Context, tenantID, id uuid.UUID) (*counting.CountSession, error) {
	return m.load(tenantID, id, true)
}

func (m *memoryStore) FindHeaderForShare(_ context.Context, tenantID, id uuid.UUID) (*counting.CountSession, error) {
	return m.load(tenantID, id, false)
}

func (m *memoryStore) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter counting.SessionListFilter) ([]counting.CountSession, int64, error) {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0)
	for id, s := range m.sessions {
		if s.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		ids = append(ids, id)
	}
	m.mu.Unlock()

	result := make([]counting.CountSession, 0, len(ids))
	for _, id := range ids {
		s, err := m.load(tenantID, id, true)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, int64(len(result)), nil
}

func (m *memoryStore) Create(_ context.Context, session *counting.CountSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	header := *session
	header.Lines = nil
	header.ClearDomainEvents()
	m.sessions[session.ID] = header
	for _, l := range session.Lines {
		m.lines[l.ID] = l
	}
	return nil
}

func (m *memoryStore) SaveWithLock(_ context.Context, session *counting.CountSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sessions[session.ID]
	if !ok || current.Version != session.Version-1 {
		return shared.ErrConcurrentModification
	}
	header := *session
	header.Lines = nil
	header.ClearDomainEvents()
	m.sessions[session.ID] = header
	return nil
}

func (m *memoryStore) AddLine(_ context.Context, line *counting.CountLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[line.ID] = *line
	return nil
}

func (m *memoryStore) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	for lineID, l := range m.lines {
		if l.SessionID == id {
			delete(m.lines, lineID)
		}
	}
	return nil
}

func (m *memoryStore) FindMatching(_ context.Context, _ uuid.UUID, filter counting.SessionFilter) ([]counting.SnapshotItem, error) {
	result := make([]counting.SnapshotItem, 0)
	for _, a := range m.articles {
		if filter.Matches(a.CategoryID, a.Location) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memoryStore) FindByArticle(_ context.Context, _ uuid.UUID, articleID uuid.UUID) (*counting.SnapshotItem, error) {
	for _, a := range m.articles {
		if a.ArticleID == articleID {
			item := a
			return &item, nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, "Article not found")
}

// lineRepo serves count lines from the same store
type lineRepo struct{ *memoryStore }

func (r lineRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*counting.CountLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	if !ok || l.TenantID != tenantID {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Count line not found")
	}
	return &l, nil
}

func (r lineRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*counting.CountLine, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r lineRepo) SaveCount(_ context.Context, line *counting.CountLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[line.ID] = *line
	return nil
}

type countFixture struct {
	store     *memoryStore
	sessions  *SessionService
	lines     *LineService
	publisher *MockEventPublisher
	tenantID  uuid.UUID
	userID    uuid.UUID
	articles  []counting.SnapshotItem
}

func newCountFixture(t *testing.T) *countFixture {
	t.Helper()
	hardware := uuid.New()
	articles := []counting.SnapshotItem{
		{ArticleID: uuid.New(), ArticleCode: "A", ArticleName: "Bolt", CategoryID: &hardware, Location: "Hall 1", UnitPrice: decimal.NewFromInt(2), CurrentStock: 50},
		{ArticleID: uuid.New(), ArticleCode: "B", ArticleName: "Nut", CategoryID: &hardware, Location: "Hall 2", UnitPrice: decimal.NewFromFloat(0.5), CurrentStock: 10},
		{ArticleID: uuid.New(), ArticleCode: "C", ArticleName: "Glue", Location: "Hall 1", UnitPrice: decimal.NewFromInt(7), CurrentStock: 0},
	}

	store := newMemoryStore(articles...)
	scope := NewNoOpTransactionScope(store, lineRepo{store}, store)
	publisher := &MockEventPublisher{}

	sessions := NewSessionService(scope, store)
	sessions.SetEventPublisher(publisher)
	lines := NewLineService(scope)
	lines.SetEventPublisher(publisher)

	return &countFixture{
		store:     store,
		sessions:  sessions,
		lines:     lines,
		publisher: publisher,
		tenantID:  uuid.New(),
		userID:    uuid.New(),
		articles:  articles,
	}
}

func (f *countFixture) createSession(t *testing.T, req CreateSessionRequest) *SessionResponse {
	t.Helper()
	resp, err := f.sessions.CreateSession(context.Background(), f.tenantID, req, f.userID)
	require.NoError(t, err)
	return resp
}

func (f *countFixture) advance(t *testing.T, id uuid.UUID, statuses ...counting.SessionStatus) {
	t.Helper()
	for _, status := range statuses {
		_, err := f.sessions.AdvanceStatus(context.Background(), f.tenantID, id, AdvanceStatusRequest{Status: string(status)},
			counting.Actor{UserID: f.userID, CanApprove: true})
		require.NoError(t, err)
	}
}

func lineFor(resp *SessionResponse, code string) LineResponse {
	for _, l := range resp.Lines {
		if l.ArticleCode == code {
			return l
		}
	}
	return LineResponse{}
}

func TestSessionService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots all articles", func(t *testing.T) {
		f := newCountFixture(t)

		resp := f.createSession(t, CreateSessionRequest{Title: "Year end"})

		assert.Equal(t, "open", resp.Status)
		require.Len(t, resp.Lines, 3)
		assert.Equal(t, int64(50), lineFor(resp, "A").ExpectedQuantity)
		assert.Nil(t, lineFor(resp, "A").CountedQuantity)
		assert.Equal(t, 3, resp.Summary.TotalItems)
		assert.Equal(t, 0, resp.Summary.CompletedItems)
		assert.True(t, resp.Summary.TotalDeviationValue.IsZero())
		assert.Len(t, f.publisher.GetEventsByType(counting.EventTypeCountSessionCreated), 1)
	})

	t.Run("filters by category and location", func(t *testing.T) {
		f := newCountFixture(t)

		resp := f.createSession(t, CreateSessionRequest{
			Title:      "Hall 1 hardware",
			CategoryID: f.articles[0].CategoryID.String(),
			Location:   "hall 1",
		})

		require.Len(t, resp.Lines, 1)
		assert.Equal(t, "A", resp.Lines[0].ArticleCode)
	})

	t.Run("empty selection yields empty session", func(t *testing.T) {
		f := newCountFixture(t)

		resp := f.createSession(t, CreateSessionRequest{Title: "Nothing", Location: "Basement"})

		assert.Empty(t, resp.Lines)
		assert.Equal(t, 0, resp.Summary.TotalItems)
		assert.False(t, resp.Summary.HasDeviations)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		f := newCountFixture(t)

		_, err := f.sessions.CreateSession(ctx, f.tenantID, CreateSessionRequest{Title: "  "}, f.userID)

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Empty(t, f.store.sessions)
	})

	t.Run("rejects invalid category", func(t *testing.T) {
		f := newCountFixture(t)

		_, err := f.sessions.CreateSession(ctx, f.tenantID, CreateSessionRequest{Title: "X", CategoryID: "bad"}, f.userID)

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestSessionService_AdvanceStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("full lifecycle", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})

		f.advance(t, session.ID, counting.SessionStatusInProgress, counting.SessionStatusCompleted)
		approver := uuid.New()
		resp, err := f.sessions.AdvanceStatus(ctx, f.tenantID, session.ID, AdvanceStatusRequest{Status: "approved"},
			counting.Actor{UserID: approver, CanApprove: true})

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		assert.NotNil(t, resp.CompletedAt)
		require.NotNil(t, resp.ApprovedBy)
		assert.Equal(t, approver, *resp.ApprovedBy)
		assert.NotNil(t, resp.ApprovedAt)
		assert.Len(t, f.publisher.GetEventsByType(counting.EventTypeCountSessionStatusChanged), 3)
	})

	t.Run("skipping a status is an invalid transition", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})

		_, err := f.sessions.AdvanceStatus(ctx, f.tenantID, session.ID, AdvanceStatusRequest{Status: "completed"},
			counting.Actor{UserID: f.userID})

		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		got, err := f.sessions.GetSession(ctx, f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "open", got.Status)
	})

	t.Run("approval needs privilege", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})
		f.advance(t, session.ID, counting.SessionStatusInProgress, counting.SessionStatusCompleted)

		_, err := f.sessions.AdvanceStatus(ctx, f.tenantID, session.ID, AdvanceStatusRequest{Status: "approved"},
			counting.Actor{UserID: f.userID, CanApprove: false})

		assert.True(t, errors.Is(err, shared.ErrForbidden))
		got, err := f.sessions.GetSession(ctx, f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "completed", got.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})

		_, err := f.sessions.AdvanceStatus(ctx, f.tenantID, session.ID, AdvanceStatusRequest{Status: "archived"},
			counting.Actor{UserID: f.userID})

		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		got, err := f.sessions.GetSession(ctx, f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "open", got.Status)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newCountFixture(t)

		_, err := f.sessions.AdvanceStatus(ctx, f.tenantID, uuid.New(), AdvanceStatusRequest{Status: "in_progress"},
			counting.Actor{UserID: f.userID})

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestSessionService_DeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("open session is deleted with its lines", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Scratch"})

		err := f.sessions.DeleteSession(ctx, f.tenantID, session.ID, f.userID)

		require.NoError(t, err)
		assert.Empty(t, f.store.lines)
		_, err = f.sessions.GetSession(ctx, f.tenantID, session.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.Len(t, f.publisher.GetEventsByType(counting.EventTypeCountSessionDeleted), 1)
	})

	t.Run("started session is not deletable", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Busy"})
		f.advance(t, session.ID, counting.SessionStatusInProgress)

		err := f.sessions.DeleteSession(ctx, f.tenantID, session.ID, f.userID)

		assert.True(t, errors.Is(err, shared.ErrNotDeletable))
		assert.Len(t, f.store.lines, 3)
	})
}

func TestSessionService_AddLine(t *testing.T) {
	ctx := context.Background()

	t.Run("adds an article to an open session", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Hall 2", Location: "Hall 2"})
		require.Len(t, session.Lines, 1)

		line, err := f.sessions.AddLine(ctx, f.tenantID, session.ID, AddLineRequest{ArticleID: f.articles[2].ArticleID.String()})

		require.NoError(t, err)
		assert.Equal(t, "C", line.ArticleCode)
		got, err := f.sessions.GetSession(ctx, f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Summary.TotalItems)
	})

	t.Run("duplicate article", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "All"})

		_, err := f.sessions.AddLine(ctx, f.tenantID, session.ID, AddLineRequest{ArticleID: f.articles[0].ArticleID.String()})

		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
	})

	t.Run("session already started", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Hall 2", Location: "Hall 2"})
		f.advance(t, session.ID, counting.SessionStatusInProgress)

		_, err := f.sessions.AddLine(ctx, f.tenantID, session.ID, AddLineRequest{ArticleID: f.articles[2].ArticleID.String()})

		assert.True(t, errors.Is(err, shared.ErrSessionClosed))
	})
}

func TestSessionService_ListSessions(t *testing.T) {
	ctx := context.Background()
	f := newCountFixture(t)
	first := f.createSession(t, CreateSessionRequest{Title: "First"})
	f.createSession(t, CreateSessionRequest{Title: "Second"})
	f.advance(t, first.ID, counting.SessionStatusInProgress)

	all, total, err := f.sessions.ListSessions(ctx, f.tenantID, SessionListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, all[0].Lines)
	assert.Equal(t, 3, all[0].Summary.TotalItems)

	started, total, err := f.sessions.ListSessions(ctx, f.tenantID, SessionListFilter{Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first.ID, started[0].ID)

	_, _, err = f.sessions.ListSessions(ctx, f.tenantID, SessionListFilter{Status: "lost"})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestLineService_RecordCount(t *testing.T) {
	ctx := context.Background()
	qty := func(v int64) *int64 { return &v }

	t.Run("deviations roll up into the summary", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})
		f.advance(t, session.ID, counting.SessionStatusInProgress)

		a, err := f.lines.RecordCount(ctx, f.tenantID, lineFor(session, "A").ID, RecordCountRequest{CountedQuantity: qty(48)}, f.userID)
		require.NoError(t, err)
		assert.Equal(t, int64(-2), *a.Deviation)
		require.NotNil(t, a.CountedBy)
		assert.Equal(t, f.userID, *a.CountedBy)
		assert.NotNil(t, a.CountedAt)

		b, err := f.lines.RecordCount(ctx, f.tenantID, lineFor(session, "B").ID, RecordCountRequest{CountedQuantity: qty(13)}, f.userID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), *b.Deviation)

		got, err := f.sessions.GetSession(ctx, f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Summary.TotalItems)
		assert.Equal(t, 2, got.Summary.CompletedItems)
		assert.Equal(t, int64(5), got.Summary.TotalDeviations)
		assert.True(t, got.Summary.HasDeviations)
		assert.True(t, decimal.NewFromFloat(5.5).Equal(got.Summary.TotalDeviationValue))
		assert.Len(t, f.publisher.GetEventsByType(counting.EventTypeCountRecorded), 2)
	})

	t.Run("last write wins and zero is a valid count", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})
		lineID := lineFor(session, "B").ID
		other := uuid.New()

		_, err := f.lines.RecordCount(ctx, f.tenantID, lineID, RecordCountRequest{CountedQuantity: qty(4)}, f.userID)
		require.NoError(t, err)
		resp, err := f.lines.RecordCount(ctx, f.tenantID, lineID, RecordCountRequest{CountedQuantity: qty(0), Notes: "shelf empty"}, other)

		require.NoError(t, err)
		assert.Equal(t, int64(0), *resp.CountedQuantity)
		assert.Equal(t, int64(-10), *resp.Deviation)
		assert.Equal(t, other, *resp.CountedBy)
		assert.Equal(t, "shelf empty", resp.Notes)
	})

	t.Run("matching count has no deviation", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})

		_, err := f.lines.RecordCount(ctx, f.tenantID, lineFor(session, "A").ID, RecordCountRequest{CountedQuantity: qty(50)}, f.userID)
		require.NoError(t, err)

		got, err := f.sessions.GetSession(ctx, f.tenantID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Summary.CompletedItems)
		assert.False(t, got.Summary.HasDeviations)
	})

	t.Run("negative count is rejected and line unchanged", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})
		lineID := lineFor(session, "A").ID

		_, err := f.lines.RecordCount(ctx, f.tenantID, lineID, RecordCountRequest{CountedQuantity: qty(-1)}, f.userID)

		assert.True(t, errors.Is(err, shared.ErrInvalidQuantity))
		assert.Nil(t, f.store.lines[lineID].CountedQuantity)
	})

	t.Run("missing quantity", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})

		_, err := f.lines.RecordCount(ctx, f.tenantID, lineFor(session, "A").ID, RecordCountRequest{}, f.userID)

		assert.True(t, errors.Is(err, shared.ErrInvalidQuantity))
	})

	t.Run("completed session rejects counts", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})
		f.advance(t, session.ID, counting.SessionStatusInProgress, counting.SessionStatusCompleted)

		_, err := f.lines.RecordCount(ctx, f.tenantID, lineFor(session, "A").ID, RecordCountRequest{CountedQuantity: qty(1)}, f.userID)

		assert.True(t, errors.Is(err, shared.ErrSessionClosed))
	})

	t.Run("counting leaves snapshot source untouched", func(t *testing.T) {
		f := newCountFixture(t)
		session := f.createSession(t, CreateSessionRequest{Title: "Q4"})

		_, err := f.lines.RecordCount(ctx, f.tenantID, lineFor(session, "A").ID, RecordCountRequest{CountedQuantity: qty(7)}, f.userID)
		require.NoError(t, err)

		item, err := f.store.FindByArticle(ctx, f.tenantID, f.articles[0].ArticleID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), item.CurrentStock)
	})

	t.Run("unknown line", func(t *testing.T) {
		f := newCountFixture(t)

		_, err := f.lines.RecordCount(ctx, f.tenantID, uuid.New(), RecordCountRequest{CountedQuantity: qty(1)}, f.userID)

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
