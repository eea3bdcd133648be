package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appcount "github.com/erp/stockcount/internal/application/counting"
	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/infrastructure/cache"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/erp/stockcount/internal/infrastructure/persistence"
	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// envelope mirrors dto.Response with a raw data field for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type handlerFixture struct {
	router   *gin.Engine
	jwt      *auth.JWTService
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	ledger := appinv.NewStockLedgerService(
		persistence.NewLedgerTransactionScope(db.DB),
		persistence.NewGormStockLevelRepository(db.DB),
		persistence.NewGormStockMovementRepository(db.DB),
	)
	ledger.SetIdempotencyStore(store, time.Hour)
	articles := appinv.NewArticleService(
		persistence.NewLedgerTransactionScope(db.DB),
		persistence.NewGormArticleRepository(db.DB),
		persistence.NewGormStockLevelRepository(db.DB),
	)
	sessions := appcount.NewSessionService(
		persistence.NewCountTransactionScope(db.DB),
		persistence.NewGormCountSessionRepository(db.DB),
	)
	lines := appcount.NewLineService(persistence.NewCountTransactionScope(db.DB))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "handler-test-secret-32-characters!",
		Expiration: time.Minute,
	})

	articleHandler := NewArticleHandler(articles, ledger)
	sessionHandler := NewCountSessionHandler(sessions)
	lineHandler := NewCountLineHandler(lines)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/unauthenticated/articles", articleHandler.List)

	api := r.Group("/api/v1", middleware.JWTAuth(middleware.JWTMiddlewareConfig{JWTService: jwtService}))
	api.POST("/articles", articleHandler.Register)
	api.GET("/articles", articleHandler.List)
	api.GET("/articles/:id", articleHandler.GetByID)
	api.POST("/articles/:id/movements", articleHandler.ApplyMovement)
	api.GET("/articles/:id/movements", articleHandler.ListMovements)
	api.POST("/count-sessions", sessionHandler.Create)
	api.GET("/count-sessions", sessionHandler.List)
	api.GET("/count-sessions/:id", sessionHandler.GetByID)
	api.POST("/count-sessions/:id/advance", sessionHandler.Advance)
	api.DELETE("/count-sessions/:id", sessionHandler.Delete)
	api.POST("/count-sessions/:id/lines", sessionHandler.AddLine)
	api.PUT("/count-lines/:id", lineHandler.RecordCount)

	return &handlerFixture{
		router:   r,
		jwt:      jwtService,
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
}

func (f *handlerFixture) token(t *testing.T, perms ...string) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(auth.TokenInput{
		TenantID:    f.tenantID,
		UserID:      f.userID,
		Permissions: perms,
	})
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(t *testing.T, method, path, token string, body any, headers ...string) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (f *handlerFixture) registerArticle(t *testing.T, token, code, location string) appinv.ArticleResponse {
	t.Helper()
	status, env := f.do(t, http.MethodPost, "/api/v1/articles", token, map[string]any{
		"code": code, "name": "Article " + code, "location": location, "unit": "pcs", "unit_price": "2.50",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decodeData[appinv.ArticleResponse](t, env)
}

func (f *handlerFixture) checkin(t *testing.T, token string, articleID uuid.UUID, qty int64) {
	t.Helper()
	status, env := f.do(t, http.MethodPost, "/api/v1/articles/"+articleID.String()+"/movements", token,
		map[string]any{"type": "checkin", "quantity": qty})
	require.Equal(t, http.StatusCreated, status, env.Error)
}

func TestArticleHandler(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t)

	article := f.registerArticle(t, token, "A-100", "Hall 1")
	assert.Equal(t, "A-100", article.Code)
	assert.Zero(t, article.Stock.CurrentStock)

	t.Run("duplicate code is a conflict", func(t *testing.T) {
		status, env := f.do(t, http.MethodPost, "/api/v1/articles", token, map[string]any{"code": "A-100", "name": "Again"})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, shared.CodeAlreadyExists, env.Error.Code)
		assert.NotEmpty(t, env.Error.RequestID)
	})

	t.Run("validation errors name json fields", func(t *testing.T) {
		status, env := f.do(t, http.MethodPost, "/api/v1/articles", token, map[string]any{"name": "No code"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "code", env.Error.Details[0].Field)
	})

	t.Run("get and list", func(t *testing.T) {
		status, env := f.do(t, http.MethodGet, "/api/v1/articles/"+article.ID.String(), token, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, article.ID, decodeData[appinv.ArticleResponse](t, env).ID)

		f.registerArticle(t, token, "B-200", "Yard")
		status, env = f.do(t, http.MethodGet, "/api/v1/articles?location=hall", token, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Len(t, decodeData[[]appinv.ArticleResponse](t, env), 1)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.Total)
		assert.Equal(t, 20, env.Meta.PageSize)
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		status, env := f.do(t, http.MethodGet, "/api/v1/articles/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, shared.CodeNotFound, env.Error.Code)

		status, env = f.do(t, http.MethodGet, "/api/v1/articles/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
	})

	t.Run("handlers need claims", func(t *testing.T) {
		status, env := f.do(t, http.MethodGet, "/unauthenticated/articles", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, dto.ErrCodeUnauthorized, env.Error.Code)
	})
}

func TestArticleHandler_Movements(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t)
	article := f.registerArticle(t, token, "A-100", "")
	path := "/api/v1/articles/" + article.ID.String() + "/movements"

	status, env := f.do(t, http.MethodPost, path, token, map[string]any{"type": "checkin", "quantity": 10, "reference": "PO-1"})
	require.Equal(t, http.StatusCreated, status)
	moved := decodeData[appinv.ApplyMovementResponse](t, env)
	assert.Equal(t, int64(10), moved.Stock.CurrentStock)
	assert.Equal(t, &f.userID, moved.Movement.CreatedBy)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"checkout beyond stock", map[string]any{"type": "checkout", "quantity": 15}, http.StatusUnprocessableEntity, shared.CodeInsufficientStock},
		{"zero quantity", map[string]any{"type": "checkin", "quantity": 0}, http.StatusBadRequest, shared.CodeInvalidQuantity},
		{"negative quantity", map[string]any{"type": "checkout", "quantity": -3}, http.StatusBadRequest, shared.CodeInvalidQuantity},
		{"unknown type", map[string]any{"type": "teleport", "quantity": 1}, http.StatusBadRequest, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(t, http.MethodPost, path, token, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	t.Run("idempotency key deduplicates retries", func(t *testing.T) {
		body := map[string]any{"type": "checkout", "quantity": 4}
		status, _ := f.do(t, http.MethodPost, path, token, body, IdempotencyKeyHeader, "retry-1")
		assert.Equal(t, http.StatusCreated, status)

		status, env := f.do(t, http.MethodPost, path, token, body, IdempotencyKeyHeader, "retry-1")
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, shared.CodeDuplicateRequest, env.Error.Code)
	})

	t.Run("failed movements do not change stock", func(t *testing.T) {
		status, env := f.do(t, http.MethodGet, "/api/v1/articles/"+article.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(6), decodeData[appinv.ArticleResponse](t, env).Stock.CurrentStock)
	})

	t.Run("journal lists newest first", func(t *testing.T) {
		status, env := f.do(t, http.MethodGet, path+"?page_size=1", token, nil)
		require.Equal(t, http.StatusOK, status)
		movements := decodeData[[]appinv.MovementResponse](t, env)
		require.Len(t, movements, 1)
		assert.Equal(t, "checkout", movements[0].Type)
		assert.Equal(t, int64(2), env.Meta.Total)
		assert.Equal(t, 2, env.Meta.TotalPages)
	})
}

func TestCountSessionHandler_Lifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t)
	approver := f.token(t, auth.PermCountSessionApprove)

	a := f.registerArticle(t, token, "A-100", "Hall 1")
	b := f.registerArticle(t, token, "B-200", "Hall 2")
	f.checkin(t, token, a.ID, 50)
	f.checkin(t, token, b.ID, 10)

	status, env := f.do(t, http.MethodPost, "/api/v1/count-sessions", token, map[string]any{"title": "Monthly", "location": "hall"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	session := decodeData[appcount.SessionResponse](t, env)
	require.Len(t, session.Lines, 2)
	assert.Equal(t, "open", session.Status)
	sessionPath := "/api/v1/count-sessions/" + session.ID.String()

	record := func(lineID uuid.UUID, qty int64) (int, envelope) {
		return f.do(t, http.MethodPut, "/api/v1/count-lines/"+lineID.String(), token, map[string]any{"counted_quantity": qty, "notes": "shelf"})
	}

	status, env = record(session.Lines[0].ID, 48)
	require.Equal(t, http.StatusOK, status)
	line := decodeData[appcount.LineResponse](t, env)
	require.NotNil(t, line.Deviation)
	assert.Equal(t, int64(-2), *line.Deviation)

	status, _ = record(session.Lines[1].ID, 0)
	require.Equal(t, http.StatusOK, status)

	status, env = f.do(t, http.MethodPut, "/api/v1/count-lines/"+session.Lines[0].ID.String(), token, map[string]any{"notes": "no quantity"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)

	status, env = f.do(t, http.MethodGet, sessionPath, token, nil)
	require.Equal(t, http.StatusOK, status)
	got := decodeData[appcount.SessionResponse](t, env)
	assert.Equal(t, 2, got.Summary.CompletedItems)
	assert.Equal(t, int64(12), got.Summary.TotalDeviations)
	assert.True(t, got.Summary.HasDeviations)
	assert.True(t, got.Summary.FullyCounted)

	advance := func(tok, target string) (int, envelope) {
		return f.do(t, http.MethodPost, sessionPath+"/advance", tok, map[string]any{"status": target})
	}

	status, env = advance(token, "completed")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, shared.CodeInvalidTransition, env.Error.Code)

	status, env = advance(token, "archived")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, shared.CodeInvalidTransition, env.Error.Code)

	status, env = f.do(t, http.MethodPost, sessionPath+"/advance", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)

	status, _ = advance(token, "in_progress")
	require.Equal(t, http.StatusOK, status)
	status, _ = advance(token, "completed")
	require.Equal(t, http.StatusOK, status)

	status, env = record(session.Lines[0].ID, 50)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, shared.CodeSessionClosed, env.Error.Code)

	status, env = f.do(t, http.MethodDelete, sessionPath, token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, shared.CodeNotDeletable, env.Error.Code)

	status, env = advance(token, "approved")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, shared.CodeForbidden, env.Error.Code)

	status, env = advance(approver, "approved")
	require.Equal(t, http.StatusOK, status)
	approved := decodeData[appcount.SessionResponse](t, env)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, &f.userID, approved.ApprovedBy)

	status, env = f.do(t, http.MethodGet, "/api/v1/count-sessions?status=approved", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]appcount.SessionResponse](t, env), 1)
}

func TestCountSessionHandler_AddLineAndDelete(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t)
	a := f.registerArticle(t, token, "A-100", "Hall 1")
	f.checkin(t, token, a.ID, 7)

	status, env := f.do(t, http.MethodPost, "/api/v1/count-sessions", token, map[string]any{"title": "Spot", "location": "nowhere"})
	require.Equal(t, http.StatusCreated, status)
	session := decodeData[appcount.SessionResponse](t, env)
	assert.Empty(t, session.Lines)
	sessionPath := "/api/v1/count-sessions/" + session.ID.String()

	status, env = f.do(t, http.MethodPost, sessionPath+"/lines", token, map[string]any{"article_id": a.ID})
	require.Equal(t, http.StatusCreated, status)
	line := decodeData[appcount.LineResponse](t, env)
	assert.Equal(t, int64(7), line.ExpectedQuantity)

	status, env = f.do(t, http.MethodPost, sessionPath+"/lines", token, map[string]any{"article_id": a.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, shared.CodeAlreadyExists, env.Error.Code)

	status, _ = f.do(t, http.MethodDelete, sessionPath, token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = f.do(t, http.MethodGet, sessionPath, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, shared.CodeNotFound, env.Error.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	serve := func(p Pinger) (int, HealthResponse) {
		r := gin.New()
		r.GET("/health", NewHealthHandler(p, "1.2.3").Health)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		return w.Code, decodeData[HealthResponse](t, env)
	}

	status, body := serve(stubPinger{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, HealthResponse{Status: "healthy", Database: "up", Version: "1.2.3"}, body)

	status, body = serve(stubPinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "down", body.Database)
}

func TestHandleError_HidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	h := &BaseHandler{}
	r.GET("/", func(c *gin.Context) { h.HandleError(c, errors.New("pq: connection reset")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.Contains(t, w.Body.String(), dto.ErrCodeInternal)
}
