package integration

import (
	"net/http"
	"testing"
	"time"

	appcount "github.com/erp/stockcount/internal/application/counting"
	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/infrastructure/cache"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/erp/stockcount/internal/infrastructure/event"
	"github.com/erp/stockcount/internal/infrastructure/persistence"
	"github.com/erp/stockcount/internal/infrastructure/storage"
	"github.com/erp/stockcount/internal/interfaces/http/handler"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/erp/stockcount/internal/interfaces/http/router"
	"github.com/erp/stockcount/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// harness wires the full service against a test database, the way
// cmd/server does, with the archive going to memory
type harness struct {
	db       *TestDB
	engine   http.Handler
	jwt      *auth.JWTService
	ledger   *appinv.StockLedgerService
	sessions *appcount.SessionService
	events   *testutil.RecordingHandler
	archive  *storage.MemoryObjectStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := NewTestDB(t)
	log := zap.NewNop()

	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	events := testutil.NewRecordingHandler(
		inventory.EventTypeStockMoved,
		counting.EventTypeCountSessionCreated,
		counting.EventTypeCountSessionStatusChanged,
		counting.EventTypeCountSessionDeleted,
		counting.EventTypeCountRecorded,
	)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(events)

	ledgerScope := persistence.NewLedgerTransactionScope(db.DB)
	countScope := persistence.NewCountTransactionScope(db.DB)
	stockRepo := persistence.NewGormStockLevelRepository(db.DB)

	articles := appinv.NewArticleService(ledgerScope, persistence.NewGormArticleRepository(db.DB), stockRepo)
	ledger := appinv.NewStockLedgerService(ledgerScope, stockRepo, persistence.NewGormStockMovementRepository(db.DB))
	ledger.SetEventPublisher(bus)
	ledger.SetIdempotencyStore(store, time.Hour)

	sessions := appcount.NewSessionService(countScope, persistence.NewGormCountSessionRepository(db.DB))
	sessions.SetEventPublisher(bus)
	lines := appcount.NewLineService(countScope)
	lines.SetEventPublisher(bus)

	archive := storage.NewMemoryObjectStore()
	bus.Subscribe(event.NewIdempotentHandler(event.NewSessionArchiveHandler(sessions, archive, log), store, "archive", time.Hour, log))

	jwt := auth.NewJWTService(config.JWTConfig{Secret: "integration-secret-32-characters!!", Expiration: time.Hour})
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:        log,
		JWTService:    jwt,
		ServiceName:   "stockcount-integration",
		IsDevelopment: true,
		CORS:          middleware.DefaultCORSConfig(),
		MaxBodySize:   1 << 20,
	}, router.Handlers{
		Articles: handler.NewArticleHandler(articles, ledger),
		Sessions: handler.NewCountSessionHandler(sessions),
		Lines:    handler.NewCountLineHandler(lines),
		Health:   handler.NewHealthHandler(db, "integration"),
	})
	require.NoError(t, err)

	return &harness{
		db:       db,
		engine:   engine,
		jwt:      jwt,
		ledger:   ledger,
		sessions: sessions,
		events:   events,
		archive:  archive,
	}
}

// client returns an API client for tenantID holding every permission
func (h *harness) client(t *testing.T, tenantID uuid.UUID) *testutil.APIClient {
	return testutil.NewAPIClient(t, h.engine, h.jwt, tenantID, uuid.New(), auth.AllPermissions()...)
}

func registerArticle(t *testing.T, c *testutil.APIClient, code, location string, price string) appinv.ArticleResponse {
	t.Helper()
	return testutil.DecodeData[appinv.ArticleResponse](t, c.Do(t, http.MethodPost, "/api/v1/articles", map[string]any{
		"code":       code,
		"name":       "Article " + code,
		"location":   location,
		"unit":       "pcs",
		"unit_price": price,
	}), http.StatusCreated)
}

func move(t *testing.T, c *testutil.APIClient, articleID uuid.UUID, movementType string, qty int64) *testutil.Envelope {
	t.Helper()
	w := c.Do(t, http.MethodPost, "/api/v1/articles/"+articleID.String()+"/movements", map[string]any{
		"type":     movementType,
		"quantity": qty,
	})
	env := testutil.DecodeEnvelope(t, w)
	return &env
}
