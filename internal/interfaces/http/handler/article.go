package handler

import (
	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader carries the client key that deduplicates movement posts
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds the header so it stays a sane store key
const maxIdempotencyKeyLength = 128

// ArticleHandler handles article and stock ledger endpoints
type ArticleHandler struct {
	BaseHandler
	articles *appinv.ArticleService
	ledger   *appinv.StockLedgerService
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(articles *appinv.ArticleService, ledger *appinv.StockLedgerService) *ArticleHandler {
	return &ArticleHandler{
		articles: articles,
		ledger:   ledger,
	}
}

// Register godoc
// @Summary      Register article
// @Description  Create an article with a zero stock level
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        request body appinv.RegisterArticleRequest true "Article"
// @Success      201 {object} dto.Response{data=appinv.ArticleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /articles [post]
func (h *ArticleHandler) Register(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	var req appinv.RegisterArticleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	article, err := h.articles.RegisterArticle(c.Request.Context(), tenantID, req, &userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, article)
}

// List godoc
// @Summary      List articles
// @Description  Retrieve a page of articles with their stock
// @Tags         articles
// @Produce      json
// @Param        category_id query string false "Filter by category" format(uuid)
// @Param        location query string false "Case-insensitive location substring"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(500)
// @Param        order_by query string false "Order by field" Enums(code, name, location, created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]appinv.ArticleResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /articles [get]
func (h *ArticleHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var filter appinv.ArticleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	articles, total, err := h.articles.ListArticles(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, articles, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get article
// @Description  Retrieve an article and its current stock
// @Tags         articles
// @Produce      json
// @Param        id path string true "Article ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinv.ArticleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /articles/{id} [get]
func (h *ArticleHandler) GetByID(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "article")
	if !ok {
		return
	}

	article, err := h.articles.GetArticle(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, article)
}

// ApplyMovement godoc
// @Summary      Post stock movement
// @Description  Apply a checkin, checkout or adjustment. A checkout larger than the stock is rejected and changes nothing.
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        id path string true "Article ID" format(uuid)
// @Param        Idempotency-Key header string false "Deduplicates retries of the same movement"
// @Param        request body appinv.ApplyMovementRequest true "Movement"
// @Success      201 {object} dto.Response{data=appinv.ApplyMovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /articles/{id}/movements [post]
func (h *ArticleHandler) ApplyMovement(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "article")
	if !ok {
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}

	var req appinv.ApplyMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.OperatorID = &userID
	req.IdempotencyKey = key

	result, err := h.ledger.ApplyMovement(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListMovements godoc
// @Summary      List stock movements
// @Description  Retrieve the movement journal of an article, newest first
// @Tags         articles
// @Produce      json
// @Param        id path string true "Article ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(500)
// @Success      200 {object} dto.Response{data=[]appinv.MovementResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /articles/{id}/movements [get]
func (h *ArticleHandler) ListMovements(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "article")
	if !ok {
		return
	}

	var filter appinv.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	movements, total, err := h.ledger.ListMovements(c.Request.Context(), tenantID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}
