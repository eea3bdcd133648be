package handler

import (
	appcount "github.com/erp/stockcount/internal/application/counting"
	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CountSessionHandler handles count session endpoints
type CountSessionHandler struct {
	BaseHandler
	sessions *appcount.SessionService
}

// NewCountSessionHandler creates a new CountSessionHandler
func NewCountSessionHandler(sessions *appcount.SessionService) *CountSessionHandler {
	return &CountSessionHandler{sessions: sessions}
}

// Create godoc
// @Summary      Create count session
// @Description  Open a session and snapshot the expected quantity of every matching article
// @Tags         count-sessions
// @Accept       json
// @Produce      json
// @Param        request body appcount.CreateSessionRequest true "Session"
// @Success      201 {object} dto.Response{data=appcount.SessionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /count-sessions [post]
func (h *CountSessionHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	var req appcount.CreateSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, session)
}

// List godoc
// @Summary      List count sessions
// @Description  Retrieve a page of sessions with their deviation summaries
// @Tags         count-sessions
// @Produce      json
// @Param        status query string false "Filter by status" Enums(open, in_progress, completed, approved)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(500)
// @Param        order_by query string false "Order by field" Enums(created_at, title, status)
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]appcount.SessionResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /count-sessions [get]
func (h *CountSessionHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}

	var filter appcount.SessionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	sessions, total, err := h.sessions.ListSessions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, sessions, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get count session
// @Description  Retrieve a session with its lines and a summary computed on read
// @Tags         count-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=appcount.SessionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /count-sessions/{id} [get]
func (h *CountSessionHandler) GetByID(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "session")
	if !ok {
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// Advance godoc
// @Summary      Advance count session
// @Description  Move a session one step along open, in_progress, completed, approved. Approval needs count_session:approve.
// @Tags         count-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body appcount.AdvanceStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=appcount.SessionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /count-sessions/{id}/advance [post]
func (h *CountSessionHandler) Advance(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "session")
	if !ok {
		return
	}

	var req appcount.AdvanceStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor := counting.Actor{
		UserID:     userID,
		CanApprove: middleware.GetJWTClaims(c).HasPermission(auth.PermCountSessionApprove),
	}

	session, err := h.sessions.AdvanceStatus(c.Request.Context(), tenantID, id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// Delete godoc
// @Summary      Delete count session
// @Description  Delete an open session and its lines
// @Tags         count-sessions
// @Param        id path string true "Session ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /count-sessions/{id} [delete]
func (h *CountSessionHandler) Delete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "session")
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(c.Request.Context(), tenantID, id, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddLine godoc
// @Summary      Add article to count session
// @Description  Snapshot one more article into an open session
// @Tags         count-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body appcount.AddLineRequest true "Article"
// @Success      201 {object} dto.Response{data=appcount.LineResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /count-sessions/{id}/lines [post]
func (h *CountSessionHandler) AddLine(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "session")
	if !ok {
		return
	}

	var req appcount.AddLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.sessions.AddLine(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, line)
}
