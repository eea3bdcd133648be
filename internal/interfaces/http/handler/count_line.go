package handler

import (
	appcount "github.com/erp/stockcount/internal/application/counting"
	"github.com/gin-gonic/gin"
)

// CountLineHandler handles count line endpoints
type CountLineHandler struct {
	BaseHandler
	lines *appcount.LineService
}

// NewCountLineHandler creates a new CountLineHandler
func NewCountLineHandler(lines *appcount.LineService) *CountLineHandler {
	return &CountLineHandler{lines: lines}
}

// RecordCount godoc
// @Summary      Record physical count
// @Description  Store the counted quantity of a line and its deviation from the expected quantity. The ledger is not changed.
// @Tags         count-lines
// @Accept       json
// @Produce      json
// @Param        id path string true "Line ID" format(uuid)
// @Param        request body appcount.RecordCountRequest true "Count"
// @Success      200 {object} dto.Response{data=appcount.LineResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /count-lines/{id} [put]
func (h *CountLineHandler) RecordCount(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "line")
	if !ok {
		return
	}

	var req appcount.RecordCountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.lines.RecordCount(c.Request.Context(), tenantID, id, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, line)
}
