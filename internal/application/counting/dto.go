package counting

import (
	"time"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// CreateSessionRequest represents a request to open a count session.
// CategoryID and Location select the articles to snapshot; both are optional.
type CreateSessionRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
	CategoryID  string `json:"category_id" binding:"omitempty,uuid"`
	Location    string `json:"location" binding:"max=200"`
}

// AdvanceStatusRequest represents a request to move a session to its next status.
// Status is not checked against the known statuses here; anything but the
// direct successor is an invalid transition.
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AddLineRequest represents a request to add one article to an open session
type AddLineRequest struct {
	ArticleID string `json:"article_id" binding:"required,uuid"`
}

// RecordCountRequest represents a physical count for one line.
// CountedQuantity is a pointer so that zero is a valid count.
type RecordCountRequest struct {
	CountedQuantity *int64 `json:"counted_quantity" binding:"required"`
	Notes           string `json:"notes" binding:"max=1000"`
}

// SessionListFilter represents query options for listing sessions
type SessionListFilter struct {
	Status   string `form:"status" binding:"omitempty,count_status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at title status"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ===================== Response DTOs =====================

// SummaryResponse holds the derived rollups of a session
type SummaryResponse struct {
	TotalItems          int             `json:"total_items"`
	CompletedItems      int             `json:"completed_items"`
	TotalDeviations     int64           `json:"total_deviations"`
	HasDeviations       bool            `json:"has_deviations"`
	TotalDeviationValue decimal.Decimal `json:"total_deviation_value"`
	Progress            float64         `json:"progress"`
	FullyCounted        bool            `json:"fully_counted"`
}

// LineResponse represents one count line
type LineResponse struct {
	ID               uuid.UUID       `json:"id"`
	SessionID        uuid.UUID       `json:"session_id"`
	ArticleID        uuid.UUID       `json:"article_id"`
	ArticleCode      string          `json:"article_code"`
	ArticleName      string          `json:"article_name"`
	Location         string          `json:"location"`
	Unit             string          `json:"unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ExpectedQuantity int64           `json:"expected_quantity"`
	CountedQuantity  *int64          `json:"counted_quantity"`
	Deviation        *int64          `json:"deviation"`
	Notes            string          `json:"notes,omitempty"`
	CountedBy        *uuid.UUID      `json:"counted_by,omitempty"`
	CountedAt        *time.Time      `json:"counted_at,omitempty"`
}

// SessionResponse represents a session with its lines and summary
type SessionResponse struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Location    string          `json:"location,omitempty"`
	CreatedBy   *uuid.UUID      `json:"created_by,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ApprovedBy  *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	Version     int             `json:"version"`
	Summary     SummaryResponse `json:"summary"`
	Lines       []LineResponse  `json:"lines,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ===================== Converters =====================

// ToSummaryResponse converts a domain Summary to a response
func ToSummaryResponse(s counting.Summary) SummaryResponse {
	return SummaryResponse{
		TotalItems:          s.TotalItems,
		CompletedItems:      s.CompletedItems,
		TotalDeviations:     s.TotalDeviations,
		HasDeviations:       s.HasDeviations,
		TotalDeviationValue: s.TotalDeviationValue,
		Progress:            s.Progress(),
		FullyCounted:        s.IsFullyCounted(),
	}
}

// ToLineResponse converts a domain CountLine to a response
func ToLineResponse(l *counting.CountLine) LineResponse {
	return LineResponse{
		ID:               l.ID,
		SessionID:        l.SessionID,
		ArticleID:        l.ArticleID,
		ArticleCode:      l.ArticleCode,
		ArticleName:      l.ArticleName,
		Location:         l.Location,
		Unit:             l.Unit,
		UnitPrice:        l.UnitPrice,
		ExpectedQuantity: l.ExpectedQuantity,
		CountedQuantity:  l.CountedQuantity,
		Deviation:        l.Deviation,
		Notes:            l.Notes,
		CountedBy:        l.CountedBy,
		CountedAt:        l.CountedAt,
	}
}

// ToSessionResponse converts a domain CountSession to a response.
// Lines are included only when withLines is set; the summary is always derived
// from all lines.
func ToSessionResponse(s *counting.CountSession, withLines bool) SessionResponse {
	resp := SessionResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Status:      s.Status.String(),
		CategoryID:  s.Filter.CategoryID,
		Location:    s.Filter.Location,
		CreatedBy:   s.CreatedBy,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		ApprovedBy:  s.ApprovedBy,
		ApprovedAt:  s.ApprovedAt,
		Version:     s.Version,
		Summary:     ToSummaryResponse(s.Summary()),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if withLines {
		resp.Lines = make([]LineResponse, len(s.Lines))
		for i := range s.Lines {
			resp.Lines[i] = ToLineResponse(&s.Lines[i])
		}
	}
	return resp
}
