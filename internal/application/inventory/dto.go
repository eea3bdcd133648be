package inventory

import (
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// RegisterArticleRequest represents a request to register an article
type RegisterArticleRequest struct {
	Code       string          `json:"code" binding:"required,min=1,max=50"`
	Name       string          `json:"name" binding:"required,min=1,max=200"`
	CategoryID *uuid.UUID      `json:"category_id"`
	Location   string          `json:"location" binding:"max=200"`
	Unit       string          `json:"unit" binding:"max=20"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// ApplyMovementRequest represents a request to post a stock movement
type ApplyMovementRequest struct {
	Type           string     `json:"type" binding:"required,movement_type"`
	Quantity       int64      `json:"quantity"`
	Reference      string     `json:"reference" binding:"max=100"`
	Note           string     `json:"note" binding:"max=500"`
	OperatorID     *uuid.UUID `json:"-"`
	IdempotencyKey string     `json:"-"`
}

// ArticleListFilter represents query options for listing articles
type ArticleListFilter struct {
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Location   string `form:"location"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=code name location created_at"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MovementListFilter represents query options for listing movements
type MovementListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ===================== Response DTOs =====================

// StockLevelResponse represents the stock of one article
type StockLevelResponse struct {
	ArticleID      uuid.UUID `json:"article_id"`
	CurrentStock   int64     `json:"current_stock"`
	ReservedStock  int64     `json:"reserved_stock"`
	AvailableStock int64     `json:"available_stock"`
	Version        int       `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ArticleResponse represents an article with its stock level
type ArticleResponse struct {
	ID         uuid.UUID          `json:"id"`
	Code       string             `json:"code"`
	Name       string             `json:"name"`
	CategoryID *uuid.UUID         `json:"category_id,omitempty"`
	Location   string             `json:"location"`
	Unit       string             `json:"unit"`
	UnitPrice  decimal.Decimal    `json:"unit_price"`
	Stock      StockLevelResponse `json:"stock"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// MovementResponse represents one journal entry
type MovementResponse struct {
	ID          uuid.UUID  `json:"id"`
	ArticleID   uuid.UUID  `json:"article_id"`
	Type        string     `json:"type"`
	Quantity    int64      `json:"quantity"`
	Change      int64      `json:"change"`
	StockBefore int64      `json:"stock_before"`
	StockAfter  int64      `json:"stock_after"`
	Reference   string     `json:"reference,omitempty"`
	Note        string     `json:"note,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ApplyMovementResponse is returned after a movement has been applied
type ApplyMovementResponse struct {
	Movement MovementResponse   `json:"movement"`
	Stock    StockLevelResponse `json:"stock"`
}

// ===================== Converters =====================

// ToStockLevelResponse converts a domain StockLevel to a response
func ToStockLevelResponse(level *inventory.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ArticleID:      level.ArticleID,
		CurrentStock:   level.CurrentStock,
		ReservedStock:  level.ReservedStock,
		AvailableStock: level.AvailableStock(),
		Version:        level.Version,
		UpdatedAt:      level.UpdatedAt,
	}
}

// ToArticleResponse converts a domain Article and its stock level to a response
func ToArticleResponse(a *inventory.Article, level *inventory.StockLevel) ArticleResponse {
	resp := ArticleResponse{
		ID:         a.ID,
		Code:       a.Code,
		Name:       a.Name,
		CategoryID: a.CategoryID,
		Location:   a.Location,
		Unit:       a.Unit,
		UnitPrice:  a.UnitPrice,
		Stock:      StockLevelResponse{ArticleID: a.ID},
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if level != nil {
		resp.Stock = ToStockLevelResponse(level)
	}
	return resp
}

// ToMovementResponse converts a domain StockMovement to a response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		ArticleID:   m.ArticleID,
		Type:        m.Type.String(),
		Quantity:    m.Quantity,
		Change:      m.SignedQuantity(),
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reference:   m.Reference,
		Note:        m.Note,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// ToMovementResponses converts a slice of movements
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}
