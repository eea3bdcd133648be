package models

import (
	"time"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountSessionModel is the persistence model for the CountSession aggregate root.
// The article filter is stored as two nullable columns.
type CountSessionModel struct {
	TenantAggregateModel
	Title            string                 `gorm:"type:varchar(200);not null"`
	Description      string                 `gorm:"type:text"`
	Status           counting.SessionStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	FilterCategoryID *uuid.UUID             `gorm:"type:uuid"`
	FilterLocation   string                 `gorm:"type:varchar(200)"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
	ApprovedBy       *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	Lines            []CountLineModel `gorm:"foreignKey:SessionID;references:ID"`
}

// TableName returns the table name for GORM
func (CountSessionModel) TableName() string {
	return "count_sessions"
}

// ToDomain converts the persistence model to a domain CountSession.
// Lines are only populated when they were preloaded.
func (m *CountSessionModel) ToDomain() *counting.CountSession {
	s := &counting.CountSession{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Title:               m.Title,
		Description:         m.Description,
		Status:              m.Status,
		Filter: counting.SessionFilter{
			CategoryID: m.FilterCategoryID,
			Location:   m.FilterLocation,
		},
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		ApprovedBy:  m.ApprovedBy,
		ApprovedAt:  m.ApprovedAt,
		Lines:       make([]counting.CountLine, len(m.Lines)),
	}
	for i := range m.Lines {
		s.Lines[i] = *m.Lines[i].ToDomain()
	}
	return s
}

// FromDomain populates the persistence model, lines included, from a domain CountSession
func (m *CountSessionModel) FromDomain(s *counting.CountSession) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Title = s.Title
	m.Description = s.Description
	m.Status = s.Status
	m.FilterCategoryID = s.Filter.CategoryID
	m.FilterLocation = s.Filter.Location
	m.StartedAt = s.StartedAt
	m.CompletedAt = s.CompletedAt
	m.ApprovedBy = s.ApprovedBy
	m.ApprovedAt = s.ApprovedAt
	m.Lines = make([]CountLineModel, len(s.Lines))
	for i := range s.Lines {
		m.Lines[i] = *CountLineModelFromDomain(&s.Lines[i])
	}
}

// CountSessionModelFromDomain creates a new persistence model from a domain CountSession
func CountSessionModelFromDomain(s *counting.CountSession) *CountSessionModel {
	m := &CountSessionModel{}
	m.FromDomain(s)
	return m
}

// CountLineModel is the persistence model for the CountLine entity.
// An article appears at most once per session.
type CountLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SessionID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_count_line_session_article,priority:1"`
	ArticleID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_count_line_session_article,priority:2"`
	ArticleCode      string          `gorm:"type:varchar(50);not null"`
	ArticleName      string          `gorm:"type:varchar(200);not null"`
	Location         string          `gorm:"type:varchar(200)"`
	Unit             string          `gorm:"type:varchar(20);not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExpectedQuantity int64           `gorm:"not null"`
	CountedQuantity  *int64
	Deviation        *int64
	Notes            string     `gorm:"type:varchar(1000)"`
	CountedBy        *uuid.UUID `gorm:"type:uuid"`
	CountedAt        *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CountLineModel) TableName() string {
	return "count_lines"
}

// ToDomain converts the persistence model to a domain CountLine
func (m *CountLineModel) ToDomain() *counting.CountLine {
	return &counting.CountLine{
		ID:               m.ID,
		TenantID:         m.TenantID,
		SessionID:        m.SessionID,
		ArticleID:        m.ArticleID,
		ArticleCode:      m.ArticleCode,
		ArticleName:      m.ArticleName,
		Location:         m.Location,
		Unit:             m.Unit,
		UnitPrice:        m.UnitPrice,
		ExpectedQuantity: m.ExpectedQuantity,
		CountedQuantity:  m.CountedQuantity,
		Deviation:        m.Deviation,
		Notes:            m.Notes,
		CountedBy:        m.CountedBy,
		CountedAt:        m.CountedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// CountLineModelFromDomain creates a new persistence model from a domain CountLine
func CountLineModelFromDomain(l *counting.CountLine) *CountLineModel {
	return &CountLineModel{
		ID:               l.ID,
		TenantID:         l.TenantID,
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
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}
