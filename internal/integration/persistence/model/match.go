package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// MatchModel represents the matches table in the database. Rows are
// append-only; there is deliberately no UpdatedAt column.
type MatchModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReceiptID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	MatchedAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Confidence      float64         `gorm:"not null"`
	Strategy        string          `gorm:"type:varchar(20);not null;index"`
	ReversesMatchID *uuid.UUID      `gorm:"type:uuid;index"`
	Note            string          `gorm:"type:text"`
	CreatedAt       time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for the MatchModel.
func (MatchModel) TableName() string {
	return "matches"
}

// ToEntity converts a MatchModel to a domain Match entity.
func (m *MatchModel) ToEntity() *entity.Match {
	return &entity.Match{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		ReceiptID:       m.ReceiptID,
		MatchedAmount:   m.MatchedAmount,
		Confidence:      m.Confidence,
		Strategy:        entity.MatchStrategy(m.Strategy),
		ReversesMatchID: m.ReversesMatchID,
		Note:            m.Note,
		CreatedAt:       m.CreatedAt,
	}
}

// MatchFromEntity creates a MatchModel from a domain Match entity.
func MatchFromEntity(match *entity.Match) *MatchModel {
	return &MatchModel{
		ID:              match.ID,
		InvoiceID:       match.InvoiceID,
		ReceiptID:       match.ReceiptID,
		MatchedAmount:   match.MatchedAmount,
		Confidence:      match.Confidence,
		Strategy:        string(match.Strategy),
		ReversesMatchID: match.ReversesMatchID,
		Note:            match.Note,
		CreatedAt:       match.CreatedAt,
	}
}
