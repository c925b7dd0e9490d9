package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// DiscrepancyModel represents the discrepancies table in the database.
type DiscrepancyModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExpectedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	ReceivedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Delta          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Type           string          `gorm:"type:varchar(20);not null;index"`
	DetectedAt     time.Time       `gorm:"not null;index"`
	Resolved       bool            `gorm:"not null;default:false;index"`
	ResolutionNote string          `gorm:"type:text"`
}

// TableName returns the table name for the DiscrepancyModel.
func (DiscrepancyModel) TableName() string {
	return "discrepancies"
}

// ToEntity converts a DiscrepancyModel to a domain Discrepancy entity.
func (m *DiscrepancyModel) ToEntity() *entity.Discrepancy {
	return &entity.Discrepancy{
		ID:             m.ID,
		InvoiceID:      m.InvoiceID,
		ExpectedAmount: m.ExpectedAmount,
		ReceivedAmount: m.ReceivedAmount,
		Delta:          m.Delta,
		Type:           entity.DiscrepancyType(m.Type),
		DetectedAt:     m.DetectedAt,
		Resolved:       m.Resolved,
		ResolutionNote: m.ResolutionNote,
	}
}

// DiscrepancyFromEntity creates a DiscrepancyModel from a domain Discrepancy entity.
func DiscrepancyFromEntity(d *entity.Discrepancy) *DiscrepancyModel {
	return &DiscrepancyModel{
		ID:             d.ID,
		InvoiceID:      d.InvoiceID,
		ExpectedAmount: d.ExpectedAmount,
		ReceivedAmount: d.ReceivedAmount,
		Delta:          d.Delta,
		Type:           string(d.Type),
		DetectedAt:     d.DetectedAt,
		Resolved:       d.Resolved,
		ResolutionNote: d.ResolutionNote,
	}
}
