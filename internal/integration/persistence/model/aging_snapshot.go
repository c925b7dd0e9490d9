package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// AgingSnapshotModel represents the aging_snapshots table. The table is a
// recomputed read model: every reconciliation pass replaces it wholesale.
type AgingSnapshotModel struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Bucket                string          `gorm:"type:varchar(10);not null"`
	OutstandingAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	OldestOpenInvoiceDate time.Time       `gorm:"type:date;not null"`
	ComputedAt            time.Time       `gorm:"not null"`
}

// TableName returns the table name for the AgingSnapshotModel.
func (AgingSnapshotModel) TableName() string {
	return "aging_snapshots"
}

// ToEntity converts an AgingSnapshotModel to a domain AgingSnapshot entity.
func (m *AgingSnapshotModel) ToEntity() *entity.AgingSnapshot {
	return &entity.AgingSnapshot{
		ID:                    m.ID,
		CustomerID:            m.CustomerID,
		Bucket:                entity.AgingBucket(m.Bucket),
		OutstandingAmount:     m.OutstandingAmount,
		OldestOpenInvoiceDate: m.OldestOpenInvoiceDate,
		ComputedAt:            m.ComputedAt,
	}
}

// AgingSnapshotFromEntity creates an AgingSnapshotModel from a domain entity.
func AgingSnapshotFromEntity(s *entity.AgingSnapshot) *AgingSnapshotModel {
	return &AgingSnapshotModel{
		ID:                    s.ID,
		CustomerID:            s.CustomerID,
		Bucket:                string(s.Bucket),
		OutstandingAmount:     s.OutstandingAmount,
		OldestOpenInvoiceDate: s.OldestOpenInvoiceDate,
		ComputedAt:            s.ComputedAt,
	}
}
