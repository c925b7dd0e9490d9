// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// InvoiceModel represents the invoices table in the database.
type InvoiceModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number          string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	IssueDate       time.Time       `gorm:"type:date;not null;index"`
	DueDate         time.Time       `gorm:"type:date;not null;index"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	Version         int64           `gorm:"not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the InvoiceModel.
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToEntity converts an InvoiceModel to a domain Invoice entity.
func (m *InvoiceModel) ToEntity() *entity.Invoice {
	return &entity.Invoice{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		Number:          m.Number,
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		NetAmount:       m.NetAmount,
		AllocatedAmount: m.AllocatedAmount,
		Status:          entity.InvoiceStatus(m.Status),
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// InvoiceFromEntity creates an InvoiceModel from a domain Invoice entity.
func InvoiceFromEntity(invoice *entity.Invoice) *InvoiceModel {
	return &InvoiceModel{
		ID:              invoice.ID,
		CustomerID:      invoice.CustomerID,
		Number:          invoice.Number,
		IssueDate:       invoice.IssueDate,
		DueDate:         invoice.DueDate,
		NetAmount:       invoice.NetAmount,
		AllocatedAmount: invoice.AllocatedAmount,
		Status:          string(invoice.Status),
		Version:         invoice.Version,
		CreatedAt:       invoice.CreatedAt,
		UpdatedAt:       invoice.UpdatedAt,
	}
}
