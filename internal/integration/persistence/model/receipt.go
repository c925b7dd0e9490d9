package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// ReceiptModel represents the receipts table in the database.
type ReceiptModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentDate     time.Time       `gorm:"type:date;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Method          string          `gorm:"type:varchar(20);not null"`
	RawMemoText     string          `gorm:"type:text"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	Version         int64           `gorm:"not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the ReceiptModel.
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToEntity converts a ReceiptModel to a domain Receipt entity.
func (m *ReceiptModel) ToEntity() *entity.Receipt {
	return &entity.Receipt{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		PaymentDate:     m.PaymentDate,
		Amount:          m.Amount,
		Method:          entity.PaymentMethod(m.Method),
		RawMemoText:     m.RawMemoText,
		AllocatedAmount: m.AllocatedAmount,
		Status:          entity.ReceiptStatus(m.Status),
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ReceiptFromEntity creates a ReceiptModel from a domain Receipt entity.
func ReceiptFromEntity(receipt *entity.Receipt) *ReceiptModel {
	return &ReceiptModel{
		ID:              receipt.ID,
		CustomerID:      receipt.CustomerID,
		PaymentDate:     receipt.PaymentDate,
		Amount:          receipt.Amount,
		Method:          string(receipt.Method),
		RawMemoText:     receipt.RawMemoText,
		AllocatedAmount: receipt.AllocatedAmount,
		Status:          string(receipt.Status),
		Version:         receipt.Version,
		CreatedAt:       receipt.CreatedAt,
		UpdatedAt:       receipt.UpdatedAt,
	}
}
