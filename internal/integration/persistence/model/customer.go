package model

import (
	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// CustomerModel represents the customers table, a read-only projection
// synced from the external customer directory.
type CustomerModel struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name  string    `gorm:"type:varchar(255);not null"`
	Email string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for the CustomerModel.
func (CustomerModel) TableName() string {
	return "customers"
}

// ToEntity converts a CustomerModel to a domain Customer entity.
func (m *CustomerModel) ToEntity() *entity.Customer {
	return &entity.Customer{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
	}
}
