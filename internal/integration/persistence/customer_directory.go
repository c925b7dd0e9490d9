package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/integration/persistence/model"
)

// customerDirectory implements adapter.CustomerDirectory over the local
// customers projection table.
type customerDirectory struct {
	db *gorm.DB
}

// NewCustomerDirectory creates a new customer directory instance.
func NewCustomerDirectory(db *gorm.DB) adapter.CustomerDirectory {
	return &customerDirectory{db: db}
}

// Lookup retrieves a customer by ID. A missing row yields (nil, nil).
func (d *customerDirectory) Lookup(ctx context.Context, customerID uuid.UUID) (*entity.Customer, error) {
	var m model.CustomerModel
	err := d.db.WithContext(ctx).First(&m, "id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToEntity(), nil
}
