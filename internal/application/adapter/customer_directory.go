package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// CustomerDirectory defines the read-only interface to the external
// customer directory.
type CustomerDirectory interface {
	// Lookup retrieves a customer by ID.
	Lookup(ctx context.Context, customerID uuid.UUID) (*entity.Customer, error)
}
