package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// DiscrepancyRepository defines the persistence interface for the
// discrepancy audit trail.
type DiscrepancyRepository interface {
	// Create persists a newly detected discrepancy.
	Create(ctx context.Context, d *entity.Discrepancy) error

	// GetByID retrieves a discrepancy by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Discrepancy, error)

	// ListByRange returns discrepancies detected within the range.
	ListByRange(ctx context.Context, r valueobject.DateRange) ([]*entity.Discrepancy, error)

	// CountUnresolved returns the number of unresolved discrepancies
	// attached to the given invoices.
	CountUnresolved(ctx context.Context, invoiceIDs []uuid.UUID) (int, error)

	// FindUnresolved returns the unresolved discrepancy of the given type
	// for an invoice, or nil when none exists. Used to keep re-detection
	// idempotent.
	FindUnresolved(ctx context.Context, invoiceID uuid.UUID, dType entity.DiscrepancyType) (*entity.Discrepancy, error)

	// Resolve marks a discrepancy resolved with a note. Resolution is an
	// external human action recorded here, not a detector behavior.
	Resolve(ctx context.Context, id uuid.UUID, note string) error
}
