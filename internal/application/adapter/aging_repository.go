package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// AgingRepository defines the persistence interface for the AR aging read
// model. Snapshots are a recomputed projection, safe to discard and rebuild.
type AgingRepository interface {
	// ReplaceAll supersedes the entire snapshot set with a freshly computed
	// one in a single transaction.
	ReplaceAll(ctx context.Context, snapshots []*entity.AgingSnapshot) error

	// List returns snapshots, optionally filtered to one customer.
	List(ctx context.Context, customerFilter *uuid.UUID) ([]*entity.AgingSnapshot, error)
}
