package discrepancy

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
)

// ResolveDiscrepancyInput represents the input for resolving a discrepancy.
type ResolveDiscrepancyInput struct {
	DiscrepancyID uuid.UUID
	Note          string
}

// ResolveDiscrepancyUseCase records the external (human) resolution of a
// discrepancy. The detector itself never resolves anything.
type ResolveDiscrepancyUseCase struct {
	discrepancies adapter.DiscrepancyRepository
}

// NewResolveDiscrepancyUseCase creates a new ResolveDiscrepancyUseCase instance.
func NewResolveDiscrepancyUseCase(discrepancies adapter.DiscrepancyRepository) *ResolveDiscrepancyUseCase {
	return &ResolveDiscrepancyUseCase{discrepancies: discrepancies}
}

// Execute marks the discrepancy resolved with the operator's note.
func (uc *ResolveDiscrepancyUseCase) Execute(ctx context.Context, input ResolveDiscrepancyInput) error {
	if strings.TrimSpace(input.Note) == "" {
		return domainerror.NewReconciliationError(
			domainerror.ErrCodeMissingResolutionNote,
			"resolution requires a reason",
			nil,
		)
	}

	existing, err := uc.discrepancies.GetByID(ctx, input.DiscrepancyID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domainerror.NewReconciliationError(
			domainerror.ErrCodeDiscrepancyNotFound,
			"discrepancy not found",
			domainerror.ErrDiscrepancyNotFound,
		)
	}
	if existing.Resolved {
		return domainerror.NewReconciliationError(
			domainerror.ErrCodeDiscrepancyResolved,
			"discrepancy already resolved",
			domainerror.ErrDiscrepancyAlreadyResolved,
		)
	}

	return uc.discrepancies.Resolve(ctx, input.DiscrepancyID, input.Note)
}
