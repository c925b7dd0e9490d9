package discrepancy

import (
	"context"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// GetDiscrepanciesInput represents the input for listing discrepancies.
type GetDiscrepanciesInput struct {
	Range valueobject.DateRange
}

// GetDiscrepanciesUseCase lists discrepancies detected within a date range.
type GetDiscrepanciesUseCase struct {
	discrepancies adapter.DiscrepancyRepository
}

// NewGetDiscrepanciesUseCase creates a new GetDiscrepanciesUseCase instance.
func NewGetDiscrepanciesUseCase(discrepancies adapter.DiscrepancyRepository) *GetDiscrepanciesUseCase {
	return &GetDiscrepanciesUseCase{discrepancies: discrepancies}
}

// Execute returns discrepancies detected within the range.
func (uc *GetDiscrepanciesUseCase) Execute(ctx context.Context, input GetDiscrepanciesInput) ([]*entity.Discrepancy, error) {
	if input.Range.End.Before(input.Range.Start) {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeInvalidDateRange,
			"date range end precedes start",
			domainerror.ErrInvalidDateRange,
		)
	}
	return uc.discrepancies.ListByRange(ctx, input.Range)
}
