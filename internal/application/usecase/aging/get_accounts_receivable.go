package aging

import (
	"context"

	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// GetAccountsReceivableInput represents the input for the AR aging query.
type GetAccountsReceivableInput struct {
	CustomerFilter *uuid.UUID // nil means all customers
}

// GetAccountsReceivableUseCase reads the current aging snapshot set.
type GetAccountsReceivableUseCase struct {
	agingRepo adapter.AgingRepository
}

// NewGetAccountsReceivableUseCase creates a new GetAccountsReceivableUseCase instance.
func NewGetAccountsReceivableUseCase(agingRepo adapter.AgingRepository) *GetAccountsReceivableUseCase {
	return &GetAccountsReceivableUseCase{agingRepo: agingRepo}
}

// Execute returns the latest snapshots, optionally for one customer.
func (uc *GetAccountsReceivableUseCase) Execute(ctx context.Context, input GetAccountsReceivableInput) ([]*entity.AgingSnapshot, error) {
	return uc.agingRepo.List(ctx, input.CustomerFilter)
}
