package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/application/usecase/aging"
	"github.com/travelbooks/backoffice/internal/integration/entrypoint/dto"
)

// AgingController handles accounts receivable aging endpoints.
type AgingController struct {
	getUseCase *aging.GetAccountsReceivableUseCase
}

// NewAgingController creates a new aging controller instance.
func NewAgingController(getUseCase *aging.GetAccountsReceivableUseCase) *AgingController {
	return &AgingController{getUseCase: getUseCase}
}

// List handles GET /accounts-receivable requests.
func (c *AgingController) List(ctx *gin.Context) {
	input := aging.GetAccountsReceivableInput{}

	if customerStr := ctx.Query("customer_id"); customerStr != "" {
		customerID, err := uuid.Parse(customerStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid customer ID format",
			})
			return
		}
		input.CustomerFilter = &customerID
	}

	snapshots, err := c.getUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "An internal error occurred",
		})
		return
	}

	rows := make([]dto.AgingSnapshotDTO, len(snapshots))
	for i, s := range snapshots {
		rows[i] = dto.ToAgingSnapshotDTO(s)
	}

	ctx.JSON(http.StatusOK, dto.AccountsReceivableResponse{
		Snapshots: rows,
		Total:     len(rows),
	})
}
