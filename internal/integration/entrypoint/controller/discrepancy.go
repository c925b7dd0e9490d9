package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/travelbooks/backoffice/internal/application/usecase/discrepancy"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
	"github.com/travelbooks/backoffice/internal/integration/entrypoint/dto"
)

// DiscrepancyController handles discrepancy endpoints.
type DiscrepancyController struct {
	getUseCase     *discrepancy.GetDiscrepanciesUseCase
	resolveUseCase *discrepancy.ResolveDiscrepancyUseCase
}

// NewDiscrepancyController creates a new discrepancy controller instance.
func NewDiscrepancyController(
	getUseCase *discrepancy.GetDiscrepanciesUseCase,
	resolveUseCase *discrepancy.ResolveDiscrepancyUseCase,
) *DiscrepancyController {
	return &DiscrepancyController{
		getUseCase:     getUseCase,
		resolveUseCase: resolveUseCase,
	}
}

// List handles GET /discrepancies requests. The range defaults to the last
// 90 days when no query parameters are given.
func (c *DiscrepancyController) List(ctx *gin.Context) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -90)
	end := now

	if startStr := ctx.Query("start"); startStr != "" {
		parsed, err := time.Parse(dateLayout, startStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid start date, expected YYYY-MM-DD",
			})
			return
		}
		start = parsed
	}
	if endStr := ctx.Query("end"); endStr != "" {
		parsed, err := time.Parse(dateLayout, endStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid end date, expected YYYY-MM-DD",
			})
			return
		}
		end = parsed.Add(24*time.Hour - time.Second)
	}

	input := discrepancy.GetDiscrepanciesInput{
		Range: valueobject.DateRange{Start: start, End: end},
	}

	discrepancies, err := c.getUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleDiscrepancyError(ctx, err)
		return
	}

	responses := make([]dto.DiscrepancyResponse, len(discrepancies))
	for i, d := range discrepancies {
		responses[i] = dto.ToDiscrepancyResponse(d)
	}

	ctx.JSON(http.StatusOK, dto.DiscrepancyListResponse{
		Discrepancies: responses,
		Total:         len(responses),
	})
}

// Resolve handles PATCH /discrepancies/:id/resolve requests.
func (c *DiscrepancyController) Resolve(ctx *gin.Context) {
	discrepancyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid discrepancy ID format",
		})
		return
	}

	var req dto.ResolveDiscrepancyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	input := discrepancy.ResolveDiscrepancyInput{
		DiscrepancyID: discrepancyID,
		Note:          req.Note,
	}

	if err := c.resolveUseCase.Execute(ctx.Request.Context(), input); err != nil {
		c.handleDiscrepancyError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// handleDiscrepancyError handles discrepancy errors and returns appropriate HTTP responses.
func (c *DiscrepancyController) handleDiscrepancyError(ctx *gin.Context, err error) {
	var recErr *domainerror.ReconciliationError
	if errors.As(err, &recErr) {
		statusCode := c.getStatusCodeForDiscrepancyError(recErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: recErr.Message,
			Code:  string(recErr.Code),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// getStatusCodeForDiscrepancyError maps error codes to HTTP status codes.
func (c *DiscrepancyController) getStatusCodeForDiscrepancyError(code domainerror.ReconciliationErrorCode) int {
	switch code {
	case domainerror.ErrCodeDiscrepancyNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeInvalidDateRange,
		domainerror.ErrCodeMissingResolutionNote:
		return http.StatusBadRequest
	case domainerror.ErrCodeDiscrepancyResolved:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
