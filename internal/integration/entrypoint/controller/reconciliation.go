// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/travelbooks/backoffice/internal/application/usecase/reconciliation"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
	"github.com/travelbooks/backoffice/internal/integration/entrypoint/dto"
)

const dateLayout = "2006-01-02"

// ReconciliationController handles reconciliation endpoints.
type ReconciliationController struct {
	triggerUseCase *reconciliation.TriggerReconciliationUseCase
	suggestUseCase *reconciliation.SuggestMatchesUseCase
	confirmUseCase *reconciliation.ConfirmMatchUseCase
	reverseUseCase *reconciliation.ReverseMatchUseCase
}

// NewReconciliationController creates a new reconciliation controller instance.
func NewReconciliationController(
	triggerUseCase *reconciliation.TriggerReconciliationUseCase,
	suggestUseCase *reconciliation.SuggestMatchesUseCase,
	confirmUseCase *reconciliation.ConfirmMatchUseCase,
	reverseUseCase *reconciliation.ReverseMatchUseCase,
) *ReconciliationController {
	return &ReconciliationController{
		triggerUseCase: triggerUseCase,
		suggestUseCase: suggestUseCase,
		confirmUseCase: confirmUseCase,
		reverseUseCase: reverseUseCase,
	}
}

// TriggerRun handles POST /reconciliation/runs requests.
func (c *ReconciliationController) TriggerRun(ctx *gin.Context) {
	var req dto.TriggerRunRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid start date, expected YYYY-MM-DD",
		})
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid end date, expected YYYY-MM-DD",
		})
		return
	}
	// The range is inclusive of the whole end day.
	end = end.Add(24*time.Hour - time.Second)

	strategies := make([]entity.MatchStrategy, len(req.Strategies))
	for i, s := range req.Strategies {
		strategies[i] = entity.MatchStrategy(s)
	}

	input := reconciliation.TriggerReconciliationInput{
		Range:      valueobject.DateRange{Start: start, End: end},
		Strategies: strategies,
	}

	summary, err := c.triggerUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToRunSummaryResponse(summary))
}

// SuggestMatches handles GET /reconciliation/receipts/:id/suggestions requests.
func (c *ReconciliationController) SuggestMatches(ctx *gin.Context) {
	receiptID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid receipt ID format",
		})
		return
	}

	output, err := c.suggestUseCase.Execute(ctx.Request.Context(), reconciliation.SuggestMatchesInput{
		ReceiptID: receiptID,
	})
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToSuggestMatchesResponse(output))
}

// ConfirmMatch handles POST /reconciliation/matches requests.
func (c *ReconciliationController) ConfirmMatch(ctx *gin.Context) {
	var req dto.ConfirmMatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid invoice ID format",
		})
		return
	}
	receiptID, err := uuid.Parse(req.ReceiptID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid receipt ID format",
		})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid amount format",
		})
		return
	}

	input := reconciliation.ConfirmMatchInput{
		InvoiceID: invoiceID,
		ReceiptID: receiptID,
		Amount:    amount,
		Note:      req.Note,
	}

	match, err := c.confirmUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToMatchResponse(match))
}

// ReverseMatch handles POST /reconciliation/matches/:id/reverse requests.
func (c *ReconciliationController) ReverseMatch(ctx *gin.Context) {
	matchID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid match ID format",
		})
		return
	}

	var req dto.ReverseMatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	input := reconciliation.ReverseMatchInput{
		MatchID: matchID,
		Reason:  req.Reason,
	}

	reversal, err := c.reverseUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToMatchResponse(reversal))
}

// handleReconciliationError handles reconciliation errors and returns appropriate HTTP responses.
func (c *ReconciliationController) handleReconciliationError(ctx *gin.Context, err error) {
	var recErr *domainerror.ReconciliationError
	if errors.As(err, &recErr) {
		statusCode := c.getStatusCodeForReconciliationError(recErr.Code)
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: recErr.Message,
			Code:  string(recErr.Code),
		})
		return
	}

	// Generic server error
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// getStatusCodeForReconciliationError maps error codes to HTTP status codes.
func (c *ReconciliationController) getStatusCodeForReconciliationError(code domainerror.ReconciliationErrorCode) int {
	switch code {
	case domainerror.ErrCodeInvoiceNotFound,
		domainerror.ErrCodeReceiptNotFound,
		domainerror.ErrCodeMatchNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeNonPositiveAmount,
		domainerror.ErrCodeAmountExceedsRemaining,
		domainerror.ErrCodeCustomerMismatch,
		domainerror.ErrCodeInvoiceNotSettleable,
		domainerror.ErrCodeInvalidDateRange,
		domainerror.ErrCodeUnknownStrategy,
		domainerror.ErrCodeMissingResolutionNote:
		return http.StatusBadRequest
	case domainerror.ErrCodeVersionConflict,
		domainerror.ErrCodePassInProgress,
		domainerror.ErrCodeMatchAlreadyReversed,
		domainerror.ErrCodeReversalNotReversible:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
