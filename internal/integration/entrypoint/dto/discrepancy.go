package dto

import (
	"time"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// ResolveDiscrepancyRequest represents the request body for resolving a
// discrepancy.
type ResolveDiscrepancyRequest struct {
	Note string `json:"note" binding:"required,min=1,max=1000"`
}

// DiscrepancyResponse represents a discrepancy in API responses.
type DiscrepancyResponse struct {
	ID             string    `json:"id"`
	InvoiceID      string    `json:"invoice_id"`
	ExpectedAmount string    `json:"expected_amount"`
	ReceivedAmount string    `json:"received_amount"`
	Delta          string    `json:"delta"`
	Type           string    `json:"type"`
	DetectedAt     time.Time `json:"detected_at"`
	Resolved       bool      `json:"resolved"`
	ResolutionNote string    `json:"resolution_note,omitempty"`
}

// DiscrepancyListResponse represents the response for listing discrepancies.
type DiscrepancyListResponse struct {
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
	Total         int                   `json:"total"`
}

// ToDiscrepancyResponse converts a domain Discrepancy entity to its
// response DTO.
func ToDiscrepancyResponse(d *entity.Discrepancy) DiscrepancyResponse {
	return DiscrepancyResponse{
		ID:             d.ID.String(),
		InvoiceID:      d.InvoiceID.String(),
		ExpectedAmount: d.ExpectedAmount.String(),
		ReceivedAmount: d.ReceivedAmount.String(),
		Delta:          d.Delta.String(),
		Type:           string(d.Type),
		DetectedAt:     d.DetectedAt,
		Resolved:       d.Resolved,
		ResolutionNote: d.ResolutionNote,
	}
}
