package dto

import (
	"github.com/travelbooks/backoffice/internal/application/usecase/reconciliation"
)

// SuggestionDTO represents one ranked invoice candidate for a receipt.
type SuggestionDTO struct {
	InvoiceID       string  `json:"invoice_id"`
	InvoiceNumber   string  `json:"invoice_number"`
	InvoiceAmount   string  `json:"invoice_amount"`
	RemainingAmount string  `json:"remaining_amount"`
	Confidence      float64 `json:"confidence"`
	BelowThreshold  bool    `json:"below_threshold"`
	MatchReason     string  `json:"match_reason,omitempty"`
}

// SuggestMatchesResponse represents the response for a suggestion lookup.
type SuggestMatchesResponse struct {
	ReceiptID    string          `json:"receipt_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Suggestions  []SuggestionDTO `json:"suggestions"`
}

// ToSuggestMatchesResponse converts a SuggestMatchesOutput to its response DTO.
func ToSuggestMatchesResponse(out *reconciliation.SuggestMatchesOutput) SuggestMatchesResponse {
	suggestions := make([]SuggestionDTO, len(out.Suggestions))
	for i, s := range out.Suggestions {
		suggestions[i] = SuggestionDTO{
			InvoiceID:       s.InvoiceID.String(),
			InvoiceNumber:   s.InvoiceNumber,
			InvoiceAmount:   s.InvoiceAmount.String(),
			RemainingAmount: s.RemainingAmount.String(),
			Confidence:      s.Confidence,
			BelowThreshold:  s.BelowThreshold,
			MatchReason:     s.MatchReason,
		}
	}

	return SuggestMatchesResponse{
		ReceiptID:    out.ReceiptID.String(),
		CustomerID:   out.CustomerID.String(),
		CustomerName: out.CustomerName,
		Suggestions:  suggestions,
	}
}
