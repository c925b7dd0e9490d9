package dto

import (
	"time"

	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
)

// TriggerRunRequest represents the request body for starting a
// reconciliation pass.
type TriggerRunRequest struct {
	Start      string   `json:"start" binding:"required"`
	End        string   `json:"end" binding:"required"`
	Strategies []string `json:"strategies,omitempty"`
}

// ConflictDTO represents a candidate that lost the version race past the
// retry limit.
type ConflictDTO struct {
	InvoiceID string `json:"invoice_id"`
	ReceiptID string `json:"receipt_id"`
	Strategy  string `json:"strategy"`
	Reason    string `json:"reason"`
}

// PartitionErrorDTO represents a customer partition that failed and was
// isolated from the rest of the pass.
type PartitionErrorDTO struct {
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason"`
}

// RunSummaryResponse represents the outcome of one reconciliation pass.
type RunSummaryResponse struct {
	MatchedInvoiceCount   int                 `json:"matched_invoice_count"`
	PartialInvoiceCount   int                 `json:"partial_invoice_count"`
	UnmatchedInvoiceCount int                 `json:"unmatched_invoice_count"`
	UnmatchedReceiptCount int                 `json:"unmatched_receipt_count"`
	TotalMatchedAmount    string              `json:"total_matched_amount"`
	MatchCount            int                 `json:"match_count"`
	DiscrepancyCount      int                 `json:"discrepancy_count"`
	Conflicts             []ConflictDTO       `json:"conflicts"`
	PartitionErrors       []PartitionErrorDTO `json:"partition_errors"`
	StartedAt             time.Time           `json:"started_at"`
	FinishedAt            time.Time           `json:"finished_at"`
}

// ConfirmMatchRequest represents the request body for committing a manual
// match.
type ConfirmMatchRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
	ReceiptID string `json:"receipt_id" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Note      string `json:"note,omitempty" binding:"omitempty,max=1000"`
}

// ReverseMatchRequest represents the request body for reversing a match.
type ReverseMatchRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=1000"`
}

// MatchResponse represents a recorded match in API responses.
type MatchResponse struct {
	ID              string    `json:"id"`
	InvoiceID       string    `json:"invoice_id"`
	ReceiptID       string    `json:"receipt_id"`
	MatchedAmount   string    `json:"matched_amount"`
	Confidence      float64   `json:"confidence"`
	Strategy        string    `json:"strategy"`
	ReversesMatchID *string   `json:"reverses_match_id,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToRunSummaryResponse converts a pass summary to its response DTO.
func ToRunSummaryResponse(s *valueobject.ReconciliationSummary) RunSummaryResponse {
	conflicts := make([]ConflictDTO, len(s.Conflicts))
	for i, c := range s.Conflicts {
		conflicts[i] = ConflictDTO{
			InvoiceID: c.InvoiceID.String(),
			ReceiptID: c.ReceiptID.String(),
			Strategy:  string(c.Strategy),
			Reason:    c.Reason,
		}
	}

	partitionErrors := make([]PartitionErrorDTO, len(s.PartitionErrors))
	for i, p := range s.PartitionErrors {
		partitionErrors[i] = PartitionErrorDTO{
			CustomerID: p.CustomerID.String(),
			Reason:     p.Reason,
		}
	}

	return RunSummaryResponse{
		MatchedInvoiceCount:   s.MatchedInvoiceCount,
		PartialInvoiceCount:   s.PartialInvoiceCount,
		UnmatchedInvoiceCount: s.UnmatchedInvoiceCount,
		UnmatchedReceiptCount: s.UnmatchedReceiptCount,
		TotalMatchedAmount:    s.TotalMatchedAmount.String(),
		MatchCount:            s.MatchCount,
		DiscrepancyCount:      s.DiscrepancyCount,
		Conflicts:             conflicts,
		PartitionErrors:       partitionErrors,
		StartedAt:             s.StartedAt,
		FinishedAt:            s.FinishedAt,
	}
}

// ToMatchResponse converts a domain Match entity to a MatchResponse DTO.
func ToMatchResponse(m *entity.Match) MatchResponse {
	response := MatchResponse{
		ID:            m.ID.String(),
		InvoiceID:     m.InvoiceID.String(),
		ReceiptID:     m.ReceiptID.String(),
		MatchedAmount: m.MatchedAmount.String(),
		Confidence:    m.Confidence,
		Strategy:      string(m.Strategy),
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
	}
	if m.ReversesMatchID != nil {
		id := m.ReversesMatchID.String()
		response.ReversesMatchID = &id
	}
	return response
}
