package dto

import (
	"time"

	"github.com/travelbooks/backoffice/internal/domain/entity"
)

// AgingSnapshotDTO represents one customer/bucket aging row.
type AgingSnapshotDTO struct {
	CustomerID            string    `json:"customer_id"`
	Bucket                string    `json:"bucket"`
	OutstandingAmount     string    `json:"outstanding_amount"`
	OldestOpenInvoiceDate string    `json:"oldest_open_invoice_date"`
	ComputedAt            time.Time `json:"computed_at"`
}

// AccountsReceivableResponse represents the response for the AR aging query.
type AccountsReceivableResponse struct {
	Snapshots []AgingSnapshotDTO `json:"snapshots"`
	Total     int                `json:"total"`
}

// ToAgingSnapshotDTO converts a domain AgingSnapshot entity to its DTO.
func ToAgingSnapshotDTO(s *entity.AgingSnapshot) AgingSnapshotDTO {
	return AgingSnapshotDTO{
		CustomerID:            s.CustomerID.String(),
		Bucket:                string(s.Bucket),
		OutstandingAmount:     s.OutstandingAmount.String(),
		OldestOpenInvoiceDate: s.OldestOpenInvoiceDate.Format("2006-01-02"),
		ComputedAt:            s.ComputedAt,
	}
}
