// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	domainerror "github.com/travelbooks/backoffice/internal/domain/error"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
	"github.com/travelbooks/backoffice/internal/integration/persistence/model"
)

var invoiceUnsettledStatuses = []string{
	string(entity.InvoiceStatusOpen),
	string(entity.InvoiceStatusPartiallyMatched),
	string(entity.InvoiceStatusOverdue),
}

var receiptUnsettledStatuses = []string{
	string(entity.ReceiptStatusUnmatched),
	string(entity.ReceiptStatusPartiallyAllocated),
}

// ledgerStore implements the adapter.LedgerStore interface.
type ledgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates a new ledger store instance.
func NewLedgerStore(db *gorm.DB) adapter.LedgerStore {
	return &ledgerStore{db: db}
}

// LoadUnsettledInvoices returns unsettled invoices issued within the range.
func (s *ledgerStore) LoadUnsettledInvoices(ctx context.Context, r valueobject.DateRange) ([]*entity.Invoice, error) {
	var models []model.InvoiceModel
	err := s.db.WithContext(ctx).
		Where("status IN ?", invoiceUnsettledStatuses).
		Where("issue_date >= ? AND issue_date <= ?", r.Start, r.End).
		Order("due_date ASC, number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]*entity.Invoice, len(models))
	for i := range models {
		invoices[i] = models[i].ToEntity()
	}
	return invoices, nil
}

// LoadUnsettledReceipts returns unsettled receipts paid within the range.
func (s *ledgerStore) LoadUnsettledReceipts(ctx context.Context, r valueobject.DateRange) ([]*entity.Receipt, error) {
	var models []model.ReceiptModel
	err := s.db.WithContext(ctx).
		Where("status IN ?", receiptUnsettledStatuses).
		Where("payment_date >= ? AND payment_date <= ?", r.Start, r.End).
		Order("payment_date ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	receipts := make([]*entity.Receipt, len(models))
	for i := range models {
		receipts[i] = models[i].ToEntity()
	}
	return receipts, nil
}

// LoadInvoices returns every invoice issued within the range regardless of
// status, in the same deterministic order as the unsettled pool.
func (s *ledgerStore) LoadInvoices(ctx context.Context, r valueobject.DateRange) ([]*entity.Invoice, error) {
	var models []model.InvoiceModel
	err := s.db.WithContext(ctx).
		Where("issue_date >= ? AND issue_date <= ?", r.Start, r.End).
		Order("due_date ASC, number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]*entity.Invoice, len(models))
	for i := range models {
		invoices[i] = models[i].ToEntity()
	}
	return invoices, nil
}

// LoadReceipts returns every receipt paid within the range regardless of
// status.
func (s *ledgerStore) LoadReceipts(ctx context.Context, r valueobject.DateRange) ([]*entity.Receipt, error) {
	var models []model.ReceiptModel
	err := s.db.WithContext(ctx).
		Where("payment_date >= ? AND payment_date <= ?", r.Start, r.End).
		Order("payment_date ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	receipts := make([]*entity.Receipt, len(models))
	for i := range models {
		receipts[i] = models[i].ToEntity()
	}
	return receipts, nil
}

// LoadOpenInvoicesByCustomer returns a customer's settleable invoices,
// oldest due date first.
func (s *ledgerStore) LoadOpenInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Invoice, error) {
	var models []model.InvoiceModel
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("status IN ?", invoiceUnsettledStatuses).
		Order("due_date ASC, number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]*entity.Invoice, len(models))
	for i := range models {
		invoices[i] = models[i].ToEntity()
	}
	return invoices, nil
}

// LoadOpenInvoices returns every settleable invoice.
func (s *ledgerStore) LoadOpenInvoices(ctx context.Context) ([]*entity.Invoice, error) {
	var models []model.InvoiceModel
	err := s.db.WithContext(ctx).
		Where("status IN ?", invoiceUnsettledStatuses).
		Order("customer_id ASC, due_date ASC, number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]*entity.Invoice, len(models))
	for i := range models {
		invoices[i] = models[i].ToEntity()
	}
	return invoices, nil
}

// GetInvoice retrieves an invoice by ID. A missing row yields (nil, nil).
func (s *ledgerStore) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*entity.Invoice, error) {
	var m model.InvoiceModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToEntity(), nil
}

// GetReceipt retrieves a receipt by ID. A missing row yields (nil, nil).
func (s *ledgerStore) GetReceipt(ctx context.Context, receiptID uuid.UUID) (*entity.Receipt, error) {
	var m model.ReceiptModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", receiptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToEntity(), nil
}

// GetMatch retrieves a match by ID. A missing row yields (nil, nil).
func (s *ledgerStore) GetMatch(ctx context.Context, matchID uuid.UUID) (*entity.Match, error) {
	var m model.MatchModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToEntity(), nil
}

// HasReversal reports whether a reversal row already references the match.
func (s *ledgerStore) HasReversal(ctx context.Context, matchID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.MatchModel{}).
		Where("reverses_match_id = ?", matchID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListMatches returns matches whose receipt was paid within the range,
// oldest first. Reversal rows are included, so summed amounts are net.
func (s *ledgerStore) ListMatches(ctx context.Context, r valueobject.DateRange) ([]*entity.Match, error) {
	var models []model.MatchModel
	err := s.db.WithContext(ctx).
		Joins("JOIN receipts ON receipts.id = matches.receipt_id").
		Where("receipts.payment_date >= ? AND receipts.payment_date <= ?", r.Start, r.End).
		Order("matches.created_at ASC, matches.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	matches := make([]*entity.Match, len(models))
	for i := range models {
		matches[i] = models[i].ToEntity()
	}
	return matches, nil
}

// RecordMatch writes the match row and both allocation updates in one
// transaction. Each conditional update requires the persisted version to
// still equal the version read at pass start; a miss on either rolls the
// whole write back and reports ErrVersionConflict so the caller can
// recompute the candidate against fresh state.
func (s *ledgerStore) RecordMatch(
	ctx context.Context,
	match *entity.Match,
	invoice adapter.InvoiceAllocationUpdate,
	receipt adapter.ReceiptAllocationUpdate,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model.MatchFromEntity(match)).Error; err != nil {
			return err
		}

		now := time.Now().UTC()

		res := tx.Model(&model.InvoiceModel{}).
			Where("id = ? AND version = ?", invoice.InvoiceID, invoice.ExpectedVersion).
			Updates(map[string]interface{}{
				"allocated_amount": invoice.AllocatedAmount,
				"status":           string(invoice.Status),
				"version":          invoice.ExpectedVersion + 1,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, domainerror.ErrVersionConflict)
		}

		res = tx.Model(&model.ReceiptModel{}).
			Where("id = ? AND version = ?", receipt.ReceiptID, receipt.ExpectedVersion).
			Updates(map[string]interface{}{
				"allocated_amount": receipt.AllocatedAmount,
				"status":           string(receipt.Status),
				"version":          receipt.ExpectedVersion + 1,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("receipt %s: %w", receipt.ReceiptID, domainerror.ErrVersionConflict)
		}

		return nil
	})
}
