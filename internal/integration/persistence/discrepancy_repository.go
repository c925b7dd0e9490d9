package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/domain/valueobject"
	"github.com/travelbooks/backoffice/internal/integration/persistence/model"
)

// discrepancyRepository implements the adapter.DiscrepancyRepository interface.
type discrepancyRepository struct {
	db *gorm.DB
}

// NewDiscrepancyRepository creates a new discrepancy repository instance.
func NewDiscrepancyRepository(db *gorm.DB) adapter.DiscrepancyRepository {
	return &discrepancyRepository{db: db}
}

// Create persists a newly detected discrepancy.
func (r *discrepancyRepository) Create(ctx context.Context, d *entity.Discrepancy) error {
	return r.db.WithContext(ctx).Create(model.DiscrepancyFromEntity(d)).Error
}

// GetByID retrieves a discrepancy by ID. A missing row yields (nil, nil).
func (r *discrepancyRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Discrepancy, error) {
	var m model.DiscrepancyModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToEntity(), nil
}

// ListByRange returns discrepancies detected within the range, newest first.
func (r *discrepancyRepository) ListByRange(ctx context.Context, dr valueobject.DateRange) ([]*entity.Discrepancy, error) {
	var models []model.DiscrepancyModel
	err := r.db.WithContext(ctx).
		Where("detected_at >= ? AND detected_at <= ?", dr.Start, dr.End).
		Order("detected_at DESC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	discrepancies := make([]*entity.Discrepancy, len(models))
	for i := range models {
		discrepancies[i] = models[i].ToEntity()
	}
	return discrepancies, nil
}

// CountUnresolved returns the number of unresolved discrepancies attached
// to the given invoices.
func (r *discrepancyRepository) CountUnresolved(ctx context.Context, invoiceIDs []uuid.UUID) (int, error) {
	if len(invoiceIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DiscrepancyModel{}).
		Where("invoice_id IN ? AND resolved = ?", invoiceIDs, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindUnresolved returns the unresolved discrepancy of the given type for an
// invoice, or nil when none exists.
func (r *discrepancyRepository) FindUnresolved(ctx context.Context, invoiceID uuid.UUID, dType entity.DiscrepancyType) (*entity.Discrepancy, error) {
	var m model.DiscrepancyModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND type = ? AND resolved = ?", invoiceID, string(dType), false).
		Order("detected_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToEntity(), nil
}

// Resolve marks a discrepancy resolved with a note.
func (r *discrepancyRepository) Resolve(ctx context.Context, id uuid.UUID, note string) error {
	return r.db.WithContext(ctx).
		Model(&model.DiscrepancyModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved":        true,
			"resolution_note": note,
		}).Error
}
