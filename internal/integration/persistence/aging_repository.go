package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/travelbooks/backoffice/internal/application/adapter"
	"github.com/travelbooks/backoffice/internal/domain/entity"
	"github.com/travelbooks/backoffice/internal/integration/persistence/model"
)

// agingRepository implements the adapter.AgingRepository interface.
type agingRepository struct {
	db *gorm.DB
}

// NewAgingRepository creates a new aging repository instance.
func NewAgingRepository(db *gorm.DB) adapter.AgingRepository {
	return &agingRepository{db: db}
}

// ReplaceAll supersedes the entire snapshot set in a single transaction.
func (r *agingRepository) ReplaceAll(ctx context.Context, snapshots []*entity.AgingSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.AgingSnapshotModel{}).Error; err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return nil
		}

		models := make([]*model.AgingSnapshotModel, len(snapshots))
		for i := range snapshots {
			models[i] = model.AgingSnapshotFromEntity(snapshots[i])
		}
		return tx.Create(models).Error
	})
}

// List returns snapshots, optionally filtered to one customer.
func (r *agingRepository) List(ctx context.Context, customerFilter *uuid.UUID) ([]*entity.AgingSnapshot, error) {
	query := r.db.WithContext(ctx).Order("customer_id ASC, bucket ASC")
	if customerFilter != nil {
		query = query.Where("customer_id = ?", *customerFilter)
	}

	var models []model.AgingSnapshotModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	snapshots := make([]*entity.AgingSnapshot, len(models))
	for i := range models {
		snapshots[i] = models[i].ToEntity()
	}
	return snapshots, nil
}
