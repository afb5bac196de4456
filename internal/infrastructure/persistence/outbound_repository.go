package persistence

import (
	"context"

	"github.com/labelops/engine/internal/domain/label"
	"gorm.io/gorm"
)

// GormOutboundRepository implements label.OutboundRepository using GORM.
// The outbound ledger is append-only; there is no update or delete.
type GormOutboundRepository struct {
	db *gorm.DB
}

// NewGormOutboundRepository creates a new GormOutboundRepository.
func NewGormOutboundRepository(db *gorm.DB) *GormOutboundRepository {
	return &GormOutboundRepository{db: db}
}

// Create appends one outbound record.
func (r *GormOutboundRepository) Create(ctx context.Context, rec *label.OutboundRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return mapStoreError(err)
	}
	return nil
}

// Query finds outbound records matching the filter, most recent first.
func (r *GormOutboundRepository) Query(ctx context.Context, filter label.OutboundFilter) ([]label.OutboundRecord, error) {
	query := r.db.WithContext(ctx).Model(&label.OutboundRecord{})
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.ProductCode != "" {
		query = query.Where("product_code = ?", filter.ProductCode)
	}
	if filter.Actor != "" {
		query = query.Where("actor = ?", filter.Actor)
	}
	if filter.RemovedFrom != nil {
		query = query.Where("removed_at >= ?", *filter.RemovedFrom)
	}
	if filter.RemovedTo != nil {
		query = query.Where("removed_at <= ?", *filter.RemovedTo)
	}

	var records []label.OutboundRecord
	if err := query.
		Order("removed_at DESC, source_serial_number DESC").
		Find(&records).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return records, nil
}

// Ensure GormOutboundRepository implements label.OutboundRepository
var _ label.OutboundRepository = (*GormOutboundRepository)(nil)
