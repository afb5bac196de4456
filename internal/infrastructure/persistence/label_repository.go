package persistence

import (
	"context"
	"errors"

	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRecordRepository implements label.RecordRepository using GORM.
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository.
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// Create persists a new record. The serial number must already be assigned.
func (r *GormRecordRepository) Create(ctx context.Context, rec *label.Record) error {
	if rec.SerialNumber < 1 {
		return shared.ErrInvalidInput.WithMessage("record has no serial number")
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return mapStoreError(err)
	}
	return nil
}

// FindBySerial finds a record by its serial number.
func (r *GormRecordRepository) FindBySerial(ctx context.Context, serial int64) (*label.Record, error) {
	var rec label.Record
	if err := r.db.WithContext(ctx).First(&rec, "serial_number = ?", serial).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, mapStoreError(err)
	}
	return &rec, nil
}

// FindByLocationAndProduct finds the records currently at a location for a
// product code, oldest issuance first.
func (r *GormRecordRepository) FindByLocationAndProduct(ctx context.Context, location, productCode string) ([]label.Record, error) {
	var records []label.Record
	if err := r.db.WithContext(ctx).
		Where("location = ? AND product_code = ?", location, productCode).
		Order("issued_at ASC, serial_number ASC").
		Find(&records).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return records, nil
}

// Query finds records matching the filter with a stable sort.
func (r *GormRecordRepository) Query(ctx context.Context, filter label.Filter, sortBy label.SortKey, ascending bool) ([]label.Record, error) {
	query := r.db.WithContext(ctx).Model(&label.Record{})
	query = applyRecordFilter(query, filter)

	if !sortBy.IsValid() {
		sortBy = label.SortByIssuedAt
		ascending = false
	}
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	// Serial number is the stable tie-break: unique and issuance-ordered.
	query = query.Order(string(sortBy) + " " + dir).Order("serial_number " + dir)

	var records []label.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return records, nil
}

// DeleteBySerials permanently removes the given serials.
func (r *GormRecordRepository) DeleteBySerials(ctx context.Context, serials []int64) (int64, error) {
	if len(serials) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&label.Record{}, "serial_number IN ?", serials)
	if result.Error != nil {
		return 0, mapStoreError(result.Error)
	}
	return result.RowsAffected, nil
}

// All returns the full ledger in issuance order.
func (r *GormRecordRepository) All(ctx context.Context) ([]label.Record, error) {
	var records []label.Record
	if err := r.db.WithContext(ctx).
		Order("serial_number ASC").
		Find(&records).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return records, nil
}

// MaxSerial returns the highest serial ever recorded, 0 when empty.
func (r *GormRecordRepository) MaxSerial(ctx context.Context) (int64, error) {
	var result struct {
		Max int64
	}
	if err := r.db.WithContext(ctx).
		Model(&label.Record{}).
		Select("COALESCE(MAX(serial_number), 0) as max").
		Scan(&result).Error; err != nil {
		return 0, mapStoreError(err)
	}
	return result.Max, nil
}

func applyRecordFilter(query *gorm.DB, filter label.Filter) *gorm.DB {
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.ProductCode != "" {
		query = query.Where("product_code = ?", filter.ProductCode)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issued_at >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		query = query.Where("issued_at <= ?", *filter.IssuedTo)
	}
	return query
}

// Ensure GormRecordRepository implements label.RecordRepository
var _ label.RecordRepository = (*GormRecordRepository)(nil)
