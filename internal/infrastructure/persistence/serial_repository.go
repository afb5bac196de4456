package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/labelops/engine/internal/domain/label"
	"gorm.io/gorm"
)

// serialCounter is the single-row table backing the serial allocator.
// Keeping the counter separate from the ledger means deleting the newest
// record can never cause a serial to be reissued.
type serialCounter struct {
	ID        int   `gorm:"primaryKey"`
	LastValue int64 `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (serialCounter) TableName() string {
	return "serial_counter"
}

const serialCounterID = 1

// GormSerialRepository implements label.SerialRepository using GORM.
// Next must run inside the caller's transaction (via the transaction scope)
// so the compute-and-persist step is atomic across processes.
type GormSerialRepository struct {
	db *gorm.DB
}

// NewGormSerialRepository creates a new GormSerialRepository.
func NewGormSerialRepository(db *gorm.DB) *GormSerialRepository {
	return &GormSerialRepository{db: db}
}

// Next allocates the next serial: max(existing)+1, seeded from the ledger
// the first time so pre-counter data keeps its numbering, then strictly
// counter-driven so deleted records never free their serials.
func (r *GormSerialRepository) Next(ctx context.Context) (int64, error) {
	counter, err := r.load(ctx)
	if err != nil {
		return 0, err
	}

	counter.LastValue++
	counter.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(counter).Error; err != nil {
		return 0, mapStoreError(err)
	}
	return counter.LastValue, nil
}

// Peek returns the serial Next would hand out, without allocating.
func (r *GormSerialRepository) Peek(ctx context.Context) (int64, bool, error) {
	var counter serialCounter
	err := r.db.WithContext(ctx).First(&counter, "id = ?", serialCounterID).Error
	if err == nil {
		return counter.LastValue + 1, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, mapStoreError(err)
	}

	maxSerial, err := NewGormRecordRepository(r.db).MaxSerial(ctx)
	if err != nil {
		return 0, false, err
	}
	if maxSerial == 0 {
		return 0, false, nil
	}
	return maxSerial + 1, true, nil
}

// load fetches the counter row, creating it from the ledger's maximum
// serial when missing.
func (r *GormSerialRepository) load(ctx context.Context) (*serialCounter, error) {
	var counter serialCounter
	err := r.db.WithContext(ctx).First(&counter, "id = ?", serialCounterID).Error
	if err == nil {
		return &counter, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, mapStoreError(err)
	}

	maxSerial, err := NewGormRecordRepository(r.db).MaxSerial(ctx)
	if err != nil {
		return nil, err
	}
	counter = serialCounter{ID: serialCounterID, LastValue: maxSerial, UpdatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Create(&counter).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return &counter, nil
}

// Ensure GormSerialRepository implements label.SerialRepository
var _ label.SerialRepository = (*GormSerialRepository)(nil)
