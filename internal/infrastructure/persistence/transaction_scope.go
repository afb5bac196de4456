package persistence

import (
	"context"

	appledger "github.com/labelops/engine/internal/application/ledger"
	"github.com/labelops/engine/internal/domain/label"
	"gorm.io/gorm"
)

// GormTransactionScope implements ledger.TransactionScope using GORM
// transactions. With the store opened in immediate-lock mode, Execute takes
// the SQLite write lock up front and holds it over the whole
// read-compute-write span, so concurrent processes serialize cleanly; lock
// saturation surfaces as BUSY after the configured busy timeout.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a store transaction.
// If the function returns an error, the transaction is rolled back and
// nothing reaches durable storage.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return mapStoreError(err)
}

// gormTransactionalRepositories provides repositories bound to one
// transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Records returns the label record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Records() label.RecordRepository {
	return NewGormRecordRepository(r.tx)
}

// Outbound returns the outbound ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Outbound() label.OutboundRepository {
	return NewGormOutboundRepository(r.tx)
}

// Serials returns the serial counter repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Serials() label.SerialRepository {
	return NewGormSerialRepository(r.tx)
}

// Ensure GormTransactionScope implements ledger.TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements ledger.TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
