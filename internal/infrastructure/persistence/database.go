package persistence

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labelops/engine/internal/domain/label"
	"github.com/labelops/engine/internal/domain/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StoreConfig holds the settings of the SQLite ledger store.
type StoreConfig struct {
	// Path is the ledger database file. Several uncoordinated OS processes
	// may open the same file; SQLite's file locking serializes writers.
	Path string
	// BusyTimeout bounds how long a writer waits for the file lock before
	// the operation surfaces BUSY. Never wait indefinitely: the caller owns
	// retry policy.
	BusyTimeout time.Duration
}

// DefaultBusyTimeout is used when StoreConfig leaves BusyTimeout unset.
const DefaultBusyTimeout = 5 * time.Second

// Database holds the store connection and provides transactional access.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (and migrates) the ledger store. WAL journaling lets
// readers run concurrently with a writer while still observing consistent
// snapshots; immediate transactions take the write lock up front so the
// read-compute-write span of a mutation never deadlocks on lock upgrade.
func NewDatabase(cfg StoreConfig) (*Database, error) {
	if cfg.Path == "" {
		return nil, shared.ErrStorageUnavailable.WithMessage("ledger store path is empty")
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}

	dsn := fmt.Sprintf("file:%s?%s", cfg.Path, url.Values{
		"_busy_timeout": {strconv.Itoa(int(busy.Milliseconds()))},
		"_journal_mode": {"WAL"},
		"_txlock":       {"immediate"},
		"_fk":           {"1"},
	}.Encode())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, shared.ErrStorageUnavailable.WithMessage(
			fmt.Sprintf("cannot open ledger store %s: %v", cfg.Path, err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, shared.ErrStorageUnavailable.WithMessage(err.Error())
	}
	// A single connection keeps transaction semantics simple under the
	// immediate-lock regime; cross-process concurrency is SQLite's job.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&label.Record{}, &label.OutboundRecord{}, &serialCounter{}); err != nil {
		return nil, shared.ErrStorageUnavailable.WithMessage(
			fmt.Sprintf("migrate ledger store: %v", err))
	}

	return &Database{DB: db}, nil
}

// Close closes the store connection.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the store is reachable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return shared.ErrStorageUnavailable.WithMessage(err.Error())
	}
	if err := sqlDB.Ping(); err != nil {
		return shared.ErrStorageUnavailable.WithMessage(err.Error())
	}
	return nil
}

// mapStoreError translates driver failures into the engine's error
// taxonomy so callers never have to understand SQLite specifics.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"):
		return shared.ErrBusy
	case strings.Contains(msg, "unable to open database"),
		strings.Contains(msg, "disk I/O error"),
		strings.Contains(msg, "database disk image is malformed"):
		return shared.ErrStorageUnavailable.WithMessage(msg)
	}
	return err
}
