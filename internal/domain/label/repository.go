package label

import (
	"context"
	"time"
)

// SortKey selects the field Query orders by.
type SortKey string

const (
	SortByIssuedAt     SortKey = "issued_at"
	SortBySerialNumber SortKey = "serial_number"
	SortByExpiryDate   SortKey = "expiry_date"
	SortByProductCode  SortKey = "product_code"
	SortByLocation     SortKey = "location"
)

// IsValid checks if the sort key is one of the known fields.
func (k SortKey) IsValid() bool {
	switch k {
	case SortByIssuedAt, SortBySerialNumber, SortByExpiryDate, SortByProductCode, SortByLocation:
		return true
	}
	return false
}

// Filter is a conjunction over record fields. Zero-valued members are
// ignored, so the empty Filter matches everything.
type Filter struct {
	Category    *Category
	ProductCode string
	Location    string
	IssuedFrom  *time.Time
	IssuedTo    *time.Time
}

// OutboundFilter is a conjunction over outbound ledger fields.
type OutboundFilter struct {
	Location    string
	ProductCode string
	Actor       string
	RemovedFrom *time.Time
	RemovedTo   *time.Time
}

// RecordRepository defines the interface for label record persistence.
// The ledger is append-only: there is no update operation, only Create,
// reads, and the two removal paths (delete for corrections, outbound
// deduction through the transaction scope).
type RecordRepository interface {
	// Create persists a new record. The serial number must already be
	// assigned and is never generated by the store itself.
	Create(ctx context.Context, rec *Record) error

	// FindBySerial finds a record by its serial number
	FindBySerial(ctx context.Context, serial int64) (*Record, error)

	// FindByLocationAndProduct finds the records currently at a location for
	// a product code. Category is deliberately not part of this key.
	FindByLocationAndProduct(ctx context.Context, location, productCode string) ([]Record, error)

	// Query finds records matching the filter with a stable sort.
	// An unknown or empty sort key defaults to issued_at descending.
	Query(ctx context.Context, filter Filter, sortBy SortKey, ascending bool) ([]Record, error)

	// DeleteBySerials permanently removes the given serials and reports how
	// many rows matched. Absent serials are no-ops, not errors.
	DeleteBySerials(ctx context.Context, serials []int64) (int64, error)

	// All returns the full ledger, for aggregation
	All(ctx context.Context) ([]Record, error)

	// MaxSerial returns the highest serial ever recorded, 0 when empty
	MaxSerial(ctx context.Context) (int64, error)
}

// OutboundRepository defines the interface for the outbound ledger.
type OutboundRepository interface {
	// Create appends one outbound record
	Create(ctx context.Context, rec *OutboundRecord) error

	// Query finds outbound records matching the filter, most recent first
	Query(ctx context.Context, filter OutboundFilter) ([]OutboundRecord, error)
}

// SerialRepository defines the interface for the persistent serial counter.
type SerialRepository interface {
	// Next allocates and durably persists the next serial number:
	// max(existing)+1, starting at 1 when nothing was ever allocated.
	// The compute-and-persist step is atomic with respect to concurrent
	// callers, in-process or not.
	Next(ctx context.Context) (int64, error)

	// Peek returns the serial Next would hand out, without allocating.
	// ok is false when no serial was ever allocated and the ledger is empty.
	Peek(ctx context.Context) (next int64, ok bool, err error)
}
