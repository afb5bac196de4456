package label

import (
	"strings"
	"time"

	"github.com/labelops/engine/internal/domain/shared"
	"github.com/labelops/engine/internal/domain/zone"
)

// Record is one issued inventory label: a unit of stock bound to a unique
// serial number at a storage location. Records are append-only; they leave
// the ledger only through outbound deduction or the manual correction path,
// never through in-place edits.
type Record struct {
	SerialNumber int64      `gorm:"primaryKey;autoIncrement:false"`
	Category     Category   `gorm:"type:text;not null;index"`
	ProductCode  string     `gorm:"not null;index:idx_label_location_product,priority:2"`
	ProductName  string     `gorm:"not null"`
	Lot          string     `gorm:"not null"`
	ExpiryDate   *time.Time `gorm:"type:date"`
	Version      string     `gorm:"not null"`
	Location     string     `gorm:"not null;index:idx_label_location_product,priority:1"`
	IssuedAt     time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Record) TableName() string {
	return "label_records"
}

// NewRecord builds an unpersisted label record for the given (already
// validated) location. The serial number is zero until the ledger assigns
// one inside the append transaction. Category policy is enforced here:
// categories requiring full metadata reject blank lot/expiry/version, the
// sample category gets its sentinel values regardless of input.
func NewRecord(category Category, productCode, productName, lot string, expiry *time.Time, version string, loc zone.Location, issuedAt time.Time) (*Record, error) {
	if !category.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("unknown category " + string(category))
	}
	productCode = strings.ToUpper(strings.TrimSpace(productCode))
	if productCode == "" {
		return nil, shared.ErrInvalidInput.WithMessage("product code is required")
	}

	policy := category.Policy()
	if policy.RequiresLotExpiryVersion {
		if strings.TrimSpace(lot) == "" || expiry == nil || strings.TrimSpace(version) == "" {
			return nil, shared.ErrInvalidInput.WithMessage(
				string(category) + " labels require lot, expiry date and version")
		}
	} else {
		lot = SampleLot
		expiry = nil
		version = NoValue
	}

	return &Record{
		Category:    category,
		ProductCode: productCode,
		ProductName: productName,
		Lot:         strings.TrimSpace(lot),
		ExpiryDate:  expiry,
		Version:     strings.TrimSpace(version),
		Location:    loc.String(),
		IssuedAt:    issuedAt,
	}, nil
}

// DisposalDate derives the discard-scheduling date: the expiry date with the
// year advanced by one. It is always recomputed from ExpiryDate and never
// stored, so the two cannot drift. Absent expiry yields absent disposal.
func (r *Record) DisposalDate() *time.Time {
	if r.ExpiryDate == nil {
		return nil
	}
	e := *r.ExpiryDate
	d := time.Date(e.Year()+1, e.Month(), e.Day(), 0, 0, 0, 0, e.Location())
	return &d
}

// HasExpiry reports whether the record carries a real expiry date.
func (r *Record) HasExpiry() bool {
	return r.ExpiryDate != nil
}
