package label

import (
	"time"

	"github.com/google/uuid"
)

// OutboundRecord is the audit-trail side of an outbound deduction: exactly
// one per removed label record, quantity always 1 (multi-unit removals are
// multiple records). Product and lot fields are denormalized from the source
// record at removal time so the outbound ledger stays readable after the
// label row is gone.
type OutboundRecord struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	SourceSerialNumber int64     `gorm:"not null;index"`
	RemovedAt          time.Time `gorm:"not null;index"`
	Location           string    `gorm:"not null"`
	ProductCode        string    `gorm:"not null;index"`
	ProductName        string    `gorm:"not null"`
	Lot                string    `gorm:"not null"`
	Category           Category  `gorm:"type:text;not null"`
	Quantity           int       `gorm:"not null"`
	Actor              string    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OutboundRecord) TableName() string {
	return "outbound_records"
}

// NewOutboundRecord captures the removal of one label record.
func NewOutboundRecord(source *Record, actor string, removedAt time.Time) *OutboundRecord {
	return &OutboundRecord{
		ID:                 uuid.New(),
		SourceSerialNumber: source.SerialNumber,
		RemovedAt:          removedAt,
		Location:           source.Location,
		ProductCode:        source.ProductCode,
		ProductName:        source.ProductName,
		Lot:                source.Lot,
		Category:           source.Category,
		Quantity:           1,
		Actor:              actor,
	}
}
