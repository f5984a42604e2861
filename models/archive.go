package models

import (
	"time"

	"gorm.io/datatypes"
)

type ArchiveKind string

const (
	ArchiveCancellation      ArchiveKind = "cancellation"
	ArchiveExtensionReversal ArchiveKind = "extension_reversal"
)

// ReversalArchive keeps an immutable snapshot of the invoices, payments and
// ledger entries a reversal removed from live views. Live balance queries
// never read this table.
type ReversalArchive struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	BookingID uint           `json:"booking_id" gorm:"not null;index"`
	Kind      ArchiveKind    `json:"kind" gorm:"type:VARCHAR(30);not null"`
	Snapshot  datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
}
