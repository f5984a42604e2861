package models

import "time"

type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "draft"
	InvoicePosted InvoiceStatus = "posted"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceVoid   InvoiceStatus = "void"
)

type InvoiceKind string

const (
	InvoiceMain      InvoiceKind = "main"
	InvoiceExtension InvoiceKind = "extension"
)

// Invoice is a billing document attached to a booking. A booking carries at
// most one non-void main invoice; every extension gets its own invoice so it
// can be reversed on its own without touching the rest of the booking.
type Invoice struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	BookingID     uint          `json:"booking_id" gorm:"not null;index"`
	InvoiceNumber string        `json:"invoice_number" gorm:"unique"`
	Kind          InvoiceKind   `json:"kind" gorm:"type:VARCHAR(20);not null;default:'main'"`
	Status        InvoiceStatus `json:"status" gorm:"type:VARCHAR(20);not null;default:'draft'"`

	Subtotal  float64 `json:"subtotal" gorm:"type:numeric(12,2)"`
	TaxTotal  float64 `json:"tax_total" gorm:"type:numeric(12,2)"`
	Total     float64 `json:"total" gorm:"type:numeric(12,2)"`
	PaidTotal float64 `json:"paid_total" gorm:"type:numeric(12,2)"`

	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`

	IssuedAt  *time.Time `json:"issued_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Immutable reports whether the invoice locks its booking's dates.
func (i *Invoice) Immutable() bool {
	return i.Status == InvoicePosted || i.Status == InvoicePaid
}
