package models

import "time"

type PaymentStatus string

const (
	PaymentPosted PaymentStatus = "posted"
	PaymentVoid   PaymentStatus = "void"
)

type PaymentMethod struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"not null;unique"`
	Active bool   `json:"active" gorm:"default:true"`
}

// Payment is a denormalized receipt record. The ledger transaction it points
// to is the source of truth; TransactionRef is a lookup-only link, never a
// foreign key the ledger depends on.
type Payment struct {
	ID         uint  `json:"id" gorm:"primaryKey"`
	InvoiceID  *uint `json:"invoice_id" gorm:"index:idx_payments_invoice_paid_at,priority:1"`
	CustomerID uint  `json:"customer_id" gorm:"not null;index"`
	MethodID   uint  `json:"method_id"`

	Amount         float64       `json:"amount" gorm:"type:numeric(12,2)"`
	Status         PaymentStatus `json:"status" gorm:"type:VARCHAR(10);not null;default:'posted'"`
	TransactionRef string        `json:"transaction_ref" gorm:"size:36;index"`
	Reference      string        `json:"reference"`
	Note           string        `json:"note"`

	PaidAt    time.Time `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}
