package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxAdvancePayment TransactionType = "advance_payment"
	TxPayment        TransactionType = "payment"
	TxInvoiceIssue   TransactionType = "invoice_issue"
	TxRefund         TransactionType = "refund"
	TxCreditNote     TransactionType = "credit_note"
)

type TransactionSource string

const (
	SourceBooking TransactionSource = "booking"
	SourceInvoice TransactionSource = "invoice"
)

// Transaction is one append-only ledger entry: a header plus balancing lines.
// Rows are never updated; corrections are new transactions (refund,
// credit_note). The only removal path is a full booking reversal, which
// snapshots the trail into the reversal archive first.
type Transaction struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	RefID      string            `json:"ref_id" gorm:"size:36;uniqueIndex"`
	Type       TransactionType   `json:"type" gorm:"type:VARCHAR(20);not null;index"`
	SourceType TransactionSource `json:"source_type" gorm:"type:VARCHAR(10);not null;index:idx_transactions_source,priority:1"`
	SourceID   uint              `json:"source_id" gorm:"not null;index:idx_transactions_source,priority:2"`
	CustomerID uint              `json:"customer_id" gorm:"index"`

	Amount      float64 `json:"amount" gorm:"type:numeric(12,2)"`
	TaxAmount   float64 `json:"tax_amount" gorm:"type:numeric(12,2)"`
	Description string  `json:"description"`

	Lines []TransactionLine `json:"lines" gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`

	Date      time.Time `json:"date" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

type TransactionLine struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	TransactionID uint    `json:"-" gorm:"index"`
	Account       string  `json:"account" gorm:"size:64;not null"`
	Debit         float64 `json:"debit" gorm:"type:numeric(12,2)"`
	Credit        float64 `json:"credit" gorm:"type:numeric(12,2)"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if t.RefID == "" {
		t.RefID = uuid.NewString()
	}
	return
}

// MaxDebit returns the largest debit amount across the entry's lines.
func (t *Transaction) MaxDebit() float64 {
	var m float64
	for _, l := range t.Lines {
		if l.Debit > m {
			m = l.Debit
		}
	}
	return m
}

// MaxCredit returns the largest credit amount across the entry's lines.
func (t *Transaction) MaxCredit() float64 {
	var m float64
	for _, l := range t.Lines {
		if l.Credit > m {
			m = l.Credit
		}
	}
	return m
}
