package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceImmutable(t *testing.T) {
	assert.False(t, (&Invoice{Status: InvoiceDraft}).Immutable())
	assert.True(t, (&Invoice{Status: InvoicePosted}).Immutable())
	assert.True(t, (&Invoice{Status: InvoicePaid}).Immutable())
	assert.False(t, (&Invoice{Status: InvoiceVoid}).Immutable())
}

func TestUnitHoldExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&Unit{Status: UnitReserved, HoldUntil: &past}).HoldExpired(now))
	assert.False(t, (&Unit{Status: UnitReserved, HoldUntil: &future}).HoldExpired(now))
	assert.False(t, (&Unit{Status: UnitReserved}).HoldExpired(now))
	assert.False(t, (&Unit{Status: UnitAvailable, HoldUntil: &past}).HoldExpired(now))
}

func TestPeriodContains(t *testing.T) {
	p := AccountingPeriod{
		StartsOn: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, p.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC))) // boundary day inclusive
	assert.True(t, p.Contains(time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
}

func TestTransactionLineExtremes(t *testing.T) {
	tx := Transaction{Lines: []TransactionLine{
		{Account: "cash", Debit: 575},
		{Account: "accounts_receivable", Credit: 575},
		{Account: "tax_payable", Credit: 75},
	}}
	assert.Equal(t, 575.0, tx.MaxDebit())
	assert.Equal(t, 575.0, tx.MaxCredit())
	assert.Equal(t, 0.0, (&Transaction{}).MaxDebit())
}
