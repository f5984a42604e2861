package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vermietung-backend/models"
)

func TestContribution(t *testing.T) {
	cases := []struct {
		name string
		tx   models.Transaction
		want float64
	}{
		{
			"advance payment adds its debit",
			models.Transaction{Type: models.TxAdvancePayment, Lines: []models.TransactionLine{
				{Account: AccountCash, Debit: 200},
				{Account: AccountDeposits, Credit: 200},
			}},
			200,
		},
		{
			"payment adds its debit",
			models.Transaction{Type: models.TxPayment, Lines: []models.TransactionLine{
				{Account: AccountCash, Debit: 950},
				{Account: AccountReceivable, Credit: 950},
			}},
			950,
		},
		{
			"refund subtracts its credit",
			models.Transaction{Type: models.TxRefund, Lines: []models.TransactionLine{
				{Account: AccountDeposits, Debit: 200},
				{Account: AccountCash, Credit: 200},
			}},
			-200,
		},
		{
			"invoice issue moves debt only",
			models.Transaction{Type: models.TxInvoiceIssue, Lines: []models.TransactionLine{
				{Account: AccountReceivable, Debit: 1150},
				{Account: AccountRevenue, Credit: 1000},
				{Account: AccountTaxPayable, Credit: 150},
			}},
			0,
		},
		{
			"credit note moves debt only",
			models.Transaction{Type: models.TxCreditNote, Lines: []models.TransactionLine{
				{Account: AccountRevenue, Debit: 1000},
				{Account: AccountTaxPayable, Debit: 150},
				{Account: AccountReceivable, Credit: 1150},
			}},
			0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Contribution(&tc.tx))
		})
	}
}

func TestRecordPaymentRequiresOpenPeriod(t *testing.T) {
	store := newFakeStore()
	b := store.addBooking(models.Booking{Status: models.BookingConfirmed, CustomerID: 1})
	ledger := NewLedger(store)

	_, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 100, Date: date(2026, 3, 5)})
	var noPeriod *NoOpenPeriodError
	require.ErrorAs(t, err, &noPeriod)
	assert.Empty(t, store.txs)
	assert.Empty(t, store.payments)
}

func TestRecordPaymentTypeSelection(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingConfirmed, CustomerID: 7})
	ledger := NewLedger(store)

	// No invoice issued yet: the payment is an advance against the deposit account.
	first, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 200, Date: date(2026, 3, 5)})
	require.NoError(t, err)
	assert.Equal(t, models.TxAdvancePayment, first.Type)
	assert.Equal(t, AccountDeposits, first.Lines[1].Account)

	inv := &models.Invoice{BookingID: b.ID, Kind: models.InvoiceMain, Status: models.InvoicePosted, Total: 1150}
	require.NoError(t, store.CreateInvoice(inv))
	require.NoError(t, store.PostTransaction(&models.Transaction{
		Type: models.TxInvoiceIssue, SourceType: models.SourceInvoice, SourceID: inv.ID, Amount: 1150,
	}))

	second, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 950, Date: date(2026, 3, 6)})
	require.NoError(t, err)
	assert.Equal(t, models.TxPayment, second.Type)
	assert.Equal(t, AccountReceivable, second.Lines[1].Account)
}

func TestRecordPaymentConfirmsPendingBooking(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingPendingDeposit, CustomerID: 2})
	ledger := NewLedger(store)

	_, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 200, Date: date(2026, 3, 5)})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, store.bookings[b.ID].Status)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	store := newFakeStore()
	ledger := NewLedger(store)

	for _, amount := range []float64{0, -50} {
		_, err := ledger.RecordPayment(PaymentInput{BookingID: 1, Amount: amount})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
}

func TestRecordPaymentSurvivesReceiptRowFailure(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingConfirmed})
	store.failOn["CreatePayment"] = errors.New("disk full")
	ledger := NewLedger(store)

	entry, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 300, Date: date(2026, 3, 5)})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, store.txs, 1)
	assert.Empty(t, store.payments)
}

func TestRecordPaymentAgainstInvoiceReconciles(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingCheckedIn, CustomerID: 3})
	inv := &models.Invoice{BookingID: b.ID, Kind: models.InvoiceMain, Status: models.InvoicePosted, Total: 1150}
	require.NoError(t, store.CreateInvoice(inv))
	require.NoError(t, store.PostTransaction(&models.Transaction{
		Type: models.TxInvoiceIssue, SourceType: models.SourceInvoice, SourceID: inv.ID, Amount: 1150,
	}))
	ledger := NewLedger(store)

	_, err := ledger.RecordPayment(PaymentInput{InvoiceID: &inv.ID, Amount: 500, Date: date(2026, 3, 5)})
	require.NoError(t, err)
	assert.Equal(t, 500.0, store.invoices[inv.ID].PaidTotal)
	assert.Equal(t, models.InvoicePosted, store.invoices[inv.ID].Status)

	_, err = ledger.RecordPayment(PaymentInput{InvoiceID: &inv.ID, Amount: 650, Date: date(2026, 3, 6)})
	require.NoError(t, err)
	assert.Equal(t, 1150.0, store.invoices[inv.ID].PaidTotal)
	assert.Equal(t, models.InvoicePaid, store.invoices[inv.ID].Status)
}

func TestBookingLevelPaymentsSettleInvoice(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingCheckedIn, CustomerID: 3})
	inv := &models.Invoice{BookingID: b.ID, Kind: models.InvoiceMain, Status: models.InvoicePosted, Total: 1150}
	require.NoError(t, store.CreateInvoice(inv))
	require.NoError(t, store.PostTransaction(&models.Transaction{
		Type: models.TxInvoiceIssue, SourceType: models.SourceInvoice, SourceID: inv.ID, Amount: 1150,
	}))
	ledger := NewLedger(store)

	// Payments addressed to the booking, not the invoice, settle the same
	// debt and must roll up into the invoice all the same.
	_, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 400, Date: date(2026, 3, 5)})
	require.NoError(t, err)
	assert.Equal(t, 400.0, store.invoices[inv.ID].PaidTotal)
	assert.Equal(t, models.InvoicePosted, store.invoices[inv.ID].Status)

	_, err = ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 750, Date: date(2026, 3, 6)})
	require.NoError(t, err)
	assert.Equal(t, 1150.0, store.invoices[inv.ID].PaidTotal)
	assert.Equal(t, models.InvoicePaid, store.invoices[inv.ID].Status)
}

func TestDepositRollsUpAtCheckIn(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2020, 1, 1), date(2100, 12, 31))
	unit := store.addUnit(models.UnitAvailable)
	b := store.addBooking(models.Booking{
		UnitID:   unit.ID,
		Status:   models.BookingConfirmed,
		CheckIn:  date(2026, 4, 1),
		CheckOut: date(2026, 4, 8),
		Subtotal: 1000, TaxAmount: 150, TotalPrice: 1150,
	})
	ledger := NewLedger(store)
	bookings := NewBookings(store, NewAvailability(store), ledger)

	_, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 300, Date: date(2026, 3, 1)})
	require.NoError(t, err)

	_, err = bookings.CheckIn(b.ID)
	require.NoError(t, err)

	main, err := store.MainInvoice(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, main.PaidTotal)
	assert.Equal(t, models.InvoicePosted, main.Status)
}

func TestBalanceReconciliation(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingConfirmed, CustomerID: 4})
	ledger := NewLedger(store)

	inv := &models.Invoice{BookingID: b.ID, Kind: models.InvoiceMain, Status: models.InvoicePosted, Total: 1150}
	require.NoError(t, store.CreateInvoice(inv))
	voided := &models.Invoice{BookingID: b.ID, Kind: models.InvoiceExtension, Status: models.InvoiceVoid, Total: 400}
	require.NoError(t, store.CreateInvoice(voided))
	require.NoError(t, store.PostTransaction(&models.Transaction{
		Type: models.TxInvoiceIssue, SourceType: models.SourceInvoice, SourceID: inv.ID, Amount: 1150,
		Lines: []models.TransactionLine{{Account: AccountReceivable, Debit: 1150}, {Account: AccountRevenue, Credit: 1150}},
	}))

	balance, err := ledger.Balance(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1150.0, balance.Total) // void invoice excluded
	assert.Equal(t, 0.0, balance.Paid)     // issue entries move debt, not cash
	assert.Equal(t, 1150.0, balance.Remaining)

	_, err = ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 700, Date: date(2026, 3, 5)})
	require.NoError(t, err)

	balance, err = ledger.Balance(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 700.0, balance.Paid)
	assert.Equal(t, 450.0, balance.Remaining)
}

func TestBalanceRemainingMayGoNegative(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingConfirmed})
	inv := &models.Invoice{BookingID: b.ID, Kind: models.InvoiceMain, Status: models.InvoicePosted, Total: 500}
	require.NoError(t, store.CreateInvoice(inv))
	require.NoError(t, store.PostTransaction(&models.Transaction{
		Type: models.TxInvoiceIssue, SourceType: models.SourceInvoice, SourceID: inv.ID, Amount: 500,
	}))
	ledger := NewLedger(store)

	_, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: 800, Date: date(2026, 3, 5)})
	require.NoError(t, err)

	balance, err := ledger.Balance(b.ID)
	require.NoError(t, err)
	assert.Equal(t, -300.0, balance.Remaining)
}

func TestPaidAmountMonotonicUnderPayments(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 1, 1), date(2026, 12, 31))
	b := store.addBooking(models.Booking{Status: models.BookingConfirmed})
	ledger := NewLedger(store)

	var prev float64
	day := date(2026, 3, 1)
	for _, amount := range []float64{100, 50.25, 19.99, 330} {
		_, err := ledger.RecordPayment(PaymentInput{BookingID: b.ID, Amount: amount, Date: day})
		require.NoError(t, err)
		day = day.Add(24 * time.Hour)

		balance, err := ledger.Balance(b.ID)
		require.NoError(t, err)
		assert.Greater(t, balance.Paid, prev)
		prev = balance.Paid
	}
	assert.Equal(t, 500.24, prev)
}

func TestPeriodOpenOn(t *testing.T) {
	store := newFakeStore()
	store.addOpenPeriod(date(2026, 3, 1), date(2026, 3, 31))
	ledger := NewLedger(store)

	open, err := ledger.PeriodOpenOn(date(2026, 3, 15))
	require.NoError(t, err)
	assert.True(t, open)

	open, err = ledger.PeriodOpenOn(date(2026, 4, 1))
	require.NoError(t, err)
	assert.False(t, open)

	// Boundary days are inclusive.
	open, err = ledger.PeriodOpenOn(date(2026, 3, 31))
	require.NoError(t, err)
	assert.True(t, open)
}
