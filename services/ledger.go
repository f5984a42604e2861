package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"vermietung-backend/models"
	"vermietung-backend/utils"
)

// Ledger account names used on transaction lines.
const (
	AccountCash       = "cash"
	AccountReceivable = "accounts_receivable"
	AccountRevenue    = "rental_revenue"
	AccountDeposits   = "customer_deposits"
	AccountTaxPayable = "tax_payable"
)

// Ledger classifies transactions and derives paid/remaining balances. It
// never edits a posted entry; every correction is a new transaction.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Balance is the reconciled financial position of one booking.
// Remaining may be negative (overpayment); it is stored and reported as-is.
type Balance struct {
	Total     float64 `json:"total_amount"`
	Paid      float64 `json:"paid_amount"`
	Remaining float64 `json:"remaining_amount"`
}

// Contribution is a single transaction's effect on paidAmount:
// invoice_issue and credit_note move debt, not cash, and contribute zero;
// payments add their largest debit line, refunds subtract their largest
// credit line.
func Contribution(t *models.Transaction) float64 {
	switch t.Type {
	case models.TxAdvancePayment, models.TxPayment:
		return t.MaxDebit()
	case models.TxRefund:
		return -t.MaxCredit()
	default:
		return 0
	}
}

// Balance reconciles the booking's live invoices and ledger entries.
func (l *Ledger) Balance(bookingID uint) (*Balance, error) {
	invoices, err := l.store.InvoicesForBooking(bookingID)
	if err != nil {
		return nil, &RemoteFailure{Op: "load invoices", Err: err}
	}
	var total float64
	for _, inv := range invoices {
		if inv.Status != models.InvoiceVoid {
			total += inv.Total
		}
	}

	txs, err := l.store.TransactionsForBooking(bookingID)
	if err != nil {
		return nil, &RemoteFailure{Op: "load transactions", Err: err}
	}
	var paid float64
	for i := range txs {
		paid += Contribution(&txs[i])
	}

	total = utils.Round2(total)
	paid = utils.Round2(paid)
	return &Balance{Total: total, Paid: paid, Remaining: utils.Round2(total - paid)}, nil
}

// PeriodOpenOn reports whether postings are permitted on the given date.
func (l *Ledger) PeriodOpenOn(date time.Time) (bool, error) {
	_, err := l.store.OpenPeriodOn(date)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, &RemoteFailure{Op: "period lookup", Err: err}
	}
	return true, nil
}

// PaymentInput describes a payment against a booking or one of its invoices.
type PaymentInput struct {
	BookingID uint
	InvoiceID *uint
	Amount    float64
	MethodID  uint
	Date      time.Time
	Reference string
	Note      string
}

// RecordPayment posts a ledger entry for the payment and writes the
// denormalized Payment receipt row. The transaction type is payment when an
// invoice_issue entry already exists for the booking, advance_payment
// otherwise. The ledger write is the operation of record: if the Payment row
// fails afterwards the failure is logged and the ledger entry stands.
func (l *Ledger) RecordPayment(in PaymentInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	in.Amount = utils.Round2(in.Amount)

	if _, err := l.store.OpenPeriodOn(in.Date); err != nil {
		if IsNotFound(err) {
			return nil, &NoOpenPeriodError{Date: in.Date}
		}
		return nil, &RemoteFailure{Op: "period lookup", Err: err}
	}

	var invoice *models.Invoice
	if in.InvoiceID != nil {
		inv, err := l.store.InvoiceByID(*in.InvoiceID)
		if err != nil {
			return nil, err
		}
		invoice = inv
		if in.BookingID == 0 {
			in.BookingID = inv.BookingID
		}
	}
	booking, err := l.store.BookingByID(in.BookingID)
	if err != nil {
		return nil, err
	}

	txs, err := l.store.TransactionsForBooking(in.BookingID)
	if err != nil {
		return nil, &RemoteFailure{Op: "load transactions", Err: err}
	}
	txType := models.TxAdvancePayment
	for i := range txs {
		if txs[i].Type == models.TxInvoiceIssue {
			txType = models.TxPayment
			break
		}
	}

	counterAccount := AccountDeposits
	if txType == models.TxPayment {
		counterAccount = AccountReceivable
	}
	entry := &models.Transaction{
		Type:        txType,
		SourceType:  models.SourceBooking,
		SourceID:    in.BookingID,
		CustomerID:  booking.CustomerID,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: paymentDescription(txType, booking.ID),
		Lines: []models.TransactionLine{
			{Account: AccountCash, Debit: in.Amount},
			{Account: counterAccount, Credit: in.Amount},
		},
	}
	if invoice != nil {
		entry.SourceType = models.SourceInvoice
		entry.SourceID = invoice.ID
	}
	if err := l.store.PostTransaction(entry); err != nil {
		return nil, &RemoteFailure{Op: "post payment transaction", Err: err}
	}

	payment := &models.Payment{
		InvoiceID:      in.InvoiceID,
		CustomerID:     booking.CustomerID,
		MethodID:       in.MethodID,
		Amount:         in.Amount,
		Status:         models.PaymentPosted,
		TransactionRef: entry.RefID,
		Reference:      in.Reference,
		Note:           in.Note,
		PaidAt:         in.Date,
	}
	if err := l.store.CreatePayment(payment); err != nil {
		// The ledger entry is committed truth; the receipt row is a
		// secondary index and its loss is recoverable from the ledger.
		logrus.WithFields(logrus.Fields{
			"booking_id":      in.BookingID,
			"transaction_ref": entry.RefID,
		}).WithError(err).Error("payment record write failed after ledger post")
	}

	if err := l.reconcileBookingInvoices(in.BookingID); err != nil {
		return nil, err
	}

	// A deposit on a booking still waiting for one confirms it.
	if booking.Status == models.BookingPendingDeposit {
		booking.Status = models.BookingConfirmed
		if err := l.store.SaveBooking(booking); err != nil {
			return nil, &RemoteFailure{Op: "confirm booking", Err: err}
		}
	}

	return entry, nil
}

// reconcileBookingInvoices reallocates the booking's cash received across its
// live invoices in issue order and promotes fully covered ones to paid. It is
// allocation, not matching: a payment against the booking settles the same
// debt as a payment against one of its invoices.
func (l *Ledger) reconcileBookingInvoices(bookingID uint) error {
	invoices, err := l.store.InvoicesForBooking(bookingID)
	if err != nil {
		return &RemoteFailure{Op: "load invoices", Err: err}
	}
	txs, err := l.store.TransactionsForBooking(bookingID)
	if err != nil {
		return &RemoteFailure{Op: "load transactions", Err: err}
	}
	var pool float64
	for i := range txs {
		pool += Contribution(&txs[i])
	}

	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status == models.InvoiceVoid {
			continue
		}
		share := math.Min(pool, inv.Total)
		if share < 0 {
			share = 0
		}
		pool -= share

		paid := utils.Round2(share)
		status := inv.Status
		if status == models.InvoicePosted && paid >= inv.Total {
			status = models.InvoicePaid
		}
		if paid == inv.PaidTotal && status == inv.Status {
			continue
		}
		inv.PaidTotal = paid
		inv.Status = status
		if err := l.store.SaveInvoice(inv); err != nil {
			return &RemoteFailure{Op: "save invoice", Err: err}
		}
	}
	return nil
}

func paymentDescription(t models.TransactionType, bookingID uint) string {
	if t == models.TxAdvancePayment {
		return fmt.Sprintf("Deposit received for booking %d", bookingID)
	}
	return fmt.Sprintf("Payment received for booking %d", bookingID)
}
