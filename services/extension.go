package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"vermietung-backend/models"
	"vermietung-backend/utils"
)

// Tax normalization modes for extension invoices.
const (
	TaxModeGross = "gross" // amount includes the given tax
	TaxModeZero  = "zero"  // tax forced to zero after creation
)

// Extensions performs scoped reversal (one extension invoice) and full
// reversal (the whole booking) on top of the state machine.
type Extensions struct {
	store    Store
	avail    *Availability
	ledger   *Ledger
	bookings *Bookings
}

func NewExtensions(store Store, avail *Availability, ledger *Ledger, bookings *Bookings) *Extensions {
	return &Extensions{store: store, avail: avail, ledger: ledger, bookings: bookings}
}

type ExtendInput struct {
	BookingID   uint
	NewCheckOut time.Time
	Amount      float64 // incremental gross amount, computed externally
	TaxAmount   float64
	TaxMode     string
}

// Extend lengthens the stay to NewCheckOut and bills the increment on its own
// extension-tagged invoice. Only [old check_out, new check_out) is validated;
// the booking's own current interval cannot conflict with itself.
func (s *Extensions) Extend(in ExtendInput) (*models.Invoice, error) {
	booking, err := s.store.BookingByID(in.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.Active() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("cannot extend a %s booking", booking.Status)}
	}
	if !in.NewCheckOut.After(booking.CheckOut) {
		return nil, &ValidationError{Field: "new_check_out", Reason: "must be after the current check_out"}
	}
	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if in.TaxAmount < 0 || in.TaxAmount > in.Amount {
		return nil, &ValidationError{Field: "tax_amount", Reason: "must be between zero and the amount"}
	}

	if err := s.avail.FirstConflict(booking.UnitID, booking.CheckOut, in.NewCheckOut, booking.ID); err != nil {
		return nil, err
	}

	number, err := s.extensionNumber(booking)
	if err != nil {
		return nil, err
	}
	amount := utils.Round2(in.Amount)
	tax := utils.Round2(in.TaxAmount)
	if in.TaxMode == TaxModeZero {
		tax = 0
	}
	now := time.Now()
	invoice := &models.Invoice{
		BookingID:     booking.ID,
		InvoiceNumber: number,
		Kind:          models.InvoiceExtension,
		Status:        models.InvoicePosted,
		Subtotal:      utils.Round2(amount - tax),
		TaxTotal:      tax,
		Total:         amount,
		IssuedAt:      &now,
	}
	if err := s.store.CreateInvoice(invoice); err != nil {
		return nil, &RemoteFailure{Op: "create extension invoice", Err: err}
	}
	if err := s.bookings.ensureIssueEntry(booking, invoice); err != nil {
		return nil, err
	}

	booking.CheckOut = in.NewCheckOut
	if err := s.store.SaveBooking(booking); err != nil {
		return nil, &RemoteFailure{Op: "save booking", Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"invoice":    invoice.InvoiceNumber,
		"amount":     invoice.Total,
	}).Info("booking extended")
	return invoice, nil
}

// CancelExtension reverses exactly one extension invoice: refund and void its
// posted payments, post one credit_note for the invoice total, snapshot the
// reversed pieces into the archive, void the invoice. No other invoice or
// payment of the booking is touched. Requires an open accounting period for
// today.
func (s *Extensions) CancelExtension(invoiceID uint) error {
	invoice, err := s.store.InvoiceByID(invoiceID)
	if err != nil {
		return err
	}
	if invoice.Kind != models.InvoiceExtension {
		return &ValidationError{Field: "invoice", Reason: "only extension invoices can be reversed in isolation"}
	}
	if invoice.Status == models.InvoiceVoid {
		return nil
	}
	booking, err := s.store.BookingByID(invoice.BookingID)
	if err != nil {
		return err
	}

	now := time.Now()
	if _, err := s.store.OpenPeriodOn(now); err != nil {
		if IsNotFound(err) {
			return &NoOpenPeriodError{Date: now}
		}
		return &RemoteFailure{Op: "period lookup", Err: err}
	}

	payments, err := s.store.PaymentsForInvoice(invoice.ID)
	if err != nil {
		return &RemoteFailure{Op: "load invoice payments", Err: err}
	}
	var failed []ReversalItemError
	for i := range payments {
		if payments[i].Status != models.PaymentPosted {
			continue
		}
		if err := s.refundPayment(booking, &payments[i], models.SourceInvoice, invoice.ID, AccountReceivable); err != nil {
			failed = append(failed, ReversalItemError{PaymentID: payments[i].ID, Err: err})
		}
	}
	if len(failed) > 0 {
		return &ReversalError{BookingID: booking.ID, Items: failed}
	}

	if err := s.postCreditNote(booking, invoice); err != nil {
		return err
	}

	snap, err := json.Marshal(reversalSnapshot{
		Booking:  booking,
		Invoices: []models.Invoice{*invoice},
		Payments: payments,
	})
	if err != nil {
		return &RemoteFailure{Op: "marshal reversal snapshot", Err: err}
	}
	if err := s.store.ArchiveReversal(&models.ReversalArchive{
		BookingID: booking.ID,
		Kind:      models.ArchiveExtensionReversal,
		Snapshot:  snap,
	}); err != nil {
		return &RemoteFailure{Op: "archive reversal", Err: err}
	}

	invoice.Status = models.InvoiceVoid
	if err := s.store.SaveInvoice(invoice); err != nil {
		return &RemoteFailure{Op: "void extension invoice", Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"invoice":    invoice.InvoiceNumber,
	}).Info("extension reversed")
	return nil
}

// reversalSnapshot is the archived shape of a fully reversed booking.
type reversalSnapshot struct {
	Booking      *models.Booking      `json:"booking"`
	Invoices     []models.Invoice     `json:"invoices"`
	Payments     []models.Payment     `json:"payments"`
	Transactions []models.Transaction `json:"transactions"`
}

// CancelBooking fully reverses the booking: every posted payment is refunded
// and voided, every non-void invoice gets a credit_note and is voided, the
// whole financial trail is snapshotted into the reversal archive and removed
// from live ledger views, and the booking becomes cancelled. Per-payment
// failures are collected; any failure rolls the whole operation back.
func (s *Extensions) CancelBooking(bookingID uint) error {
	booking, err := s.store.BookingByID(bookingID)
	if err != nil {
		return err
	}
	if booking.Status == models.BookingCancelled {
		return nil
	}
	if !models.CanTransition(booking.Status, models.BookingCancelled) {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("cannot cancel a %s booking", booking.Status)}
	}

	txs, err := s.store.TransactionsForBooking(bookingID)
	if err != nil {
		return &RemoteFailure{Op: "load transactions", Err: err}
	}
	invoices, err := s.store.InvoicesForBooking(bookingID)
	if err != nil {
		return &RemoteFailure{Op: "load invoices", Err: err}
	}

	hasTrail := len(txs) > 0 || len(invoices) > 0
	if hasTrail {
		now := time.Now()
		if _, err := s.store.OpenPeriodOn(now); err != nil {
			if IsNotFound(err) {
				return &NoOpenPeriodError{Date: now}
			}
			return &RemoteFailure{Op: "period lookup", Err: err}
		}
	}

	// Refund and void every still-posted payment, sequentially, collecting
	// failures instead of stopping at the first.
	var failed []ReversalItemError
	var payments []models.Payment
	for i := range txs {
		if txs[i].Type != models.TxAdvancePayment && txs[i].Type != models.TxPayment {
			continue
		}
		payment, err := s.store.PaymentByTransactionRef(txs[i].RefID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return &RemoteFailure{Op: "load payment", Err: err}
		}
		payments = append(payments, *payment)
		if payment.Status != models.PaymentPosted {
			continue
		}
		counter := AccountReceivable
		if txs[i].Type == models.TxAdvancePayment {
			counter = AccountDeposits
		}
		if err := s.refundPayment(booking, payment, models.SourceBooking, booking.ID, counter); err != nil {
			failed = append(failed, ReversalItemError{PaymentID: payment.ID, Err: err})
		}
	}
	if len(failed) > 0 {
		return &ReversalError{BookingID: booking.ID, Items: failed}
	}

	for i := range invoices {
		if invoices[i].Status == models.InvoiceVoid {
			continue
		}
		if err := s.postCreditNote(booking, &invoices[i]); err != nil {
			return err
		}
		invoices[i].Status = models.InvoiceVoid
		if err := s.store.SaveInvoice(&invoices[i]); err != nil {
			return &RemoteFailure{Op: "void invoice", Err: err}
		}
	}

	// Archive the complete trail, reversal entries included, then take the
	// live rows out of ledger views. The snapshot records the terminal state,
	// so the booking is stamped cancelled before it is marshalled. A booking
	// that never touched the ledger has nothing to archive.
	booking.Status = models.BookingCancelled
	if hasTrail {
		finalTxs, err := s.store.TransactionsForBooking(bookingID)
		if err != nil {
			return &RemoteFailure{Op: "load transactions", Err: err}
		}
		snap, err := json.Marshal(reversalSnapshot{
			Booking:      booking,
			Invoices:     invoices,
			Payments:     payments,
			Transactions: finalTxs,
		})
		if err != nil {
			return &RemoteFailure{Op: "marshal reversal snapshot", Err: err}
		}
		if err := s.store.ArchiveReversal(&models.ReversalArchive{
			BookingID: booking.ID,
			Kind:      models.ArchiveCancellation,
			Snapshot:  snap,
		}); err != nil {
			return &RemoteFailure{Op: "archive reversal", Err: err}
		}
		if err := s.store.PurgeBookingLedger(bookingID); err != nil {
			return &RemoteFailure{Op: "purge booking ledger", Err: err}
		}
	}

	if err := s.store.SaveBooking(booking); err != nil {
		return &RemoteFailure{Op: "save booking", Err: err}
	}
	if err := s.bookings.RecomputeUnitStatus(booking.UnitID, time.Now()); err != nil {
		return err
	}

	logrus.WithField("booking_id", booking.ID).Info("booking cancelled and reversed")
	return nil
}

func (s *Extensions) refundPayment(booking *models.Booking, payment *models.Payment, srcType models.TransactionSource, srcID uint, counterAccount string) error {
	refund := &models.Transaction{
		Type:        models.TxRefund,
		SourceType:  srcType,
		SourceID:    srcID,
		CustomerID:  booking.CustomerID,
		Amount:      payment.Amount,
		Date:        time.Now(),
		Description: fmt.Sprintf("Refund of payment %d for booking %d", payment.ID, booking.ID),
		Lines: []models.TransactionLine{
			{Account: counterAccount, Debit: payment.Amount},
			{Account: AccountCash, Credit: payment.Amount},
		},
	}
	if err := s.store.PostTransaction(refund); err != nil {
		return &RemoteFailure{Op: "post refund", Err: err}
	}
	payment.Status = models.PaymentVoid
	if err := s.store.SavePayment(payment); err != nil {
		return &RemoteFailure{Op: "void payment", Err: err}
	}
	return nil
}

// postCreditNote reverses the billed debt of one invoice. A credit note moves
// debt, not cash, so it contributes nothing to paidAmount.
func (s *Extensions) postCreditNote(booking *models.Booking, invoice *models.Invoice) error {
	lines := []models.TransactionLine{
		{Account: AccountRevenue, Debit: utils.Round2(invoice.Total - invoice.TaxTotal)},
		{Account: AccountReceivable, Credit: invoice.Total},
	}
	if invoice.TaxTotal > 0 {
		lines = append(lines, models.TransactionLine{Account: AccountTaxPayable, Debit: invoice.TaxTotal})
	}
	note := &models.Transaction{
		Type:        models.TxCreditNote,
		SourceType:  models.SourceInvoice,
		SourceID:    invoice.ID,
		CustomerID:  booking.CustomerID,
		Amount:      invoice.Total,
		TaxAmount:   invoice.TaxTotal,
		Date:        time.Now(),
		Description: fmt.Sprintf("Credit note for invoice %s", invoice.InvoiceNumber),
		Lines:       lines,
	}
	if err := s.store.PostTransaction(note); err != nil {
		return &RemoteFailure{Op: "post credit_note", Err: err}
	}
	return nil
}

// extensionNumber tags the extension's invoice number off the main invoice
// when one exists, or off a fresh number otherwise.
func (s *Extensions) extensionNumber(booking *models.Booking) (string, error) {
	invoices, err := s.store.InvoicesForBooking(booking.ID)
	if err != nil {
		return "", &RemoteFailure{Op: "load invoices", Err: err}
	}
	seq := 1
	base := ""
	for i := range invoices {
		if invoices[i].Kind == models.InvoiceExtension {
			seq++
		}
		if invoices[i].Kind == models.InvoiceMain && invoices[i].Status != models.InvoiceVoid {
			base = invoices[i].InvoiceNumber
		}
	}
	if base == "" {
		base, err = s.store.NextInvoiceNumber()
		if err != nil {
			return "", &RemoteFailure{Op: "allocate invoice number", Err: err}
		}
	}
	return fmt.Sprintf("%s-EXT-%d", base, seq), nil
}
