package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"vermietung-backend/models"
	"vermietung-backend/utils"
)

// Bookings owns the booking lifecycle. Every transition validates its guards
// before touching state; because the store binds one request to one
// transaction, a failed guard or a failed ledger post leaves nothing behind.
type Bookings struct {
	store  Store
	avail  *Availability
	ledger *Ledger
}

func NewBookings(store Store, avail *Availability, ledger *Ledger) *Bookings {
	return &Bookings{store: store, avail: avail, ledger: ledger}
}

type CreateBookingInput struct {
	CustomerID         uint
	UnitID             uint
	CheckIn            time.Time
	CheckOut           time.Time
	BookingType        models.BookingType
	Subtotal           float64
	DiscountAmount     float64
	TaxAmount          float64
	TotalPrice         float64
	AdditionalServices datatypes.JSON
	Deposit            float64
	DepositMethodID    uint
}

// Create books a unit over [check_in, check_out). With a deposit the booking
// starts confirmed (the deposit is posted as an advance_payment, so an open
// accounting period is required); without one it starts pending_deposit.
func (s *Bookings) Create(in CreateBookingInput) (*models.Booking, error) {
	if in.CustomerID == 0 {
		return nil, &ValidationError{Field: "customer_id", Reason: "required"}
	}
	if in.UnitID == 0 {
		return nil, &ValidationError{Field: "unit_id", Reason: "required"}
	}
	if err := validateInterval(in.CheckIn, in.CheckOut); err != nil {
		return nil, err
	}
	if in.TotalPrice < 0 || in.Deposit < 0 {
		return nil, &ValidationError{Field: "pricing", Reason: "amounts must not be negative"}
	}
	if in.BookingType == "" {
		in.BookingType = models.BookingDaily
	}

	unit, err := s.store.UnitByID(in.UnitID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.avail.ReleaseExpiredHold(unit, now); err != nil {
		return nil, err
	}
	if unit.Status == models.UnitReserved {
		return nil, &ConflictError{UnitID: unit.ID, Start: in.CheckIn, End: in.CheckOut}
	}

	if err := s.avail.FirstConflict(in.UnitID, in.CheckIn, in.CheckOut, 0); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		CustomerID:         in.CustomerID,
		UnitID:             in.UnitID,
		CheckIn:            in.CheckIn,
		CheckOut:           in.CheckOut,
		Status:             models.BookingPendingDeposit,
		BookingType:        in.BookingType,
		Subtotal:           utils.Round2(in.Subtotal),
		DiscountAmount:     utils.Round2(in.DiscountAmount),
		TaxAmount:          utils.Round2(in.TaxAmount),
		TotalPrice:         utils.Round2(in.TotalPrice),
		AdditionalServices: in.AdditionalServices,
	}
	if err := s.store.CreateBooking(booking); err != nil {
		return nil, err
	}

	if in.Deposit > 0 {
		if _, err := s.ledger.RecordPayment(PaymentInput{
			BookingID: booking.ID,
			Amount:    in.Deposit,
			MethodID:  in.DepositMethodID,
			Date:      now,
		}); err != nil {
			return nil, err
		}
		// RecordPayment confirmed the booking; reload the final state.
		booking, err = s.store.BookingByID(booking.ID)
		if err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"unit_id":    booking.UnitID,
		"status":     booking.Status,
	}).Info("booking created")
	return booking, nil
}

// CheckIn moves a confirmed booking to checked_in. It is idempotent with
// respect to invoicing: the main invoice is created at most once, promoted
// from draft to posted when it already exists, and gets exactly one
// invoice_issue ledger entry.
func (s *Bookings) CheckIn(bookingID uint) (*models.Booking, error) {
	booking, err := s.store.BookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingCheckedIn && !models.CanTransition(booking.Status, models.BookingCheckedIn) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("cannot check in a %s booking", booking.Status)}
	}

	invoice, err := s.ensureMainInvoice(booking)
	if err != nil {
		return nil, err
	}
	if err := s.ensureIssueEntry(booking, invoice); err != nil {
		return nil, err
	}
	// Deposits taken before issue roll up into the invoice now.
	if err := s.ledger.reconcileBookingInvoices(booking.ID); err != nil {
		return nil, err
	}

	if booking.Status != models.BookingCheckedIn {
		booking.Status = models.BookingCheckedIn
		if err := s.store.SaveBooking(booking); err != nil {
			return nil, &RemoteFailure{Op: "save booking", Err: err}
		}
	}
	if err := s.store.SetUnitStatus(booking.UnitID, models.UnitOccupied, nil); err != nil {
		return nil, &RemoteFailure{Op: "set unit status", Err: err}
	}

	logrus.WithFields(logrus.Fields{"booking_id": booking.ID, "invoice_id": invoice.ID}).Info("booking checked in")
	return booking, nil
}

// CheckOut closes the stay: the unit goes to cleaning, and a deposit that is
// still held is refunded once the booking is fully settled.
func (s *Bookings) CheckOut(bookingID uint) (*models.Booking, error) {
	booking, err := s.store.BookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(booking.Status, models.BookingCheckedOut) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("cannot check out a %s booking", booking.Status)}
	}

	booking.Status = models.BookingCheckedOut
	if err := s.store.SaveBooking(booking); err != nil {
		return nil, &RemoteFailure{Op: "save booking", Err: err}
	}
	if err := s.store.SetUnitStatus(booking.UnitID, models.UnitCleaning, nil); err != nil {
		return nil, &RemoteFailure{Op: "set unit status", Err: err}
	}

	if err := s.refundSettledDeposit(booking); err != nil {
		return nil, err
	}

	logrus.WithField("booking_id", booking.ID).Info("booking checked out")
	return booking, nil
}

// refundSettledDeposit refunds every still-posted advance_payment of the
// booking, but only when nothing remains owed. The deposit is a hold, not
// revenue; a booking settled purely by regular payments triggers no refund.
func (s *Bookings) refundSettledDeposit(booking *models.Booking) error {
	balance, err := s.ledger.Balance(booking.ID)
	if err != nil {
		return err
	}
	if balance.Remaining > 0 {
		return nil
	}

	txs, err := s.store.TransactionsForBooking(booking.ID)
	if err != nil {
		return &RemoteFailure{Op: "load transactions", Err: err}
	}
	for i := range txs {
		if txs[i].Type != models.TxAdvancePayment {
			continue
		}
		payment, err := s.store.PaymentByTransactionRef(txs[i].RefID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return &RemoteFailure{Op: "load deposit payment", Err: err}
		}
		if payment.Status != models.PaymentPosted {
			continue
		}

		refund := &models.Transaction{
			Type:        models.TxRefund,
			SourceType:  models.SourceBooking,
			SourceID:    booking.ID,
			CustomerID:  booking.CustomerID,
			Amount:      txs[i].Amount,
			Date:        time.Now(),
			Description: fmt.Sprintf("Deposit refund for booking %d", booking.ID),
			Lines: []models.TransactionLine{
				{Account: AccountDeposits, Debit: txs[i].Amount},
				{Account: AccountCash, Credit: txs[i].Amount},
			},
		}
		if err := s.store.PostTransaction(refund); err != nil {
			return &RemoteFailure{Op: "post deposit refund", Err: err}
		}
		payment.Status = models.PaymentVoid
		if err := s.store.SavePayment(payment); err != nil {
			return &RemoteFailure{Op: "void deposit payment", Err: err}
		}
	}
	return nil
}

// Reschedule moves the booking to a new interval. Only bookings that have no
// financial footprint yet may move; the new interval is validated against
// everyone but the booking itself.
func (s *Bookings) Reschedule(bookingID uint, newStart, newEnd time.Time) (*models.Booking, error) {
	booking, err := s.store.BookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.mutableOrErr(booking); err != nil {
		return nil, err
	}
	if err := validateInterval(newStart, newEnd); err != nil {
		return nil, err
	}
	if err := s.avail.FirstConflict(booking.UnitID, newStart, newEnd, booking.ID); err != nil {
		return nil, err
	}

	booking.CheckIn = newStart
	booking.CheckOut = newEnd
	if err := s.store.SaveBooking(booking); err != nil {
		return nil, err
	}
	if err := s.RecomputeUnitStatus(booking.UnitID, time.Now()); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"check_in":   newStart.Format("2006-01-02"),
		"check_out":  newEnd.Format("2006-01-02"),
	}).Info("booking rescheduled")
	return booking, nil
}

// Delay shifts both ends of the interval forward by whole days.
func (s *Bookings) Delay(bookingID uint, days int) (*models.Booking, error) {
	if days <= 0 {
		return nil, &ValidationError{Field: "days", Reason: "must be greater than zero"}
	}
	booking, err := s.store.BookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	shift := time.Duration(days) * 24 * time.Hour
	return s.Reschedule(bookingID, booking.CheckIn.Add(shift), booking.CheckOut.Add(shift))
}

// mutableOrErr enforces the date-mutation guard: pre-check-in status and no
// posted or paid invoice anywhere on the booking.
func (s *Bookings) mutableOrErr(booking *models.Booking) error {
	if booking.Status != models.BookingPendingDeposit && booking.Status != models.BookingConfirmed {
		return &ImmutableError{BookingID: booking.ID, Reason: fmt.Sprintf("status is %s", booking.Status)}
	}
	invoices, err := s.store.InvoicesForBooking(booking.ID)
	if err != nil {
		return &RemoteFailure{Op: "load invoices", Err: err}
	}
	for i := range invoices {
		if invoices[i].Immutable() {
			return &ImmutableError{
				BookingID: booking.ID,
				Reason:    fmt.Sprintf("invoice %s is %s", invoices[i].InvoiceNumber, invoices[i].Status),
			}
		}
	}
	return nil
}

// ensureMainInvoice returns the booking's posted main invoice, creating or
// promoting it as needed. At most one non-void main invoice ever exists.
func (s *Bookings) ensureMainInvoice(booking *models.Booking) (*models.Invoice, error) {
	invoice, err := s.store.MainInvoice(booking.ID)
	if err != nil && !IsNotFound(err) {
		return nil, &RemoteFailure{Op: "load main invoice", Err: err}
	}

	now := time.Now()
	if err != nil { // not found: issue it from the booking's pricing
		number, err := s.store.NextInvoiceNumber()
		if err != nil {
			return nil, &RemoteFailure{Op: "allocate invoice number", Err: err}
		}
		invoice = &models.Invoice{
			BookingID:     booking.ID,
			InvoiceNumber: number,
			Kind:          models.InvoiceMain,
			Status:        models.InvoicePosted,
			Subtotal:      utils.Round2(booking.Subtotal - booking.DiscountAmount),
			TaxTotal:      booking.TaxAmount,
			Total:         booking.TotalPrice,
			IssuedAt:      &now,
		}
		if err := s.store.CreateInvoice(invoice); err != nil {
			return nil, &RemoteFailure{Op: "create main invoice", Err: err}
		}
		return invoice, nil
	}

	if invoice.Status == models.InvoiceDraft {
		invoice.Status = models.InvoicePosted
		invoice.IssuedAt = &now
		if err := s.store.SaveInvoice(invoice); err != nil {
			return nil, &RemoteFailure{Op: "post main invoice", Err: err}
		}
	}
	return invoice, nil
}

// ensureIssueEntry posts the invoice_issue ledger entry for the invoice
// unless one exists already.
func (s *Bookings) ensureIssueEntry(booking *models.Booking, invoice *models.Invoice) error {
	txs, err := s.store.TransactionsForInvoice(invoice.ID)
	if err != nil {
		return &RemoteFailure{Op: "load invoice transactions", Err: err}
	}
	for i := range txs {
		if txs[i].Type == models.TxInvoiceIssue {
			return nil
		}
	}

	lines := []models.TransactionLine{
		{Account: AccountReceivable, Debit: invoice.Total},
		{Account: AccountRevenue, Credit: utils.Round2(invoice.Total - invoice.TaxTotal)},
	}
	if invoice.TaxTotal > 0 {
		lines = append(lines, models.TransactionLine{Account: AccountTaxPayable, Credit: invoice.TaxTotal})
	}
	entry := &models.Transaction{
		Type:        models.TxInvoiceIssue,
		SourceType:  models.SourceInvoice,
		SourceID:    invoice.ID,
		CustomerID:  booking.CustomerID,
		Amount:      invoice.Total,
		TaxAmount:   invoice.TaxTotal,
		Date:        time.Now(),
		Description: fmt.Sprintf("Invoice %s issued for booking %d", invoice.InvoiceNumber, booking.ID),
		Lines:       lines,
	}
	if err := s.store.PostTransaction(entry); err != nil {
		return &RemoteFailure{Op: "post invoice_issue", Err: err}
	}
	return nil
}

// RecomputeUnitStatus derives the unit's status from "now": occupied while a
// checked-in booking covers now, available otherwise. Manual statuses
// (cleaning, maintenance, unexpired holds) are left alone.
func (s *Bookings) RecomputeUnitStatus(unitID uint, now time.Time) error {
	unit, err := s.store.UnitByID(unitID)
	if err != nil {
		return err
	}
	switch unit.Status {
	case models.UnitCleaning, models.UnitMaintenance:
		return nil
	case models.UnitReserved:
		if !unit.HoldExpired(now) {
			return nil
		}
	}

	_, err = s.store.CheckedInBookingCovering(unitID, now)
	if err != nil && !IsNotFound(err) {
		return &RemoteFailure{Op: "occupancy query", Err: err}
	}
	status := models.UnitAvailable
	if err == nil {
		status = models.UnitOccupied
	}
	if status == unit.Status {
		return nil
	}
	if err := s.store.SetUnitStatus(unitID, status, nil); err != nil {
		return &RemoteFailure{Op: "set unit status", Err: err}
	}
	return nil
}
