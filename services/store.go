package services

import (
	"time"

	"vermietung-backend/models"
)

// Store is the persistence boundary of the core. The gorm implementation in
// the database package binds one Store to one request transaction, so a
// service call either commits whole or leaves no trace. Ledger rows are
// append-only: there is no update or delete for transactions here; full
// cancellation moves a booking's trail into the reversal archive instead.
type Store interface {
	UnitByID(id uint) (*models.Unit, error)
	SetUnitStatus(id uint, status models.UnitStatus, holdUntil *time.Time) error

	BookingByID(id uint) (*models.Booking, error)
	CreateBooking(b *models.Booking) error
	SaveBooking(b *models.Booking) error
	// ActiveBookingsOverlapping returns active-status bookings of the unit
	// whose half-open interval overlaps [start, end), excluding excludeID
	// when non-zero.
	ActiveBookingsOverlapping(unitID uint, start, end time.Time, excludeID uint) ([]models.Booking, error)
	CheckedInBookingCovering(unitID uint, at time.Time) (*models.Booking, error)

	InvoiceByID(id uint) (*models.Invoice, error)
	InvoicesForBooking(bookingID uint) ([]models.Invoice, error)
	// MainInvoice returns the booking's non-void main invoice, or ErrNotFound.
	MainInvoice(bookingID uint) (*models.Invoice, error)
	CreateInvoice(inv *models.Invoice) error
	SaveInvoice(inv *models.Invoice) error
	NextInvoiceNumber() (string, error)

	PaymentByID(id uint) (*models.Payment, error)
	PaymentsForInvoice(invoiceID uint) ([]models.Payment, error)
	PaymentByTransactionRef(ref string) (*models.Payment, error)
	CreatePayment(p *models.Payment) error
	SavePayment(p *models.Payment) error

	// PostTransaction writes the header and its balancing lines atomically.
	PostTransaction(t *models.Transaction) error
	TransactionsForBooking(bookingID uint) ([]models.Transaction, error)
	TransactionsForInvoice(invoiceID uint) ([]models.Transaction, error)

	// OpenPeriodOn returns the open accounting period containing the day of
	// date, or ErrNotFound.
	OpenPeriodOn(date time.Time) (*models.AccountingPeriod, error)

	ArchiveReversal(a *models.ReversalArchive) error
	// PurgeBookingLedger removes the booking's live ledger rows after they
	// have been snapshotted into the reversal archive.
	PurgeBookingLedger(bookingID uint) error
}

// Set bundles the core services over one Store. Controllers build a Set per
// request from the transaction-bound store.
type Set struct {
	Availability *Availability
	Ledger       *Ledger
	Bookings     *Bookings
	Extensions   *Extensions
}

func New(store Store) *Set {
	avail := NewAvailability(store)
	ledger := NewLedger(store)
	bookings := NewBookings(store, avail, ledger)
	extensions := NewExtensions(store, avail, ledger, bookings)
	return &Set{
		Availability: avail,
		Ledger:       ledger,
		Bookings:     bookings,
		Extensions:   extensions,
	}
}
