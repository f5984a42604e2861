package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"vermietung-backend/models"
	"vermietung-backend/services"
)

// Store is the gorm-backed implementation of services.Store. Bind it to the
// per-request transaction so one service call commits or rolls back whole.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// overlapQuery is the availability predicate over half-open intervals.
// Kept as raw SQL: it is the correctness-critical query of the whole system
// and its shape must match the exclusion constraint in migrate.go.
const overlapQuery = `SELECT * FROM bookings ` +
	`WHERE unit_id = $1 ` +
	`AND status IN ('pending_deposit', 'confirmed', 'checked_in') ` +
	`AND check_in < $2 AND check_out > $3 ` +
	`AND ($4 = 0 OR id <> $4) ` +
	`ORDER BY check_in`

func (s *Store) ActiveBookingsOverlapping(unitID uint, start, end time.Time, excludeID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := s.db.Raw(overlapQuery, unitID, end, start, excludeID).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UnitByID(id uint) (*models.Unit, error) {
	var unit models.Unit
	if err := s.db.First(&unit, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &unit, nil
}

func (s *Store) SetUnitStatus(id uint, status models.UnitStatus, holdUntil *time.Time) error {
	return s.db.Model(&models.Unit{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "hold_until": holdUntil}).Error
}

func (s *Store) BookingByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (s *Store) CreateBooking(b *models.Booking) error {
	if err := s.db.Create(b).Error; err != nil {
		return asConflict(err, b)
	}
	return nil
}

func (s *Store) SaveBooking(b *models.Booking) error {
	if err := s.db.Save(b).Error; err != nil {
		return asConflict(err, b)
	}
	return nil
}

func (s *Store) CheckedInBookingCovering(unitID uint, at time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Where("unit_id = ? AND status = ? AND check_in <= ? AND check_out > ?",
		unitID, models.BookingCheckedIn, at, at).First(&booking).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (s *Store) InvoiceByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.First(&invoice, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

func (s *Store) InvoicesForBooking(bookingID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.Where("booking_id = ?", bookingID).Order("id").Find(&invoices).Error
	return invoices, err
}

func (s *Store) MainInvoice(bookingID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Where("booking_id = ? AND kind = ? AND status <> ?",
		bookingID, models.InvoiceMain, models.InvoiceVoid).First(&invoice).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

func (s *Store) CreateInvoice(inv *models.Invoice) error {
	return s.db.Create(inv).Error
}

func (s *Store) SaveInvoice(inv *models.Invoice) error {
	return s.db.Save(inv).Error
}

// NextInvoiceNumber draws from a dedicated sequence so concurrent requests
// can never mint the same number. Rolled-back transactions leave gaps, which
// is fine for invoice numbering.
func (s *Store) NextInvoiceNumber() (string, error) {
	var n int64
	if err := s.db.Raw(`SELECT nextval('invoice_number_seq')`).Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", n), nil
}

func (s *Store) PaymentByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (s *Store) PaymentsForInvoice(invoiceID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("invoice_id = ?", invoiceID).Order("paid_at").Find(&payments).Error
	return payments, err
}

func (s *Store) PaymentByTransactionRef(ref string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("transaction_ref = ?", ref).First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (s *Store) CreatePayment(p *models.Payment) error {
	return s.db.Create(p).Error
}

func (s *Store) SavePayment(p *models.Payment) error {
	return s.db.Save(p).Error
}

func (s *Store) PostTransaction(t *models.Transaction) error {
	// Header and lines go in together; inside the request transaction this
	// is all-or-nothing.
	return s.db.Create(t).Error
}

const bookingTxWhere = `(source_type = 'booking' AND source_id = ?) ` +
	`OR (source_type = 'invoice' AND source_id IN (SELECT id FROM invoices WHERE booking_id = ?))`

func (s *Store) TransactionsForBooking(bookingID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.Preload("Lines").
		Where(bookingTxWhere, bookingID, bookingID).
		Order("id").Find(&txs).Error
	return txs, err
}

func (s *Store) TransactionsForInvoice(invoiceID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.Preload("Lines").
		Where("source_type = ? AND source_id = ?", models.SourceInvoice, invoiceID).
		Order("id").Find(&txs).Error
	return txs, err
}

func (s *Store) OpenPeriodOn(date time.Time) (*models.AccountingPeriod, error) {
	day := date.Truncate(24 * time.Hour)
	var period models.AccountingPeriod
	err := s.db.Where("open AND starts_on <= ? AND ends_on >= ?", day, day).First(&period).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &period, nil
}

func (s *Store) ArchiveReversal(a *models.ReversalArchive) error {
	return s.db.Create(a).Error
}

func (s *Store) PurgeBookingLedger(bookingID uint) error {
	lines := `DELETE FROM transaction_lines WHERE transaction_id IN ` +
		`(SELECT id FROM transactions WHERE ` + bookingTxWhere + `)`
	if err := s.db.Exec(lines, bookingID, bookingID).Error; err != nil {
		return err
	}
	return s.db.Exec(`DELETE FROM transactions WHERE `+bookingTxWhere, bookingID, bookingID).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

// asConflict translates the exclusion/unique violations raised by the
// overlap constraint into the domain's ConflictError, so a double booking
// that slips past the application-level check still surfaces as a conflict
// instead of a bare SQL error.
func asConflict(err error, b *models.Booking) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
		return &services.ConflictError{UnitID: b.UnitID, Start: b.CheckIn, End: b.CheckOut}
	}
	return err
}
