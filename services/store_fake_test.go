package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"vermietung-backend/models"
)

// fakeStore is an in-memory Store for exercising the core services without a
// database. Getters hand out copies so unsaved mutations never leak back, the
// way a real round trip would behave.
type fakeStore struct {
	units    map[uint]*models.Unit
	bookings map[uint]*models.Booking
	invoices map[uint]*models.Invoice
	payments map[uint]*models.Payment
	txs      []*models.Transaction
	periods  []*models.AccountingPeriod
	archives []*models.ReversalArchive

	nextID uint
	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		units:    map[uint]*models.Unit{},
		bookings: map[uint]*models.Booking{},
		invoices: map[uint]*models.Invoice{},
		payments: map[uint]*models.Payment{},
		failOn:   map[string]error{},
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) fail(op string) error { return f.failOn[op] }

// --- seeding helpers ---

func (f *fakeStore) addUnit(status models.UnitStatus) *models.Unit {
	u := &models.Unit{ID: f.id(), Number: fmt.Sprintf("U-%d", f.nextID), Status: status}
	f.units[u.ID] = u
	return u
}

func (f *fakeStore) addBooking(b models.Booking) *models.Booking {
	b.ID = f.id()
	f.bookings[b.ID] = &b
	return &b
}

func (f *fakeStore) addOpenPeriod(from, to time.Time) {
	f.periods = append(f.periods, &models.AccountingPeriod{
		ID: f.id(), Name: fmt.Sprintf("P-%d", f.nextID), StartsOn: from, EndsOn: to, Open: true,
	})
}

// --- Store implementation ---

func (f *fakeStore) UnitByID(id uint) (*models.Unit, error) {
	if err := f.fail("UnitByID"); err != nil {
		return nil, err
	}
	u, ok := f.units[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) SetUnitStatus(id uint, status models.UnitStatus, holdUntil *time.Time) error {
	if err := f.fail("SetUnitStatus"); err != nil {
		return err
	}
	u, ok := f.units[id]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	u.HoldUntil = holdUntil
	return nil
}

func (f *fakeStore) BookingByID(id uint) (*models.Booking, error) {
	if err := f.fail("BookingByID"); err != nil {
		return nil, err
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) CreateBooking(b *models.Booking) error {
	if err := f.fail("CreateBooking"); err != nil {
		return err
	}
	b.ID = f.id()
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) SaveBooking(b *models.Booking) error {
	if err := f.fail("SaveBooking"); err != nil {
		return err
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) ActiveBookingsOverlapping(unitID uint, start, end time.Time, excludeID uint) ([]models.Booking, error) {
	if err := f.fail("ActiveBookingsOverlapping"); err != nil {
		return nil, err
	}
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UnitID != unitID || !b.Status.Active() || b.ID == excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) CheckedInBookingCovering(unitID uint, at time.Time) (*models.Booking, error) {
	if err := f.fail("CheckedInBookingCovering"); err != nil {
		return nil, err
	}
	for _, b := range f.bookings {
		if b.UnitID == unitID && b.Status == models.BookingCheckedIn && b.Covers(at) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) InvoiceByID(id uint) (*models.Invoice, error) {
	if err := f.fail("InvoiceByID"); err != nil {
		return nil, err
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeStore) InvoicesForBooking(bookingID uint) ([]models.Invoice, error) {
	if err := f.fail("InvoicesForBooking"); err != nil {
		return nil, err
	}
	var out []models.Invoice
	for _, inv := range f.invoices {
		if inv.BookingID == bookingID {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) MainInvoice(bookingID uint) (*models.Invoice, error) {
	if err := f.fail("MainInvoice"); err != nil {
		return nil, err
	}
	for _, inv := range f.invoices {
		if inv.BookingID == bookingID && inv.Kind == models.InvoiceMain && inv.Status != models.InvoiceVoid {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) CreateInvoice(inv *models.Invoice) error {
	if err := f.fail("CreateInvoice"); err != nil {
		return err
	}
	inv.ID = f.id()
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeStore) SaveInvoice(inv *models.Invoice) error {
	if err := f.fail("SaveInvoice"); err != nil {
		return err
	}
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeStore) NextInvoiceNumber() (string, error) {
	if err := f.fail("NextInvoiceNumber"); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", len(f.invoices)+1), nil
}

func (f *fakeStore) PaymentByID(id uint) (*models.Payment, error) {
	if err := f.fail("PaymentByID"); err != nil {
		return nil, err
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) PaymentsForInvoice(invoiceID uint) ([]models.Payment, error) {
	if err := f.fail("PaymentsForInvoice"); err != nil {
		return nil, err
	}
	var out []models.Payment
	for _, p := range f.payments {
		if p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) PaymentByTransactionRef(ref string) (*models.Payment, error) {
	if err := f.fail("PaymentByTransactionRef"); err != nil {
		return nil, err
	}
	for _, p := range f.payments {
		if p.TransactionRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) CreatePayment(p *models.Payment) error {
	if err := f.fail("CreatePayment"); err != nil {
		return err
	}
	p.ID = f.id()
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakeStore) SavePayment(p *models.Payment) error {
	if err := f.fail("SavePayment"); err != nil {
		return err
	}
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakeStore) PostTransaction(t *models.Transaction) error {
	if err := f.fail("PostTransaction"); err != nil {
		return err
	}
	t.ID = f.id()
	if t.RefID == "" {
		t.RefID = uuid.NewString()
	}
	cp := *t
	cp.Lines = append([]models.TransactionLine(nil), t.Lines...)
	f.txs = append(f.txs, &cp)
	return nil
}

func (f *fakeStore) bookingOwnsTx(bookingID uint, t *models.Transaction) bool {
	if t.SourceType == models.SourceBooking {
		return t.SourceID == bookingID
	}
	inv, ok := f.invoices[t.SourceID]
	return ok && inv.BookingID == bookingID
}

func (f *fakeStore) TransactionsForBooking(bookingID uint) ([]models.Transaction, error) {
	if err := f.fail("TransactionsForBooking"); err != nil {
		return nil, err
	}
	var out []models.Transaction
	for _, t := range f.txs {
		if f.bookingOwnsTx(bookingID, t) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) TransactionsForInvoice(invoiceID uint) ([]models.Transaction, error) {
	if err := f.fail("TransactionsForInvoice"); err != nil {
		return nil, err
	}
	var out []models.Transaction
	for _, t := range f.txs {
		if t.SourceType == models.SourceInvoice && t.SourceID == invoiceID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) OpenPeriodOn(date time.Time) (*models.AccountingPeriod, error) {
	if err := f.fail("OpenPeriodOn"); err != nil {
		return nil, err
	}
	for _, p := range f.periods {
		if p.Open && p.Contains(date) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ArchiveReversal(a *models.ReversalArchive) error {
	if err := f.fail("ArchiveReversal"); err != nil {
		return err
	}
	a.ID = f.id()
	cp := *a
	f.archives = append(f.archives, &cp)
	return nil
}

func (f *fakeStore) PurgeBookingLedger(bookingID uint) error {
	if err := f.fail("PurgeBookingLedger"); err != nil {
		return err
	}
	var kept []*models.Transaction
	for _, t := range f.txs {
		if !f.bookingOwnsTx(bookingID, t) {
			kept = append(kept, t)
		}
	}
	f.txs = kept
	return nil
}

// --- test-side inspection helpers ---

func (f *fakeStore) transactionsOfType(bookingID uint, tt models.TransactionType) []models.Transaction {
	var out []models.Transaction
	for _, t := range f.txs {
		if t.Type == tt && f.bookingOwnsTx(bookingID, t) {
			out = append(out, *t)
		}
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
