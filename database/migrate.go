package database

import (
	"fmt"

	"vermietung-backend/models"

	"gorm.io/gorm"
)

// exclusionDDL is the hard overlap guard on bookings. GORM migrates time.Time
// columns as timestamptz, so the range constructor must be tstzrange; tsrange
// has no timestamptz overload and would fail the whole migration. Its shape
// must stay in sync with the availability predicate in store.go.
const exclusionDDL = `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1
		FROM pg_constraint
		WHERE conrelid = 'bookings'::regclass
		  AND conname  = 'excl_bookings_unit_active_overlap'
	) THEN
		ALTER TABLE bookings
		ADD CONSTRAINT excl_bookings_unit_active_overlap
		EXCLUDE USING gist (
			unit_id WITH =,
			tstzrange(check_in, check_out) WITH &&
		) WHERE (status IN ('pending_deposit', 'confirmed', 'checked_in'));
	END IF;
END $$;`

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Indexes (transactions source, payments, one live main invoice per booking)
// - Exclusion constraint: no two active bookings may overlap on one unit
// - Basic CHECK constraints
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Customer{},
			&models.Unit{},
			&models.Booking{},
			&models.Invoice{},
			&models.PaymentMethod{},
			&models.Payment{},
			&models.Transaction{},
			&models.TransactionLine{},
			&models.AccountingPeriod{},
			&models.ReversalArchive{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE bookings          ALTER COLUMN subtotal        TYPE numeric(12,2)`,
			`ALTER TABLE bookings          ALTER COLUMN discount_amount TYPE numeric(12,2)`,
			`ALTER TABLE bookings          ALTER COLUMN tax_amount      TYPE numeric(12,2)`,
			`ALTER TABLE bookings          ALTER COLUMN total_price     TYPE numeric(12,2)`,
			`ALTER TABLE invoices          ALTER COLUMN subtotal        TYPE numeric(12,2)`,
			`ALTER TABLE invoices          ALTER COLUMN tax_total       TYPE numeric(12,2)`,
			`ALTER TABLE invoices          ALTER COLUMN total           TYPE numeric(12,2)`,
			`ALTER TABLE invoices          ALTER COLUMN paid_total      TYPE numeric(12,2)`,
			`ALTER TABLE payments          ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE transactions      ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE transactions      ALTER COLUMN tax_amount      TYPE numeric(12,2)`,
			`ALTER TABLE transaction_lines ALTER COLUMN debit           TYPE numeric(12,2)`,
			`ALTER TABLE transaction_lines ALTER COLUMN credit          TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_bookings_unit_interval ON bookings (unit_id, check_in, check_out)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_one_live_main ON invoices (booking_id) WHERE kind = 'main' AND status <> 'void'`,
			`CREATE INDEX IF NOT EXISTS idx_payments_invoice_paid_at ON payments (invoice_id, paid_at)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions (source_type, source_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Hard overlap guard. The application-level availability check
		// exists for a readable error; this constraint is what actually loses
		// the race for one of two concurrent double-booking attempts. ---
		if err := tx.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
			return fmt.Errorf("btree_gist extension failed: %w", err)
		}
		if err := tx.Exec(exclusionDDL).Error; err != nil {
			return fmt.Errorf("exclusion constraint migration failed: %w", err)
		}

		// --- Invoice numbering sequence (gap-tolerant, race-free) ---
		if err := tx.Exec(`CREATE SEQUENCE IF NOT EXISTS invoice_number_seq`).Error; err != nil {
			return fmt.Errorf("invoice number sequence migration failed: %w", err)
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Half-open interval must be non-empty
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'bookings'::regclass
					  AND conname  = 'chk_bookings_interval'
				) THEN
					ALTER TABLE bookings
					ADD CONSTRAINT chk_bookings_interval
					CHECK (check_in < check_out);
				END IF;
			END $$;`,
			// Payments.amount >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
			// Ledger lines carry non-negative debit/credit
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'transaction_lines'::regclass
					  AND conname  = 'chk_transaction_lines_nonneg'
				) THEN
					ALTER TABLE transaction_lines
					ADD CONSTRAINT chk_transaction_lines_nonneg
					CHECK (debit >= 0 AND credit >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
