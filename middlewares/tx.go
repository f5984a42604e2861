package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"vermietung-backend/database"
)

// Tx opens a per-request DB transaction. Every mutating operation is one
// store round trip: the handler chain runs inside the transaction and a
// handler error rolls the whole request back, so no transition ever leaves
// partial booking/ledger state behind.
// Order: run AFTER IsAuthenticatedHeader() and AFTER Idempotency() (so
// idempotency records aren't tied to the handler TX).
func Tx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				logrus.WithError(e).Error("tx commit failed")
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via database.StoreFromCtx(c).
		c.Locals("tx", tx)

		// Run the handler chain inside this TX.
		err = c.Next()
		return err
	}
}
