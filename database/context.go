package database

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FromCtx returns the request's *gorm.DB: the per-request transaction when
// the tx middleware opened one, else the shared connection.
func FromCtx(c *fiber.Ctx) *gorm.DB {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx
		}
	}
	return DB
}

// StoreFromCtx binds a Store to the request's transaction, so everything a
// handler does through the core services commits or rolls back as one unit.
func StoreFromCtx(c *fiber.Ctx) *Store {
	return NewStore(FromCtx(c))
}
