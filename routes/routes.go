package routes

import (
	"github.com/gofiber/fiber/v2"

	"vermietung-backend/controllers"
	"vermietung-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request transaction (commits/rolls back the whole operation)
	protected.Use(middlewares.Tx())

	// Customers
	protected.Post("/customer", controllers.CreateCustomer)
	protected.Get("/customers", controllers.GetCustomers)
	protected.Get("/customer/:id", controllers.GetCustomer)
	protected.Put("/customer/:id", controllers.UpdateCustomer)

	// Units & availability
	protected.Post("/unit", controllers.CreateUnit)
	protected.Get("/units", controllers.GetUnits)
	protected.Get("/units/:id/status", controllers.GetUnitStatus)
	protected.Put("/units/:id/status", controllers.UpdateUnitStatus)
	protected.Get("/availability", controllers.CheckAvailability)

	// Booking lifecycle
	protected.Post("/booking", controllers.CreateBooking)
	protected.Get("/bookings", controllers.GetBookings)
	protected.Get("/booking/:id", controllers.GetBooking)
	protected.Put("/booking/:id/checkin", controllers.CheckIn)
	protected.Put("/booking/:id/checkout", controllers.CheckOut)
	protected.Put("/booking/:id/reschedule", controllers.Reschedule)
	protected.Put("/booking/:id/delay", controllers.Delay)
	protected.Put("/booking/:id/extend", controllers.ExtendBooking)
	protected.Delete("/booking/:id", controllers.CancelBooking)
	protected.Delete("/extension-invoice/:id", controllers.CancelExtension)

	// Ledger
	protected.Post("/payment", controllers.RecordPayment)
	protected.Get("/booking/:id/balance", controllers.GetBookingBalance)
	protected.Get("/booking/:id/transactions", controllers.GetBookingTransactions)
	protected.Get("/invoice/:id/payments", controllers.ListInvoicePayments)

	// Accounting periods
	protected.Post("/period", controllers.CreatePeriod)
	protected.Get("/periods", controllers.GetPeriods)
	protected.Put("/periods/:id/close", controllers.ClosePeriod)
}
