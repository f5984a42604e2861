package controllers

import (
	"time"

	"vermietung-backend/database"
	"vermietung-backend/events"
	"vermietung-backend/middlewares"
	"vermietung-backend/services"
	"vermietung-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type recordPaymentDTO struct {
	BookingID uint      `json:"booking_id"`
	InvoiceID *uint     `json:"invoice_id"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	MethodID  uint      `json:"method_id"`
	Date      time.Time `json:"date"`
	Reference string    `json:"reference"`
	Note      string    `json:"note"`
}

// RecordPayment posts a payment against a booking (deposit) or one of its
// invoices. The ledger entry's type is derived from whether the booking has
// been invoiced already.
func RecordPayment(c *fiber.Ctx) error {
	var dto recordPaymentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	if dto.BookingID == 0 && dto.InvoiceID == nil {
		return &services.ValidationError{Field: "target", Reason: "booking_id or invoice_id is required"}
	}
	utils.NormalizeDTO(&dto)

	svc := services.New(database.StoreFromCtx(c))
	entry, err := svc.Ledger.RecordPayment(services.PaymentInput{
		BookingID: dto.BookingID,
		InvoiceID: dto.InvoiceID,
		Amount:    dto.Amount,
		MethodID:  dto.MethodID,
		Date:      dto.Date,
		Reference: dto.Reference,
		Note:      dto.Note,
	})
	if err != nil {
		return err
	}

	events.Publish(entry.RefID, events.PaymentRecorded, entry)
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// GetBookingBalance reports the reconciled position of one booking. The
// stored remaining_amount may be negative; amount_to_request is the clamped
// presentation value.
func GetBookingBalance(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	svc := services.New(database.StoreFromCtx(c))
	balance, err := svc.Ledger.Balance(id)
	if err != nil {
		return err
	}
	toRequest := balance.Remaining
	if toRequest < 0 {
		toRequest = 0
	}
	return c.JSON(fiber.Map{
		"total_amount":      balance.Total,
		"paid_amount":       balance.Paid,
		"remaining_amount":  balance.Remaining,
		"amount_to_request": toRequest,
	})
}

func GetBookingTransactions(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	store := database.StoreFromCtx(c)
	txs, err := store.TransactionsForBooking(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"transactions": txs,
		"message":      "success",
	})
}

func ListInvoicePayments(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	store := database.StoreFromCtx(c)
	if _, err := store.InvoiceByID(id); err != nil {
		return err
	}
	payments, err := store.PaymentsForInvoice(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"payments": payments,
		"message":  "success",
	})
}
