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

type extendDTO struct {
	NewCheckOut time.Time `json:"new_check_out" validate:"required"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	TaxAmount   float64   `json:"tax_amount" validate:"min=0"`
	TaxMode     string    `json:"tax_mode" validate:"omitempty,oneof=gross zero"`
}

func ExtendBooking(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	var dto extendDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	svc := services.New(database.StoreFromCtx(c))
	invoice, err := svc.Extensions.Extend(services.ExtendInput{
		BookingID:   id,
		NewCheckOut: dto.NewCheckOut,
		Amount:      dto.Amount,
		TaxAmount:   dto.TaxAmount,
		TaxMode:     dto.TaxMode,
	})
	if err != nil {
		return err
	}

	events.Publish(utils.UintKey(id), events.BookingExtended, invoice)
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// CancelExtension reverses one extension invoice in isolation.
func CancelExtension(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	svc := services.New(database.StoreFromCtx(c))
	if err := svc.Extensions.CancelExtension(id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "extension invoice reversed"})
}
