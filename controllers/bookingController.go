package controllers

import (
	"time"

	"vermietung-backend/cache"
	"vermietung-backend/database"
	"vermietung-backend/events"
	"vermietung-backend/middlewares"
	"vermietung-backend/models"
	"vermietung-backend/services"
	"vermietung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type createBookingDTO struct {
	CustomerID         uint           `json:"customer_id" validate:"required"`
	UnitID             uint           `json:"unit_id" validate:"required"`
	CheckIn            time.Time      `json:"check_in" validate:"required"`
	CheckOut           time.Time      `json:"check_out" validate:"required"`
	BookingType        string         `json:"booking_type" validate:"omitempty,oneof=daily yearly"`
	Subtotal           float64        `json:"subtotal" validate:"min=0"`
	DiscountAmount     float64        `json:"discount_amount" validate:"min=0"`
	TaxAmount          float64        `json:"tax_amount" validate:"min=0"`
	TotalPrice         float64        `json:"total_price" validate:"min=0"`
	AdditionalServices datatypes.JSON `json:"additional_services"`
	Deposit            float64        `json:"deposit" validate:"min=0"`
	DepositMethodID    uint           `json:"deposit_method_id"`
}

func CreateBooking(c *fiber.Ctx) error {
	var dto createBookingDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	svc := services.New(database.StoreFromCtx(c))
	booking, err := svc.Bookings.Create(services.CreateBookingInput{
		CustomerID:         dto.CustomerID,
		UnitID:             dto.UnitID,
		CheckIn:            dto.CheckIn,
		CheckOut:           dto.CheckOut,
		BookingType:        models.BookingType(dto.BookingType),
		Subtotal:           dto.Subtotal,
		DiscountAmount:     dto.DiscountAmount,
		TaxAmount:          dto.TaxAmount,
		TotalPrice:         dto.TotalPrice,
		AdditionalServices: dto.AdditionalServices,
		Deposit:            dto.Deposit,
		DepositMethodID:    dto.DepositMethodID,
	})
	if err != nil {
		return err
	}

	events.Publish(utils.UintKey(booking.ID), events.BookingCreated, booking)
	if booking.Status == models.BookingConfirmed {
		events.Publish(utils.UintKey(booking.ID), events.BookingConfirmed, booking)
	}
	cache.InvalidateUnit(c.UserContext(), booking.UnitID)
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func GetBookings(c *fiber.Ctx) error {
	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	db := database.FromCtx(c)
	q := db.Model(&models.Booking{}).Preload("Customer").Preload("Unit")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if unitID := utils.ParseIntDefault(c.Query("unit_id"), 0); unitID > 0 {
		q = q.Where("unit_id = ?", unitID)
	}

	var bookings []models.Booking
	if err := q.Order("check_in").Limit(limit).Offset(offset).Find(&bookings).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bookings": bookings,
		"message":  "success",
	})
}

func GetBooking(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	var booking models.Booking
	if err := database.FromCtx(c).
		Preload("Customer").Preload("Unit").Preload("Invoices").
		First(&booking, id).Error; err != nil {
		return services.ErrNotFound
	}
	return c.JSON(booking)
}

func CheckIn(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	svc := services.New(database.StoreFromCtx(c))
	booking, err := svc.Bookings.CheckIn(id)
	if err != nil {
		return err
	}
	events.Publish(utils.UintKey(booking.ID), events.BookingCheckedIn, booking)
	cache.InvalidateUnit(c.UserContext(), booking.UnitID)
	return c.JSON(booking)
}

func CheckOut(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	svc := services.New(database.StoreFromCtx(c))
	booking, err := svc.Bookings.CheckOut(id)
	if err != nil {
		return err
	}
	events.Publish(utils.UintKey(booking.ID), events.BookingCheckedOut, booking)
	cache.InvalidateUnit(c.UserContext(), booking.UnitID)
	return c.JSON(booking)
}

type rescheduleDTO struct {
	CheckIn  time.Time `json:"check_in" validate:"required"`
	CheckOut time.Time `json:"check_out" validate:"required"`
}

func Reschedule(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	var dto rescheduleDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	svc := services.New(database.StoreFromCtx(c))
	booking, err := svc.Bookings.Reschedule(id, dto.CheckIn, dto.CheckOut)
	if err != nil {
		return err
	}
	events.Publish(utils.UintKey(booking.ID), events.BookingRescheduled, booking)
	cache.InvalidateUnit(c.UserContext(), booking.UnitID)
	return c.JSON(booking)
}

type delayDTO struct {
	Days int `json:"days" validate:"required,min=1"`
}

func Delay(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	var dto delayDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	svc := services.New(database.StoreFromCtx(c))
	booking, err := svc.Bookings.Delay(id, dto.Days)
	if err != nil {
		return err
	}
	events.Publish(utils.UintKey(booking.ID), events.BookingRescheduled, booking)
	cache.InvalidateUnit(c.UserContext(), booking.UnitID)
	return c.JSON(booking)
}

func CancelBooking(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	store := database.StoreFromCtx(c)
	svc := services.New(store)
	if err := svc.Extensions.CancelBooking(id); err != nil {
		return err
	}
	booking, err := store.BookingByID(id)
	if err != nil {
		return err
	}
	events.Publish(utils.UintKey(booking.ID), events.BookingCancelled, booking)
	cache.InvalidateUnit(c.UserContext(), booking.UnitID)
	return c.JSON(fiber.Map{"message": "booking cancelled"})
}
