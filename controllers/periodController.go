package controllers

import (
	"time"

	"vermietung-backend/database"
	"vermietung-backend/middlewares"
	"vermietung-backend/models"
	"vermietung-backend/services"

	"github.com/gofiber/fiber/v2"
)

type periodDTO struct {
	Name     string    `json:"name" validate:"required"`
	StartsOn time.Time `json:"starts_on" validate:"required"`
	EndsOn   time.Time `json:"ends_on" validate:"required"`
	Open     *bool     `json:"open"`
}

func CreatePeriod(c *fiber.Ctx) error {
	var dto periodDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	if dto.EndsOn.Before(dto.StartsOn) {
		return &services.ValidationError{Field: "ends_on", Reason: "must not be before starts_on"}
	}
	period := models.AccountingPeriod{
		Name:     dto.Name,
		StartsOn: dto.StartsOn,
		EndsOn:   dto.EndsOn,
		Open:     true,
	}
	if dto.Open != nil {
		period.Open = *dto.Open
	}
	if err := database.FromCtx(c).Create(&period).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(period)
}

func GetPeriods(c *fiber.Ctx) error {
	var periods []models.AccountingPeriod
	if err := database.FromCtx(c).Order("starts_on").Find(&periods).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"periods": periods,
		"message": "success",
	})
}

// ClosePeriod stops further postings dated inside the period.
func ClosePeriod(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	db := database.FromCtx(c)
	var period models.AccountingPeriod
	if err := db.First(&period, id).Error; err != nil {
		return services.ErrNotFound
	}
	period.Open = false
	if err := db.Save(&period).Error; err != nil {
		return err
	}
	return c.JSON(period)
}
