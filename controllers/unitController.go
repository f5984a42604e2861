package controllers

import (
	"time"

	"vermietung-backend/cache"
	"vermietung-backend/database"
	"vermietung-backend/middlewares"
	"vermietung-backend/models"
	"vermietung-backend/services"

	"github.com/gofiber/fiber/v2"
)

type createUnitDTO struct {
	Number string `json:"number" validate:"required"`
}

func CreateUnit(c *fiber.Ctx) error {
	var dto createUnitDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	unit := models.Unit{Number: dto.Number, Status: models.UnitAvailable}
	if err := database.FromCtx(c).Create(&unit).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(unit)
}

func GetUnits(c *fiber.Ctx) error {
	var units []models.Unit
	if err := database.FromCtx(c).Order("number").Find(&units).Error; err != nil {
		return err
	}
	ctx := c.UserContext()
	for i := range units {
		cache.SetUnitStatus(ctx, units[i].ID, string(units[i].Status))
	}
	return c.JSON(fiber.Map{
		"units":   units,
		"message": "success",
	})
}

// GetUnitStatus is the cheap status poll: read-through the cache, fall back
// to the store on a miss.
func GetUnitStatus(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	if status := cache.UnitStatus(ctx, id); status != "" {
		return c.JSON(fiber.Map{"unit_id": id, "status": status})
	}

	store := database.StoreFromCtx(c)
	unit, err := store.UnitByID(id)
	if err != nil {
		return err
	}
	cache.SetUnitStatus(ctx, unit.ID, string(unit.Status))
	return c.JSON(fiber.Map{"unit_id": unit.ID, "status": unit.Status})
}

type unitStatusDTO struct {
	Status    string     `json:"status" validate:"required,oneof=available cleaning maintenance reserved"`
	HoldUntil *time.Time `json:"hold_until"`
}

// UpdateUnitStatus sets a manual unit status (cleaning, maintenance, a
// temporary reserved hold, or back to available).
func UpdateUnitStatus(c *fiber.Ctx) error {
	id, err := middlewares.UintParam(c, "id")
	if err != nil {
		return err
	}
	var dto unitStatusDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	status := models.UnitStatus(dto.Status)
	if !models.ManualUnitStatuses[status] {
		return &services.ValidationError{Field: "status", Reason: "not a manually settable status"}
	}
	var holdUntil *time.Time
	if status == models.UnitReserved {
		if dto.HoldUntil == nil || !dto.HoldUntil.After(time.Now()) {
			return &services.ValidationError{Field: "hold_until", Reason: "a reserved hold needs a future hold_until"}
		}
		holdUntil = dto.HoldUntil
	}

	store := database.StoreFromCtx(c)
	if _, err := store.UnitByID(id); err != nil {
		return err
	}
	if err := store.SetUnitStatus(id, status, holdUntil); err != nil {
		return err
	}
	cache.InvalidateUnit(c.UserContext(), id)
	return c.JSON(fiber.Map{"unit_id": id, "status": status, "hold_until": holdUntil})
}

// CheckAvailability answers whether a unit is free over [start, end).
func CheckAvailability(c *fiber.Ctx) error {
	unitID := parseQueryUint(c, "unit_id")
	if unitID == 0 {
		return &services.ValidationError{Field: "unit_id", Reason: "required"}
	}
	start, err := parseQueryDate(c, "start")
	if err != nil {
		return err
	}
	end, err := parseQueryDate(c, "end")
	if err != nil {
		return err
	}
	exclude := parseQueryUint(c, "exclude_booking_id")

	svc := services.New(database.StoreFromCtx(c))
	available, err := svc.Availability.Available(unitID, start, end, exclude)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"unit_id":   unitID,
		"start":     start,
		"end":       end,
		"available": available,
	})
}

func parseQueryUint(c *fiber.Ctx, name string) uint {
	return uint(c.QueryInt(name, 0))
}

func parseQueryDate(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, &services.ValidationError{Field: name, Reason: "required"}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &services.ValidationError{Field: name, Reason: "expected YYYY-MM-DD or RFC3339"}
	}
	return t, nil
}
