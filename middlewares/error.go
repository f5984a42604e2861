package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"vermietung-backend/services"
)

// ErrorHandler centralizes error responses. Domain errors keep their concrete
// cause in the body (which interval conflicts, which period is missing);
// everything unknown is sanitized to a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// Validation errors from the request binder (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// Domain error taxonomy
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": conflict.Error(),
			"error":   "conflict",
		})
	}
	var immutable *services.ImmutableError
	if errors.As(err, &immutable) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": immutable.Error(),
			"error":   "immutable",
		})
	}
	var noPeriod *services.NoOpenPeriodError
	if errors.As(err, &noPeriod) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": noPeriod.Error(),
			"error":   "no_open_period",
		})
	}
	var invalid *services.ValidationError
	if errors.As(err, &invalid) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": invalid.Error(),
			"error":   "validation",
		})
	}
	var reversal *services.ReversalError
	if errors.As(err, &reversal) {
		items := make([]fiber.Map, 0, len(reversal.Items))
		for _, it := range reversal.Items {
			items = append(items, fiber.Map{"payment_id": it.PaymentID, "error": it.Err.Error()})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": reversal.Error(),
			"error":   "reversal_failed",
			"items":   items,
		})
	}
	var remote *services.RemoteFailure
	if errors.As(err, &remote) {
		logrus.WithError(remote.Err).WithField("op", remote.Op).Error("collaborator call failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": remote.Error(),
			"error":   "remote_failure",
		})
	}
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	}

	// Unknown errors (500)
	logrus.WithError(err).Error("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
