package handlers

import (
	"errors"

	"school-admin-system/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps service sentinels onto HTTP statuses; anything
// unrecognized is a 500.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrIncompleteParticipants),
		errors.Is(err, services.ErrHasParticipants):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrConfigurationMissing):
		status = fiber.StatusPreconditionFailed
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
