// handlers/challenge_routes.go
package handlers

import (
	"strconv"

	"school-admin-system/middleware"
	"school-admin-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challenges *services.ChallengeService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/challenges", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		list, total, err := challenges.ListChallenges(c.Query("status", ""), page, size)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"challenges":  list,
			"page":        page,
			"size":        size,
			"total_items": total,
		})
	})

	securedGroup.Get("/challenges/:id", func(c *fiber.Ctx) error {
		challenge, err := challenges.GetChallenge(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(challenge)
	})

	securedGroup.Get("/challenges/:id/participants", func(c *fiber.Ctx) error {
		if _, err := challenges.GetChallenge(c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		parts, err := challenges.GetParticipants(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(parts)
	})

	// Admin lifecycle endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/challenges", func(c *fiber.Ctx) error {
		var req services.CreateChallengeInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		req.CreatedBy, _ = c.Locals("user_id").(string)
		challenge, err := challenges.CreateChallenge(req)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(challenge)
	})

	adminGroup.Put("/challenges/:id", func(c *fiber.Ctx) error {
		var req services.UpdateChallengeInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		challenge, err := challenges.UpdateChallenge(c.Params("id"), req)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(challenge)
	})

	adminGroup.Delete("/challenges/:id", func(c *fiber.Ctx) error {
		if err := challenges.DeleteChallenge(c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Challenge deleted successfully"})
	})

	adminGroup.Post("/challenges/:id/finalize", func(c *fiber.Ctx) error {
		var req struct {
			Confirmed bool `json:"confirmed"`
		}
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		summary, err := challenges.FinalizeChallenge(c.Params("id"), req.Confirmed)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(summary)
	})

	adminGroup.Post("/challenges/:id/complete-by-deadline", func(c *fiber.Ctx) error {
		var req struct {
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if req.Reason == "" {
			req.Reason = "manual sweep"
		}
		challenge, err := challenges.CompleteByDeadline(c.Params("id"), req.Reason)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(challenge)
	})

	adminGroup.Post("/participations/:id/complete", func(c *fiber.Ctx) error {
		part, err := challenges.MarkParticipantCompleted(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(part)
	})
}
