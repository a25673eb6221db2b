// handlers/gamification_routes.go
package handlers

import (
	"strconv"

	"school-admin-system/middleware"
	"school-admin-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGamificationRoutes(app *fiber.App, gamification *services.GamificationService, badges *services.BadgeService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/students/:id/xp", func(c *fiber.Ctx) error {
		ledger, err := gamification.GetStudentXP(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(ledger)
	})

	securedGroup.Get("/students/:id/achievements", func(c *fiber.Ctx) error {
		achievements, err := gamification.Achievements.GetStudentAchievements(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(achievements)
	})

	securedGroup.Get("/students/:id/badges", func(c *fiber.Ctx) error {
		awards, err := badges.StudentBadges(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(awards)
	})

	securedGroup.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		entries, err := gamification.GetLeaderboard(c.Query("class", ""), limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"scope":   c.Query("class", "school"),
			"entries": entries,
		})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Get("/gamification/settings", func(c *fiber.Ctx) error {
		cfg, err := gamification.GetSettings()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(cfg)
	})

	adminGroup.Put("/gamification/settings", func(c *fiber.Ctx) error {
		var req services.SettingsInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		cfg, err := gamification.UpsertSettings(req)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(cfg)
	})

	adminGroup.Get("/gamification/levels", func(c *fiber.Ctx) error {
		levels, err := gamification.Levels.ListLevels()
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(levels)
	})

	adminGroup.Put("/gamification/levels/:level", func(c *fiber.Ctx) error {
		level, err := strconv.Atoi(c.Params("level"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid level number"})
		}
		var req struct {
			Name       *string `json:"name"`
			XPRequired *int64  `json:"xp_required"`
			Benefits   *string `json:"benefits"`
			IsActive   *bool   `json:"is_active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.XPRequired != nil {
			updates["xp_required"] = *req.XPRequired
		}
		if req.Benefits != nil {
			updates["benefits"] = *req.Benefits
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		lvl, err := gamification.Levels.UpdateLevel(level, updates)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(lvl)
	})

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			StudentID string `json:"student_id"`
			XP        int64  `json:"xp"`
			Reason    string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		grantedBy, _ := c.Locals("user_id").(string)
		ach, err := gamification.GrantManualXP(req.StudentID, req.XP, req.Reason, grantedBy)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":     "XP granted successfully",
			"achievement": ach,
		})
	})
}
