// handlers/badge_routes.go
package handlers

import (
	"fmt"
	"path/filepath"

	"school-admin-system/middleware"
	"school-admin-system/services"
	"school-admin-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupBadgeRoutes(app *fiber.App, badges *services.BadgeService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/badges", func(c *fiber.Ctx) error {
		list, err := badges.ListBadges(c.Query("all", "") == "")
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})

	securedGroup.Get("/badges/:id", func(c *fiber.Ctx) error {
		badge, err := badges.GetBadge(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(badge)
	})

	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/badges", func(c *fiber.Ctx) error {
		in, err := parseBadgeForm(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		badge, err := badges.CreateBadge(*in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(badge)
	})

	adminGroup.Put("/badges/:id", func(c *fiber.Ctx) error {
		in, err := parseBadgeForm(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		badge, err := badges.UpdateBadge(c.Params("id"), *in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(badge)
	})

	adminGroup.Delete("/badges/:id", func(c *fiber.Ctx) error {
		if err := badges.DeleteBadge(c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Badge deleted successfully"})
	})

	adminGroup.Post("/badges/:id/award", func(c *fiber.Ctx) error {
		var req struct {
			StudentID string `json:"student_id"`
			Reason    string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		awardedBy, _ := c.Locals("user_id").(string)
		award, err := badges.AwardBadge(c.Params("id"), req.StudentID, awardedBy, req.Reason)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(award)
	})
}

// parseBadgeForm reads the multipart badge form; an optional icon file
// goes to R2 and its public URL lands on the input.
func parseBadgeForm(c *fiber.Ctx) (*services.BadgeInput, error) {
	in := services.BadgeInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Criteria:    c.FormValue("criteria"),
	}
	if v := c.FormValue("xp_reward"); v != "" {
		if _, err := fmt.Sscan(v, &in.XPReward); err != nil {
			return nil, fmt.Errorf("xp_reward must be an integer")
		}
	}
	if v := c.FormValue("is_active"); v != "" {
		active := v == "true"
		in.IsActive = &active
	}

	if icon, err := c.FormFile("icon"); err == nil && icon.Size > 0 {
		ext := filepath.Ext(icon.Filename)
		if ext == "" {
			ext = ".png"
		}
		key := "badges/icons/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(icon, key)
		if err != nil {
			return nil, fmt.Errorf("failed to upload badge icon")
		}
		in.Icon = url
	}
	return &in, nil
}
