// handlers/grade_routes.go
package handlers

import (
	"errors"
	"log"
	"time"

	"school-admin-system/middleware"
	"school-admin-system/models"
	"school-admin-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SetupGradeRoutes wires the grade commit surface; like attendance, the
// accrual never fails the grade write.
func SetupGradeRoutes(app *fiber.App, db *gorm.DB, gamification *services.GamificationService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/grades", func(c *fiber.Ctx) error {
		var req struct {
			StudentID string  `json:"student_id"`
			Subject   string  `json:"subject"`
			Score     float64 `json:"score"`
			MaxScore  float64 `json:"max_score"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.MaxScore <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_score must be positive"})
		}
		if req.Score < 0 || req.Score > req.MaxScore {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score must be between 0 and max_score"})
		}

		var student models.Student
		if err := db.Where("id = ?", req.StudentID).First(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "student not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}

		gradedBy, _ := c.Locals("user_id").(string)
		rec := models.GradeRecord{
			ID:         uuid.NewString(),
			StudentID:  req.StudentID,
			Subject:    req.Subject,
			Score:      req.Score,
			MaxScore:   req.MaxScore,
			Percentage: req.Score / req.MaxScore * 100,
			GradedAt:   time.Now(),
			GradedBy:   gradedBy,
		}
		if err := db.Create(&rec).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record grade"})
		}

		cfg, err := gamification.ActiveSettings()
		if err != nil {
			log.Printf("[GRADES] ⚠️ settings lookup failed: %v", err)
		} else if err := gamification.ApplyGradeAccrual(&rec, cfg); err != nil {
			log.Printf("[GRADES] ⚠️ XP accrual failed for student %s: %v", rec.StudentID, err)
		}

		return c.Status(fiber.StatusCreated).JSON(rec)
	})
}
