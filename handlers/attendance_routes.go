// handlers/attendance_routes.go
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

// SetupAttendanceRoutes wires the attendance commit surface. The XP
// accrual runs after the record is committed and can never fail the
// write; failures are logged and swallowed.
func SetupAttendanceRoutes(app *fiber.App, db *gorm.DB, gamification *services.GamificationService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/attendance", func(c *fiber.Ctx) error {
		var req struct {
			StudentID string     `json:"student_id"`
			Status    string     `json:"status"`
			Date      *time.Time `json:"date"`
			Note      string     `json:"note"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		switch req.Status {
		case models.AttendancePresent, models.AttendanceLate, models.AttendanceAbsent, models.AttendanceExcused:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid attendance status"})
		}

		var student models.Student
		if err := db.Where("id = ?", req.StudentID).First(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "student not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}

		date := time.Now()
		if req.Date != nil {
			date = *req.Date
		}

		rec := models.AttendanceRecord{
			ID:        uuid.NewString(),
			StudentID: req.StudentID,
			Status:    req.Status,
			Date:      date,
			Note:      req.Note,
		}
		if err := db.Create(&rec).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record attendance"})
		}

		// Accrual is best-effort; the attendance write already stands.
		cfg, err := gamification.ActiveSettings()
		if err != nil {
			log.Printf("[ATTENDANCE] ⚠️ settings lookup failed: %v", err)
		} else if err := gamification.ApplyAttendanceAccrual(&rec, cfg); err != nil {
			log.Printf("[ATTENDANCE] ⚠️ XP accrual failed for student %s: %v", rec.StudentID, err)
		}

		return c.Status(fiber.StatusCreated).JSON(rec)
	})
}
