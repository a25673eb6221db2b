package services

import (
	"testing"

	"school-admin-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Student{},
		&models.Class{},
		&models.AttendanceRecord{},
		&models.GradeRecord{},
		&models.XPLedger{},
		&models.Level{},
		&models.Achievement{},
		&models.GamificationSettings{},
		&models.Badge{},
		&models.StudentBadge{},
		&models.Challenge{},
		&models.ChallengeParticipation{},
	); err != nil {
		t.Fatalf("failed to auto migrate: %v", err)
	}
	return db
}

func seedSettings(t *testing.T, db *gorm.DB, perGrade, attendanceBonus, absentPenalty int64) *models.GamificationSettings {
	t.Helper()
	cfg := models.GamificationSettings{
		ID:                uuid.NewString(),
		XPPerGrade:        perGrade,
		XPAttendanceBonus: attendanceBonus,
		XPAbsentPenalty:   absentPenalty,
		IsActive:          true,
	}
	if err := db.Create(&cfg).Error; err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}
	return &cfg
}

func seedStudent(t *testing.T, db *gorm.DB, name, classID string) *models.Student {
	t.Helper()
	st := models.Student{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		Name:           name,
		ClassID:        classID,
		IsActive:       true,
	}
	if err := db.Create(&st).Error; err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
	return &st
}

func seedClass(t *testing.T, db *gorm.DB, name string) *models.Class {
	t.Helper()
	cl := models.Class{ID: uuid.NewString(), Name: name}
	if err := db.Create(&cl).Error; err != nil {
		t.Fatalf("failed to seed class: %v", err)
	}
	return &cl
}

func ledgerFor(t *testing.T, db *gorm.DB, studentID string) *models.XPLedger {
	t.Helper()
	var ledger models.XPLedger
	if err := db.Where("student_id = ?", studentID).First(&ledger).Error; err != nil {
		t.Fatalf("failed to load ledger for %s: %v", studentID, err)
	}
	return &ledger
}
