package services

import (
	"fmt"

	"school-admin-system/models"

	"school-admin-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SettingsInput struct {
	XPPerGrade        int64   `json:"xp_per_grade" validate:"min=0"`
	XPAttendanceBonus int64   `json:"xp_attendance_bonus" validate:"min=0"`
	XPAbsentPenalty   int64   `json:"xp_absent_penalty" validate:"min=0"`
	LevelThresholds   []int64 `json:"level_thresholds"`
}

// GetSettings returns the active configuration for the admin surface.
// Unlike accrual, an explicit read of a missing configuration is an
// error.
func (s *GamificationService) GetSettings() (*models.GamificationSettings, error) {
	cfg, err := s.ActiveSettings()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigurationMissing
	}
	return cfg, nil
}

// UpsertSettings replaces the active configuration: the previous active
// row is deactivated, the new one created. When thresholds are supplied
// and no ladder exists yet they seed the Level table.
func (s *GamificationService) UpsertSettings(in SettingsInput) (*models.GamificationSettings, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for i := 1; i < len(in.LevelThresholds); i++ {
		if in.LevelThresholds[i] <= in.LevelThresholds[i-1] {
			return nil, fmt.Errorf("%w: level thresholds must be strictly increasing", ErrValidation)
		}
	}

	cfg := models.GamificationSettings{
		ID:                uuid.NewString(),
		XPPerGrade:        in.XPPerGrade,
		XPAttendanceBonus: in.XPAttendanceBonus,
		XPAbsentPenalty:   in.XPAbsentPenalty,
		LevelThresholds:   in.LevelThresholds,
		IsActive:          true,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GamificationSettings{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&cfg).Error
	})
	if err != nil {
		return nil, err
	}

	if len(in.LevelThresholds) > 0 {
		var count int64
		if err := s.DB.Model(&models.Level{}).Count(&count).Error; err == nil && count == 0 {
			if err := s.Levels.Bootstrap(in.LevelThresholds); err != nil {
				return nil, err
			}
		}
	}
	return &cfg, nil
}
