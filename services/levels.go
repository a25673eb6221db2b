package services

import (
	"errors"
	"fmt"
	"log"

	"school-admin-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// defaultLevelNames pair with DefaultLevelThresholds to form the ladder
// seeded when the Level table is empty.
var defaultLevelNames = []string{
	"Novice", "Beginner", "Apprentice", "Student", "Scholar",
	"Honor Student", "Achiever", "Expert", "Master", "Legend",
}

// DefaultLevelThresholds is the bootstrap XP ladder.
var DefaultLevelThresholds = []int64{0, 100, 300, 600, 1000, 1500, 2200, 3000, 4000, 5500}

type LevelService struct {
	DB *gorm.DB
}

func NewLevelService(db *gorm.DB) *LevelService {
	return &LevelService{DB: db}
}

// Resolve maps total XP to the active level with the greatest threshold
// at or below it. Falls back to the level-1 rung when nothing qualifies
// (negative totals), and bootstraps the default ladder if the table is
// empty. Apart from that one-time seed it performs no writes.
func (s *LevelService) Resolve(totalXP int64) (*models.Level, error) {
	levels, err := s.ladder()
	if err != nil {
		return nil, err
	}

	var resolved *models.Level
	for i := range levels {
		if !levels[i].IsActive {
			continue
		}
		if levels[i].XPRequired <= totalXP {
			resolved = &levels[i]
		}
	}
	if resolved != nil {
		return resolved, nil
	}

	for i := range levels {
		if levels[i].Level == 1 {
			return &levels[i], nil
		}
	}
	return nil, ErrNotFound
}

// ladder returns all levels ordered by threshold, seeding defaults on
// first use.
func (s *LevelService) ladder() ([]models.Level, error) {
	var levels []models.Level
	if err := s.DB.Order("xp_required ASC").Find(&levels).Error; err != nil {
		return nil, err
	}
	if len(levels) > 0 {
		return levels, nil
	}

	if err := s.Bootstrap(DefaultLevelThresholds); err != nil {
		return nil, err
	}
	if err := s.DB.Order("xp_required ASC").Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// Bootstrap seeds the ladder from a flat threshold array. Names beyond
// the default ten are numbered.
func (s *LevelService) Bootstrap(thresholds []int64) error {
	if len(thresholds) == 0 {
		thresholds = DefaultLevelThresholds
	}
	seed := make([]models.Level, 0, len(thresholds))
	for i, xp := range thresholds {
		name := fmt.Sprintf("Level %d", i+1)
		if i < len(defaultLevelNames) {
			name = defaultLevelNames[i]
		}
		seed = append(seed, models.Level{
			ID:         uuid.NewString(),
			Level:      i + 1,
			Name:       name,
			XPRequired: xp,
			IsActive:   true,
		})
	}
	if err := s.DB.Create(&seed).Error; err != nil {
		// Another instance may have seeded concurrently.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	log.Printf("[LEVELS] seeded default ladder (%d levels)", len(seed))
	return nil
}

// ListLevels returns the full ladder for the admin surface.
func (s *LevelService) ListLevels() ([]models.Level, error) {
	return s.ladder()
}

// UpdateLevel adjusts a single rung (name, threshold, benefits, active
// flag).
func (s *LevelService) UpdateLevel(level int, updates map[string]interface{}) (*models.Level, error) {
	var lvl models.Level
	if err := s.DB.Where("level = ?", level).First(&lvl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.DB.Model(&lvl).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &lvl, nil
}
