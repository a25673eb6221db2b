package services

import (
	"errors"
	"fmt"

	"school-admin-system/models"
	"school-admin-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB           *gorm.DB
	Gamification *GamificationService
}

func NewBadgeService(db *gorm.DB, gamification *GamificationService) *BadgeService {
	return &BadgeService{DB: db, Gamification: gamification}
}

type BadgeInput struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Icon        string `json:"icon"`
	XPReward    int64  `json:"xp_reward" validate:"min=0"`
	Criteria    string `json:"criteria" validate:"max=1000"`
	IsActive    *bool  `json:"is_active"`
}

func (s *BadgeService) CreateBadge(in BadgeInput) (*models.Badge, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	badge := models.Badge{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		XPReward:    in.XPReward,
		Criteria:    in.Criteria,
		IsActive:    true,
	}
	if in.IsActive != nil {
		badge.IsActive = *in.IsActive
	}
	if err := s.DB.Create(&badge).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

func (s *BadgeService) UpdateBadge(badgeID string, in BadgeInput) (*models.Badge, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	badge, err := s.GetBadge(badgeID)
	if err != nil {
		return nil, err
	}
	badge.Name = in.Name
	badge.Description = in.Description
	if in.Icon != "" {
		badge.Icon = in.Icon
	}
	badge.XPReward = in.XPReward
	badge.Criteria = in.Criteria
	if in.IsActive != nil {
		badge.IsActive = *in.IsActive
	}
	if err := s.DB.Save(badge).Error; err != nil {
		return nil, err
	}
	return badge, nil
}

func (s *BadgeService) DeleteBadge(badgeID string) error {
	badge, err := s.GetBadge(badgeID)
	if err != nil {
		return err
	}
	return s.DB.Delete(badge).Error
}

func (s *BadgeService) GetBadge(badgeID string) (*models.Badge, error) {
	var badge models.Badge
	if err := s.DB.Where("id = ?", badgeID).First(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &badge, nil
}

func (s *BadgeService) ListBadges(activeOnly bool) ([]models.Badge, error) {
	q := s.DB.Order("created_at ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var badges []models.Badge
	err := q.Find(&badges).Error
	return badges, err
}

// AwardBadge inserts one award row. Awards are repeatable by design and
// grant no XP on their own; any XP transfer is a separate explicit
// action through the ledger.
func (s *BadgeService) AwardBadge(badgeID, studentID, awardedBy, reason string) (*models.StudentBadge, error) {
	if _, err := s.GetBadge(badgeID); err != nil {
		return nil, err
	}
	var student models.Student
	if err := s.DB.Where("id = ?", studentID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	award := models.StudentBadge{
		ID:        uuid.NewString(),
		StudentID: studentID,
		BadgeID:   badgeID,
		AwardedBy: awardedBy,
		Reason:    reason,
	}
	if err := s.DB.Create(&award).Error; err != nil {
		return nil, err
	}
	return &award, nil
}

// StudentBadges lists a student's awards, newest first.
func (s *BadgeService) StudentBadges(studentID string) ([]models.StudentBadge, error) {
	var awards []models.StudentBadge
	err := s.DB.Where("student_id = ?", studentID).
		Order("awarded_at DESC").
		Find(&awards).Error
	return awards, err
}
