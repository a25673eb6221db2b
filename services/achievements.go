package services

import (
	"errors"
	"fmt"
	"log"

	"school-admin-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bonus XP per milestone. WEEKLY_PERFECT scales with the week count.
const (
	perfectScoreXP        = 50
	highAchieverXP        = 100
	perfectAttendance30XP = 200
	weeklyPerfectBaseXP   = 50

	highAchieverMinGrades  = 5
	highAchieverMinPercent = 90.0
	highAchieverWindowDays = 30
	perfectAttendanceDays  = 30
)

type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// Evaluate runs every milestone rule against the post-accrual ledger
// state and returns the achievements granted by this event. Dedup is
// enforced by the (student_id, dedup_key) unique index, not by the
// pre-checks here; a duplicate insert simply means another event got
// there first.
func (s *AchievementService) Evaluate(studentID string, event AccrualEvent, ledger *models.XPLedger) ([]models.Achievement, error) {
	var granted []models.Achievement

	add := func(a *models.Achievement, err error) error {
		if err != nil {
			return err
		}
		if a != nil {
			granted = append(granted, *a)
			log.Printf("🏅 Achievement earned: %s → student %s (+%d XP)", a.Type, studentID, a.XPReward)
		}
		return nil
	}

	switch event.Kind {
	case EventGrade:
		if event.GradePercent == 100 {
			if err := add(s.tryGrant(studentID, models.AchievementPerfectScore,
				"Perfect Score", "Scored 100% on an assignment", perfectScoreXP)); err != nil {
				return granted, err
			}
		}
		qualifies, err := s.highAchieverQualifies(studentID, event)
		if err != nil {
			return granted, err
		}
		if qualifies {
			if err := add(s.tryGrant(studentID, models.AchievementHighAchiever,
				"High Achiever",
				fmt.Sprintf("Scored 90%% or above on %d assignments within %d days", highAchieverMinGrades, highAchieverWindowDays),
				highAchieverXP)); err != nil {
				return granted, err
			}
		}

	case EventAttendance:
		streak := ledger.AttendanceStreak
		if streak >= perfectAttendanceDays {
			if err := add(s.tryGrant(studentID, models.AchievementPerfectAttendance30,
				"Perfect Attendance",
				fmt.Sprintf("%d consecutive days of attendance", perfectAttendanceDays),
				perfectAttendance30XP)); err != nil {
				return granted, err
			}
		}
		if streak >= 7 && streak%7 == 0 {
			weeks := streak / 7
			typ := fmt.Sprintf("%s%d", models.AchievementWeeklyPerfectPrefix, weeks)
			if err := add(s.tryGrant(studentID, typ,
				fmt.Sprintf("Perfect Week ×%d", weeks),
				fmt.Sprintf("%d full weeks of unbroken attendance", weeks),
				weeklyPerfectBaseXP*weeks)); err != nil {
				return granted, err
			}
		}
	}

	return granted, nil
}

func (s *AchievementService) highAchieverQualifies(studentID string, event AccrualEvent) (bool, error) {
	since := event.At.AddDate(0, 0, -highAchieverWindowDays)
	var count int64
	err := s.DB.Model(&models.GradeRecord{}).
		Where("student_id = ? AND percentage >= ? AND graded_at >= ?", studentID, highAchieverMinPercent, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count >= highAchieverMinGrades, nil
}

// tryGrant inserts a milestone achievement. The unique index resolves
// the check-then-act race: a duplicate key means the milestone was
// already granted, which is not an error.
func (s *AchievementService) tryGrant(studentID, typ, title, description string, xp int64) (*models.Achievement, error) {
	ach := models.Achievement{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		Type:        typ,
		DedupKey:    typ,
		Title:       title,
		Description: description,
		XPReward:    xp,
	}
	if err := s.DB.Create(&ach).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil
		}
		return nil, err
	}
	return &ach, nil
}

// GetStudentAchievements lists a student's achievements, newest first.
func (s *AchievementService) GetStudentAchievements(studentID string) ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := s.DB.Where("student_id = ?", studentID).
		Order("earned_at DESC").
		Find(&achievements).Error
	return achievements, err
}
