package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"school-admin-system/models"
	"school-admin-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

var nameFolder = cases.Fold()

// foldName canonicalizes class names for audience matching so "7B",
// "7b" and " 7B " all refer to the same class.
func foldName(s string) string {
	return nameFolder.String(strings.TrimSpace(s))
}

type ChallengeService struct {
	DB           *gorm.DB
	Gamification *GamificationService
}

func NewChallengeService(db *gorm.DB, gamification *GamificationService) *ChallengeService {
	return &ChallengeService{DB: db, Gamification: gamification}
}

type CreateChallengeInput struct {
	Title        string   `json:"title" validate:"required,min=3,max=160"`
	Description  string   `json:"description" validate:"max=2000"`
	DurationDays int      `json:"duration_days" validate:"min=0,max=365"`
	TargetType   string   `json:"target_type" validate:"required,oneof=ALL_STUDENTS SPECIFIC_CLASS"`
	TargetFilter []string `json:"target_filter" validate:"max=50,dive,min=1"`
	XPReward     int64    `json:"xp_reward" validate:"min=0"`
	CreatedBy    string   `json:"-"`
}

// CreateChallenge creates the challenge and snapshots its audience in
// one transaction. Enrollment is a point-in-time snapshot: students who
// join or leave a class later are not added or removed.
func (s *ChallengeService) CreateChallenge(in CreateChallengeInput) (*models.Challenge, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.TargetType == models.TargetSpecificClass && len(in.TargetFilter) == 0 {
		return nil, fmt.Errorf("%w: target_filter is required for %s", ErrValidation, models.TargetSpecificClass)
	}

	audience, err := s.resolveAudience(in.TargetType, in.TargetFilter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var endDate *time.Time
	if in.DurationDays > 0 {
		d := now.AddDate(0, 0, in.DurationDays)
		endDate = &d
	}

	challenge := models.Challenge{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Slug:         slug.Make(in.Title) + "-" + uuid.NewString()[:8],
		Description:  in.Description,
		DurationDays: in.DurationDays,
		TargetType:   in.TargetType,
		TargetFilter: in.TargetFilter,
		XPReward:     in.XPReward,
		Status:       models.ChallengeActive,
		EndDate:      endDate,
		CreatedBy:    in.CreatedBy,
	}

	participations := make([]models.ChallengeParticipation, 0, len(audience))
	for _, st := range audience {
		participations = append(participations, models.ChallengeParticipation{
			ID:          uuid.NewString(),
			ChallengeID: challenge.ID,
			StudentID:   st.ID,
			Status:      models.ParticipationActive,
			Progress:    0,
		})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&challenge).Error; err != nil {
			return err
		}
		if len(participations) == 0 {
			return nil
		}
		return tx.CreateInBatches(&participations, 100).Error
	})
	if err != nil {
		return nil, err
	}

	challenge.ParticipantCount = int64(len(participations))
	log.Printf("🎯 Challenge created: %q (%s) with %d participants", challenge.Title, challenge.ID, len(participations))
	return &challenge, nil
}

func (s *ChallengeService) resolveAudience(targetType string, filter []string) ([]models.Student, error) {
	q := s.DB.Where("is_active = ?", true)

	if targetType == models.TargetSpecificClass {
		var classes []models.Class
		if err := s.DB.Find(&classes).Error; err != nil {
			return nil, err
		}
		wanted := make(map[string]bool, len(filter))
		for _, name := range filter {
			wanted[foldName(name)] = true
		}
		var classIDs []string
		for _, c := range classes {
			if wanted[foldName(c.Name)] {
				classIDs = append(classIDs, c.ID)
			}
		}
		if len(classIDs) == 0 {
			return nil, fmt.Errorf("%w: no class matches %v", ErrNotFound, filter)
		}
		q = q.Where("class_id IN ?", classIDs)
	}

	var students []models.Student
	if err := q.Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// MarkParticipantCompleted completes one participation and grants the
// challenge reward exactly once. The guarded UPDATE doubles as the
// idempotency check: zero affected rows means someone already completed
// (or failed) this participation.
func (s *ChallengeService) MarkParticipantCompleted(participationID string) (*models.ChallengeParticipation, error) {
	var part models.ChallengeParticipation
	if err := s.DB.Where("id = ?", participationID).First(&part).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	res := s.DB.Model(&models.ChallengeParticipation{}).
		Where("id = ? AND status = ?", participationID, models.ParticipationActive).
		Updates(map[string]interface{}{
			"status":       models.ParticipationCompleted,
			"progress":     100,
			"completed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyCompleted
	}

	var challenge models.Challenge
	if err := s.DB.Where("id = ?", part.ChallengeID).First(&challenge).Error; err != nil {
		return nil, err
	}

	if err := s.Gamification.GrantChallengeReward(part.StudentID, challenge.XPReward, challenge.ID); err != nil {
		// The completion stands; the reward failure is an internal
		// side effect and must not surface.
		log.Printf("[CHALLENGE] ⚠️ reward grant failed for participation %s: %v", participationID, err)
	}

	if err := s.autoFinalize(part.ChallengeID, now); err != nil {
		log.Printf("[CHALLENGE] ⚠️ auto-finalize check failed for %s: %v", part.ChallengeID, err)
	}

	part.Status = models.ParticipationCompleted
	part.Progress = 100
	part.CompletedAt = &now
	return &part, nil
}

// autoFinalize transitions the challenge to COMPLETED once no ACTIVE
// participation remains. The whole check-then-act runs as a single
// guarded UPDATE so concurrent last completions fire it exactly once.
// No XP is granted here; rewards were distributed per participant.
func (s *ChallengeService) autoFinalize(challengeID string, now time.Time) error {
	res := s.DB.Model(&models.Challenge{}).
		Where("id = ? AND status = ?", challengeID, models.ChallengeActive).
		Where("NOT EXISTS (SELECT 1 FROM challenge_participations WHERE challenge_id = ? AND status = ? AND deleted_at IS NULL)",
			challengeID, models.ParticipationActive).
		Updates(map[string]interface{}{
			"status":   models.ChallengeCompleted,
			"ended_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		log.Printf("🏁 Challenge %s completed, all participants terminal", challengeID)
	}
	return nil
}

// FinalizeSummary is the dry-run report for an explicit finalize.
type FinalizeSummary struct {
	ChallengeID  string `json:"challenge_id"`
	Title        string `json:"title"`
	Participants int64  `json:"participants"`
	Completed    int64  `json:"completed"`
	Failed       int64  `json:"failed"`
	Active       int64  `json:"active"`
	Finalized    bool   `json:"finalized"`
}

// FinalizeChallenge closes a challenge explicitly. Without confirmation
// it only reports, and only when every participation is COMPLETED; with
// confirmation it transitions the challenge with no additional XP.
func (s *ChallengeService) FinalizeChallenge(challengeID string, confirmed bool) (*FinalizeSummary, error) {
	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if challenge.Status == models.ChallengeCompleted {
		return nil, ErrAlreadyCompleted
	}

	summary := FinalizeSummary{ChallengeID: challenge.ID, Title: challenge.Title}
	counts := map[string]*int64{
		models.ParticipationCompleted: &summary.Completed,
		models.ParticipationFailed:    &summary.Failed,
		models.ParticipationActive:    &summary.Active,
	}
	for status, dst := range counts {
		if err := s.DB.Model(&models.ChallengeParticipation{}).
			Where("challenge_id = ? AND status = ?", challengeID, status).
			Count(dst).Error; err != nil {
			return nil, err
		}
	}
	summary.Participants = summary.Completed + summary.Failed + summary.Active

	if !confirmed {
		if summary.Participants == 0 || summary.Completed < summary.Participants {
			return nil, ErrIncompleteParticipants
		}
		return &summary, nil
	}

	now := time.Now()
	res := s.DB.Model(&models.Challenge{}).
		Where("id = ? AND status = ?", challengeID, models.ChallengeActive).
		Updates(map[string]interface{}{
			"status":   models.ChallengeCompleted,
			"ended_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyCompleted
	}
	summary.Finalized = true
	log.Printf("🏁 Challenge %s finalized by confirmation (%d/%d completed)", challengeID, summary.Completed, summary.Participants)
	return &summary, nil
}

// CompleteByDeadline is the sweep path: the challenge completes
// unconditionally and every still-active participation fails with no
// XP. Safe to call repeatedly; only the first call wins.
func (s *ChallengeService) CompleteByDeadline(challengeID, reason string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	res := s.DB.Model(&models.Challenge{}).
		Where("id = ? AND status = ?", challengeID, models.ChallengeActive).
		Updates(map[string]interface{}{
			"status":   models.ChallengeCompleted,
			"ended_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyCompleted
	}

	fail := s.DB.Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ? AND status = ?", challengeID, models.ParticipationActive).
		Updates(map[string]interface{}{
			"status":       models.ParticipationFailed,
			"completed_at": now,
		})
	if fail.Error != nil {
		return nil, fail.Error
	}

	log.Printf("⏰ Challenge %s closed by deadline (%s): %d participations failed", challengeID, reason, fail.RowsAffected)

	challenge.Status = models.ChallengeCompleted
	challenge.EndedAt = &now
	return &challenge, nil
}

type UpdateChallengeInput struct {
	Title        *string `json:"title" validate:"omitempty,min=3,max=160"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
	DurationDays *int    `json:"duration_days" validate:"omitempty,min=0,max=365"`
	XPReward     *int64  `json:"xp_reward" validate:"omitempty,min=0"`
}

// UpdateChallenge edits challenge fields. Edits are disabled the moment
// any participation exists.
func (s *ChallengeService) UpdateChallenge(challengeID string, in UpdateChallengeInput) (*models.Challenge, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var participants int64
	if err := s.DB.Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ?", challengeID).
		Count(&participants).Error; err != nil {
		return nil, err
	}
	if participants > 0 {
		return nil, ErrHasParticipants
	}

	if in.Title != nil {
		challenge.Title = *in.Title
		challenge.Slug = slug.Make(*in.Title) + "-" + challenge.ID[:8]
	}
	if in.Description != nil {
		challenge.Description = *in.Description
	}
	if in.DurationDays != nil {
		challenge.DurationDays = *in.DurationDays
		if *in.DurationDays > 0 {
			d := challenge.CreatedAt.AddDate(0, 0, *in.DurationDays)
			challenge.EndDate = &d
		} else {
			challenge.EndDate = nil
		}
	}
	if in.XPReward != nil {
		challenge.XPReward = *in.XPReward
	}

	if err := s.DB.Save(&challenge).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

// DeleteChallenge removes a challenge and its participations. Not
// blocked by participant count; it is an administrative override.
func (s *ChallengeService) DeleteChallenge(challengeID string) error {
	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", challengeID).Delete(&models.ChallengeParticipation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&challenge).Error
	})
}

// GetChallenge returns one challenge with participation counts.
func (s *ChallengeService) GetChallenge(challengeID string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.attachCounts(&challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ListChallenges returns challenges newest first, optionally filtered
// by status, with the usual pagination defaults.
func (s *ChallengeService) ListChallenges(status string, page, size int) ([]models.Challenge, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	q := s.DB.Model(&models.Challenge{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var challenges []models.Challenge
	if err := q.Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&challenges).Error; err != nil {
		return nil, 0, err
	}
	for i := range challenges {
		if err := s.attachCounts(&challenges[i]); err != nil {
			return nil, 0, err
		}
	}
	return challenges, total, nil
}

func (s *ChallengeService) attachCounts(challenge *models.Challenge) error {
	if err := s.DB.Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ?", challenge.ID).
		Count(&challenge.ParticipantCount).Error; err != nil {
		return err
	}
	return s.DB.Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ? AND status = ?", challenge.ID, models.ParticipationCompleted).
		Count(&challenge.CompletedCount).Error
}

// GetParticipants lists the participations of a challenge.
func (s *ChallengeService) GetParticipants(challengeID string) ([]models.ChallengeParticipation, error) {
	var parts []models.ChallengeParticipation
	err := s.DB.Where("challenge_id = ?", challengeID).
		Order("created_at ASC").
		Find(&parts).Error
	return parts, err
}

// ExpiredActiveChallenges returns ACTIVE challenges whose deadline has
// passed; the scheduler sweeps these through CompleteByDeadline.
func (s *ChallengeService) ExpiredActiveChallenges(now time.Time) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := s.DB.Where("status = ? AND end_date IS NOT NULL AND end_date <= ?", models.ChallengeActive, now).
		Find(&challenges).Error
	return challenges, err
}
