package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"school-admin-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StreakEffect describes how an accrual event touches the streak
// counters on the ledger.
type StreakEffect string

const (
	StreakIncrementAttendance StreakEffect = "INCREMENT_ATTENDANCE"
	StreakResetAttendance     StreakEffect = "RESET_ATTENDANCE"
	StreakIncrementAssignment StreakEffect = "INCREMENT_ASSIGNMENT"
	StreakNone                StreakEffect = "NONE"
)

// Accrual event kinds.
const (
	EventAttendance = "ATTENDANCE"
	EventGrade      = "GRADE"
)

// AccrualEvent is the context handed to the achievement engine after a
// ledger mutation.
type AccrualEvent struct {
	Kind         string
	GradePercent float64
	At           time.Time
}

type GamificationService struct {
	DB           *gorm.DB
	Levels       *LevelService
	Achievements *AchievementService
}

func NewGamificationService(db *gorm.DB) *GamificationService {
	return &GamificationService{
		DB:           db,
		Levels:       NewLevelService(db),
		Achievements: NewAchievementService(db),
	}
}

// ActiveSettings resolves the single active configuration once per
// event; callers pass the result into the accrual funcs so the rules
// stay pure given (event, config). Returns nil (not an error) when no
// configuration is active; accrual is then a silent no-op.
func (s *GamificationService) ActiveSettings() (*models.GamificationSettings, error) {
	var cfg models.GamificationSettings
	err := s.DB.Where("is_active = ?", true).Order("created_at DESC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyAttendanceAccrual converts a committed attendance record into an
// XP delta and applies it. Callers must never fail the attendance write
// on an error from here; log and continue.
func (s *GamificationService) ApplyAttendanceAccrual(rec *models.AttendanceRecord, cfg *models.GamificationSettings) error {
	if cfg == nil || !cfg.IsActive {
		return nil
	}

	var delta int64
	effect := StreakNone
	switch rec.Status {
	case models.AttendancePresent:
		delta = cfg.XPAttendanceBonus
		effect = StreakIncrementAttendance
	case models.AttendanceLate:
		delta = cfg.XPAttendanceBonus / 2
		effect = StreakIncrementAttendance
	case models.AttendanceAbsent:
		delta = -cfg.XPAbsentPenalty
		effect = StreakResetAttendance
	case models.AttendanceExcused:
		// no XP, streak untouched
	default:
		return fmt.Errorf("%w: unknown attendance status %q", ErrValidation, rec.Status)
	}

	return s.accrue(rec.StudentID, delta, effect, AccrualEvent{Kind: EventAttendance, At: rec.Date})
}

// ApplyGradeAccrual converts a committed grade record into an XP delta:
// floor(percentage × xpPerGrade).
func (s *GamificationService) ApplyGradeAccrual(rec *models.GradeRecord, cfg *models.GamificationSettings) error {
	if cfg == nil || !cfg.IsActive {
		return nil
	}
	if rec.MaxScore <= 0 {
		return fmt.Errorf("%w: max score must be positive", ErrValidation)
	}

	pct := rec.Score / rec.MaxScore * 100
	delta := int64(math.Floor(pct * float64(cfg.XPPerGrade)))

	return s.accrue(rec.StudentID, delta, StreakIncrementAssignment, AccrualEvent{
		Kind:         EventGrade,
		GradePercent: pct,
		At:           rec.GradedAt,
	})
}

// accrue runs the full pipeline: ledger mutation → level recompute →
// achievement evaluation → bonus XP for any new grants. The bonus pass
// is a fixed-depth re-entry into applyXP; it does not evaluate again.
func (s *GamificationService) accrue(studentID string, delta int64, effect StreakEffect, event AccrualEvent) error {
	ledger, err := s.applyXP(studentID, delta, effect, event.At)
	if err != nil {
		return err
	}

	grants, err := s.Achievements.Evaluate(studentID, event, ledger)
	if err != nil {
		log.Printf("[XP] ⚠️ achievement evaluation failed for %s: %v", studentID, err)
		return nil
	}
	for _, g := range grants {
		if g.XPReward == 0 {
			continue
		}
		if _, err := s.applyXP(studentID, g.XPReward, StreakNone, event.At); err != nil {
			log.Printf("[XP] ⚠️ bonus apply failed for %s (%s): %v", studentID, g.Type, err)
		}
	}
	return nil
}

// applyXP mutates or lazily creates the student's ledger, then
// recomputes the level. The very first creation clamps the total at
// zero; every later apply is an unclamped atomic increment, so totals
// may go negative afterwards.
func (s *GamificationService) applyXP(studentID string, delta int64, effect StreakEffect, at time.Time) (*models.XPLedger, error) {
	var ledger models.XPLedger
	err := s.DB.Where("student_id = ?", studentID).First(&ledger).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, createErr := s.createLedger(studentID, delta, effect, at)
		if createErr == nil {
			ledger = *created
			break
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, createErr
		}
		// Concurrent first accrual won the insert; fall through to the
		// increment path.
		fallthrough
	case err == nil:
		if err := s.incrementLedger(studentID, delta, effect, at); err != nil {
			return nil, err
		}
		if err := s.DB.Where("student_id = ?", studentID).First(&ledger).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.recomputeLevel(&ledger)
}

func (s *GamificationService) createLedger(studentID string, delta int64, effect StreakEffect, at time.Time) (*models.XPLedger, error) {
	total := delta
	if total < 0 {
		total = 0
	}
	ledger := models.XPLedger{
		ID:        uuid.NewString(),
		StudentID: studentID,
		TotalXP:   total,
		Level:     1,
	}
	switch effect {
	case StreakIncrementAttendance:
		ledger.AttendanceStreak = 1
		ledger.LastAttendance = &at
	case StreakIncrementAssignment:
		ledger.AssignmentStreak = 1
		ledger.LastAssignment = &at
	}
	if err := s.DB.Create(&ledger).Error; err != nil {
		return nil, err
	}
	return &ledger, nil
}

// incrementLedger is a single UPDATE with expression columns, never
// read-modify-write, so concurrent accruals on one student cannot lose
// deltas.
func (s *GamificationService) incrementLedger(studentID string, delta int64, effect StreakEffect, at time.Time) error {
	updates := map[string]interface{}{
		"total_xp": gorm.Expr("total_xp + ?", delta),
	}
	switch effect {
	case StreakIncrementAttendance:
		updates["attendance_streak"] = gorm.Expr("attendance_streak + 1")
		updates["last_attendance"] = at
	case StreakResetAttendance:
		updates["attendance_streak"] = 0
	case StreakIncrementAssignment:
		updates["assignment_streak"] = gorm.Expr("assignment_streak + 1")
		updates["last_assignment"] = at
	}
	return s.DB.Model(&models.XPLedger{}).Where("student_id = ?", studentID).Updates(updates).Error
}

func (s *GamificationService) recomputeLevel(ledger *models.XPLedger) (*models.XPLedger, error) {
	lvl, err := s.Levels.Resolve(ledger.TotalXP)
	if err != nil {
		return nil, err
	}
	if lvl.Level != ledger.Level || lvl.Name != ledger.LevelName {
		if err := s.DB.Model(&models.XPLedger{}).Where("id = ?", ledger.ID).Updates(map[string]interface{}{
			"level":      lvl.Level,
			"level_name": lvl.Name,
		}).Error; err != nil {
			return nil, err
		}
		if lvl.Level > ledger.Level {
			log.Printf("🎓 Level up: student %s → L%d (%s) at %d XP", ledger.StudentID, lvl.Level, lvl.Name, ledger.TotalXP)
		}
		ledger.Level = lvl.Level
		ledger.LevelName = lvl.Name
	}
	return ledger, nil
}

// GrantChallengeReward credits a challenge completion reward. Challenge
// rewards write the ledger directly; they do not re-run the achievement
// engine.
func (s *GamificationService) GrantChallengeReward(studentID string, xp int64, challengeID string) error {
	if xp == 0 {
		return nil
	}
	if _, err := s.applyXP(studentID, xp, StreakNone, time.Now()); err != nil {
		return err
	}
	log.Printf("🏆 Challenge reward: +%d XP → student %s (challenge %s)", xp, studentID, challengeID)
	return nil
}

// GrantManualXP records an admin XP grant as a repeatable XP_REWARD
// achievement and credits the ledger.
func (s *GamificationService) GrantManualXP(studentID string, xp int64, reason, grantedBy string) (*models.Achievement, error) {
	if xp <= 0 {
		return nil, fmt.Errorf("%w: xp must be positive", ErrValidation)
	}
	id := uuid.NewString()
	ach := models.Achievement{
		ID:          id,
		StudentID:   studentID,
		Type:        models.AchievementXPReward,
		DedupKey:    id, // repeatable by design
		Title:       "XP Reward",
		Description: reason,
		XPReward:    xp,
		Metadata:    fmt.Sprintf(`{"granted_by":%q}`, grantedBy),
	}
	if err := s.DB.Create(&ach).Error; err != nil {
		return nil, err
	}
	if _, err := s.applyXP(studentID, xp, StreakNone, time.Now()); err != nil {
		return nil, err
	}
	return &ach, nil
}

// GetStudentXP returns the student's ledger or ErrNotFound before the
// first accrual.
func (s *GamificationService) GetStudentXP(studentID string) (*models.XPLedger, error) {
	var ledger models.XPLedger
	if err := s.DB.Where("student_id = ?", studentID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ledger, nil
}

// LeaderboardEntry is one ranked row. Ties on total XP fall back to
// ledger insertion order; beyond that the order is undefined.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	TotalXP     int64  `json:"total_xp"`
	Level       int    `json:"level"`
	LevelName   string `json:"level_name"`
	BadgeCount  int64  `json:"badge_count"`
}

// GetLeaderboard ranks students by total XP. className scopes the board
// to one class (matched case-insensitively); empty means school-wide.
func (s *GamificationService) GetLeaderboard(className string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := s.DB.Table("xp_ledgers").
		Select("xp_ledgers.student_id, students.name AS student_name, xp_ledgers.total_xp, xp_ledgers.level, xp_ledgers.level_name, COUNT(student_badges.id) AS badge_count").
		Joins("JOIN students ON students.id = xp_ledgers.student_id").
		Joins("LEFT JOIN student_badges ON student_badges.student_id = xp_ledgers.student_id").
		Group("xp_ledgers.id, students.id").
		Order("xp_ledgers.total_xp DESC, xp_ledgers.created_at ASC").
		Limit(limit)

	if className != "" {
		classIDs, err := s.classIDsByName(className)
		if err != nil {
			return nil, err
		}
		if len(classIDs) == 0 {
			return nil, ErrNotFound
		}
		q = q.Where("students.class_id IN ?", classIDs)
	}

	var entries []LeaderboardEntry
	if err := q.Scan(&entries).Error; err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *GamificationService) classIDsByName(name string) ([]string, error) {
	var classes []models.Class
	if err := s.DB.Find(&classes).Error; err != nil {
		return nil, err
	}
	want := foldName(name)
	var ids []string
	for _, c := range classes {
		if foldName(c.Name) == want {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}
