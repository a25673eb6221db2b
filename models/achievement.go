package models

import "time"

// Milestone achievement types. WEEKLY_PERFECT streaks carry the week
// count in the type string itself (WEEKLY_PERFECT_1, WEEKLY_PERFECT_2, …)
// so each multiple of seven is its own one-time milestone.
const (
	AchievementPerfectScore        = "PERFECT_SCORE"
	AchievementHighAchiever        = "HIGH_ACHIEVER"
	AchievementPerfectAttendance30 = "PERFECT_ATTENDANCE_30"
	AchievementWeeklyPerfectPrefix = "WEEKLY_PERFECT_"
	AchievementXPReward            = "XP_REWARD"
)

// Achievement is append-only. DedupKey carries the store-level
// uniqueness: milestone grants set it to the type string, while manual
// XP_REWARD grants set it to the row's own ID so they stay repeatable
// under the same index.
type Achievement struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	StudentID   string    `gorm:"index;uniqueIndex:idx_student_achievement_dedup;not null" json:"student_id"`
	Type        string    `gorm:"index;not null" json:"type"`
	DedupKey    string    `gorm:"uniqueIndex:idx_student_achievement_dedup;not null" json:"-"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	XPReward    int64     `gorm:"default:0" json:"xp_reward"`
	Metadata    string    `gorm:"type:text" json:"metadata,omitempty"`
	EarnedAt    time.Time `gorm:"autoCreateTime;index" json:"earned_at"`
}
