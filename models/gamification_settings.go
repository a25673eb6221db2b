package models

// GamificationSettings is the accrual configuration. Exactly one row
// should be active; if none is, accrual is a silent no-op.
//
// LevelThresholds is the canonical flat array shape. It is consulted
// only when seeding the Level ladder; the Level table is the source of
// truth for resolution afterwards.
type GamificationSettings struct {
	ID                string  `gorm:"primaryKey;type:uuid" json:"id"`
	XPPerGrade        int64   `gorm:"default:1" json:"xp_per_grade"`
	XPAttendanceBonus int64   `gorm:"default:10" json:"xp_attendance_bonus"`
	XPAbsentPenalty   int64   `gorm:"default:5" json:"xp_absent_penalty"`
	LevelThresholds   []int64 `gorm:"serializer:json" json:"level_thresholds,omitempty"`
	IsActive          bool    `gorm:"default:true;index" json:"is_active"`

	Timestamps
}
