package models

import "time"

// XPLedger tracks gamified progression for each student (one row per
// student, created lazily on the first accrual event).
//
// TotalXP is only ever mutated through atomic increments after creation;
// read-modify-write would lose updates under concurrent accruals.
type XPLedger struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	StudentID string `gorm:"uniqueIndex;not null" json:"student_id"`

	TotalXP   int64  `gorm:"default:0" json:"total_xp"`
	Level     int    `gorm:"default:1" json:"level"`
	LevelName string `json:"level_name"`

	AttendanceStreak int64 `gorm:"default:0" json:"attendance_streak"`
	AssignmentStreak int64 `gorm:"default:0" json:"assignment_streak"`

	LastAttendance *time.Time `json:"last_attendance,omitempty"`
	LastAssignment *time.Time `json:"last_assignment,omitempty"`

	Timestamps
}
