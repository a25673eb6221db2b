package models

import "time"

// Attendance statuses as recorded by teachers.
const (
	AttendancePresent = "PRESENT"
	AttendanceLate    = "LATE"
	AttendanceAbsent  = "ABSENT"
	AttendanceExcused = "EXCUSED"
)

// AttendanceRecord is committed by the attendance surface first; the XP
// accrual fires afterwards and must never fail the commit.
type AttendanceRecord struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	StudentID string    `gorm:"index;not null" json:"student_id"`
	Status    string    `gorm:"type:varchar(16);not null" json:"status"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	Note      string    `json:"note,omitempty"`

	Timestamps
}
