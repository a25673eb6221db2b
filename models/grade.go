package models

import "time"

// GradeRecord is committed by the grade surface before accrual fires.
// Percentage is denormalized so the achievement engine can query
// "grades >= 90% in the trailing 30 days" without recomputing.
type GradeRecord struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	StudentID  string    `gorm:"index;not null" json:"student_id"`
	Subject    string    `json:"subject"`
	Score      float64   `gorm:"not null" json:"score"`
	MaxScore   float64   `gorm:"not null" json:"max_score"`
	Percentage float64   `gorm:"index" json:"percentage"`
	GradedAt   time.Time `gorm:"index;not null" json:"graded_at"`
	GradedBy   string    `json:"graded_by,omitempty"`

	Timestamps
}
