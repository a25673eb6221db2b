package models

import "time"

// Challenge statuses. COMPLETED is terminal; a challenge never goes back
// to ACTIVE.
const (
	ChallengeActive    = "ACTIVE"
	ChallengeCompleted = "COMPLETED"
)

// Challenge audience target types.
const (
	TargetAllStudents   = "ALL_STUDENTS"
	TargetSpecificClass = "SPECIFIC_CLASS"
)

// Participation statuses. COMPLETED and FAILED are both terminal.
const (
	ParticipationActive    = "ACTIVE"
	ParticipationCompleted = "COMPLETED"
	ParticipationFailed    = "FAILED"
)

// Challenge is a time-bounded, multi-student activity. The audience is
// snapshotted into participations at creation time and never
// re-evaluated afterwards.
type Challenge struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	Title        string     `gorm:"not null" json:"title"`
	Slug         string     `gorm:"index" json:"slug"`
	Description  string     `json:"description,omitempty"`
	DurationDays int        `gorm:"default:0" json:"duration_days"`
	TargetType   string     `gorm:"type:varchar(32);not null" json:"target_type"`
	TargetFilter []string   `gorm:"serializer:json" json:"target_filter,omitempty"`
	XPReward     int64      `gorm:"default:0" json:"xp_reward"`
	Status       string     `gorm:"type:varchar(16);default:'ACTIVE';index" json:"status"`
	EndDate      *time.Time `gorm:"index" json:"end_date,omitempty"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`

	Timestamps

	// Calculated, not stored
	ParticipantCount int64 `json:"participant_count,omitempty" gorm:"-"`
	CompletedCount   int64 `json:"completed_count,omitempty" gorm:"-"`
}

// ChallengeParticipation is one student's progress within a challenge.
type ChallengeParticipation struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string     `gorm:"index;uniqueIndex:idx_challenge_student;not null" json:"challenge_id"`
	StudentID   string     `gorm:"index;uniqueIndex:idx_challenge_student;not null" json:"student_id"`
	Status      string     `gorm:"type:varchar(16);default:'ACTIVE';index" json:"status"`
	Progress    int        `gorm:"default:0" json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Timestamps
}
